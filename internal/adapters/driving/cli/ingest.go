package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askdocs-labs/askdocs-cli/internal/connectors/filesystem"
	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
	"github.com/askdocs-labs/askdocs-cli/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest documents into the vector store",
	Long: `Extracts text from every supported file (.pdf, .txt, .md) in the
directory, chunks and embeds it, and stores the result locally. Documents
already ingested are skipped. With --watch, keeps running and ingests
files as they appear.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for new files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	dir := documentsDir()
	if len(args) == 1 {
		dir = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.IngestDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", dir, err)
	}

	cmd.Printf("Ingested %d documents (%d chunks), skipped %d, failed %d\n",
		stats.Ingested, stats.Chunks, stats.Skipped, stats.Failed)

	if !ingestWatch {
		return nil
	}
	return watchAndIngest(ctx, cmd, dir)
}

// watchAndIngest blocks ingesting files as they are created or rewritten,
// until interrupted.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, dir string) error {
	src := filesystem.New(dir, registry.Supports)
	defer src.Close()

	changes, err := src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for new documents (Ctrl-C to stop)...\n", dir)

	for change := range changes {
		if change.Type == driven.ChangeRemoved {
			continue
		}

		doc, committed, err := pipeline.IngestFile(ctx, change.Path)
		switch {
		case err != nil && (errors.Is(err, domain.ErrExtractionFailure) || errors.Is(err, domain.ErrInvalidInput)):
			logger.Warn("Skipping %s: %v", change.Path, err)
		case err != nil:
			return err
		case committed:
			cmd.Printf("Ingested %s (%s)\n", doc.Name, doc.ID)
		}
	}

	return nil
}
