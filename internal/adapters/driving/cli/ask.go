package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Retrieves the most relevant chunks for the question and asks the
local LLM for an answer grounded in them. Without an argument, starts an
interactive prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the source chunks used for the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) == 1 {
		return askOnce(ctx, cmd, args[0])
	}
	return askLoop(ctx, cmd)
}

func askOnce(ctx context.Context, cmd *cobra.Command, question string) error {
	answer, err := pipeline.Query(ctx, question)
	if err != nil {
		return describeQueryError(err)
	}

	cmd.Println(answer.Text)
	if askShowSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}

// askLoop reads questions interactively until EOF or "quit".
func askLoop(ctx context.Context, cmd *cobra.Command) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		cmd.Print("\nEnter your question (or 'quit' to exit): ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}

		answer, err := pipeline.Query(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			cmd.PrintErrf("Error: %v\n", describeQueryError(err))
			continue
		}

		cmd.Println()
		cmd.Println(answer.Text)
		if askShowSources && len(answer.Sources) > 0 {
			cmd.Printf("\nSources: %s\n", strings.Join(answer.Sources, ", "))
		}
	}
}

// describeQueryError turns sentinel errors into actionable messages.
func describeQueryError(err error) error {
	switch {
	case errors.Is(err, domain.ErrGenerationTimeout):
		return fmt.Errorf("the model did not answer in time; it may still be loading: %w", err)
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return fmt.Errorf("cannot reach the generation backend; is the server running? %w", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("cannot reach the embedding backend; is Ollama running? %w", err)
	default:
		return err
	}
}
