package cli

import (
	"github.com/spf13/cobra"

	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/vectorstore/sqlite"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the local corpus",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	count, err := pipeline.Status(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Collection:  %s\n", settings.Collection)
	cmd.Printf("Chunks:      %d\n", count)
	if dims := vectorStore.Dimensions(); dims > 0 {
		cmd.Printf("Dimensions:  %d\n", dims)
	}
	if s, ok := vectorStore.(*sqlite.Store); ok {
		cmd.Printf("Store:       %s\n", s.Path())
	}
	cmd.Printf("Config:      %s\n", configStore.Path())
	return nil
}
