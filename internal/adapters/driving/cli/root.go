// Package cli implements the askdocs command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/ai"
	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/config/file"
	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/askdocs-labs/askdocs-cli/internal/chunker"
	"github.com/askdocs-labs/askdocs-cli/internal/connectors/filesystem"
	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/core/ports/driven"
	"github.com/askdocs-labs/askdocs-cli/internal/core/services"
	"github.com/askdocs-labs/askdocs-cli/internal/extractors"
	"github.com/askdocs-labs/askdocs-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Shared services, wired lazily by commands that need the pipeline.
var (
	configStore *file.ConfigStore
	registry    *extractors.Registry
	vectorStore driven.VectorStore
	settings    domain.Settings
	pipeline    *services.PipelineService
)

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Ask questions about your local documents",
	Long: `askdocs ingests PDF and text documents into a local vector store
and answers questions about them, grounding a local LLM's answer in the
most relevant passages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.askdocs)")
}

// Execute runs the CLI.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices wires the full pipeline from configuration. Idempotent.
func initServices() error {
	if pipeline != nil {
		return nil
	}

	var err error
	configStore, err = file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings = file.LoadSettings(configStore)

	registry = extractors.NewDefaultRegistry()

	vectorStore, err = openVectorStore()
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}

	embedder := ai.CreateEmbeddingService(ai.EmbeddingConfig{
		BaseURL:           configStore.GetString(file.KeyEmbedBaseURL),
		Model:             configStore.GetString(file.KeyEmbedModel),
		Dimensions:        configStore.GetInt(file.KeyEmbedDimensions),
		RequestsPerSecond: configStore.GetFloat(file.KeyEmbedRPS),
	})

	llm, err := ai.CreateLLMService(ai.LLMConfig{
		Backend:    configStore.GetString(file.KeyLLMBackend),
		BaseURL:    configStore.GetString(file.KeyLLMBaseURL),
		Model:      configStore.GetString(file.KeyLLMModel),
		Timeout:    settings.GenerateTimeout,
		MaxRetries: settings.GenerateRetries,
	})
	if err != nil {
		return fmt.Errorf("create generation backend: %w", err)
	}

	normalizer := chunker.New(
		chunker.WithMaxChunkChars(settings.MaxChunkChars),
		chunker.WithBoundaryLookback(settings.BoundaryLookback),
	)

	pipeline = services.NewPipelineService(
		normalizer,
		registry,
		func(dir string) driven.FileSource {
			return filesystem.New(dir, registry.Supports)
		},
		embedder,
		vectorStore,
		llm,
		settings,
	)

	return nil
}

// openVectorStore builds the configured store backend: persistent SQLite
// by default, or an in-memory store for throwaway sessions.
func openVectorStore() (driven.VectorStore, error) {
	switch backend := configStore.GetString(file.KeyStoreBackend); backend {
	case "", "sqlite":
		return sqlite.NewStore(configStore.GetString(file.KeyDataDir), settings.Collection)
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, backend)
	}
}

func closeServices() {
	if pipeline != nil {
		if err := pipeline.Close(); err != nil {
			logger.Warn("closing pipeline: %v", err)
		}
		pipeline = nil
	}
}

// documentsDir resolves the default ingestion directory: the configured
// one, or ./documents matching the expected corpus layout.
func documentsDir() string {
	if dir := configStore.GetString(file.KeyDocumentsDir); dir != "" {
		return dir
	}
	return "documents"
}
