package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/askdocs-labs/askdocs-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change configuration",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Sets a configuration key. Keys use dot notation matching the TOML
layout, e.g. "retrieval.top_k" or "generation.backend". Numeric values are
stored as numbers.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return err
	}
	settings := file.LoadSettings(store)

	cmd.Printf("Config file: %s\n\n", store.Path())

	rows := map[string]any{
		file.KeyTopK:            settings.TopK,
		file.KeyOverfetchFactor: settings.OverfetchFactor,
		file.KeyMaxContextChars: settings.MaxContextChars,
		file.KeyMaxChunkChars:   settings.MaxChunkChars,
		file.KeyLookback:        settings.BoundaryLookback,
		file.KeyCollection:      settings.Collection,
		file.KeyMaxTokens:       settings.MaxTokens,
		file.KeyTemperature:     settings.Temperature,
		file.KeyTimeoutSeconds:  int(settings.GenerateTimeout.Seconds()),
		file.KeyRetries:         settings.GenerateRetries,
		file.KeyLLMBackend:      orDefault(store.GetString(file.KeyLLMBackend), "llamacpp"),
		file.KeyLLMModel:        orDefault(store.GetString(file.KeyLLMModel), "(backend default)"),
		file.KeyEmbedModel:      orDefault(store.GetString(file.KeyEmbedModel), "(backend default)"),
		file.KeyDocumentsDir:    orDefault(store.GetString(file.KeyDocumentsDir), "documents"),
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cmd.Printf("%-28s %v\n", k, rows[k])
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return err
	}

	key, raw := args[0], args[1]

	// Preserve numeric types so typed getters keep working.
	var value any = raw
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		value = i
	} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
		value = f
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	}

	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("%s = %v\n", key, value)
	return nil
}

func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}
