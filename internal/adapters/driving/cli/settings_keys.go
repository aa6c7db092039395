package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

// configStore gives the key-level settings subcommands direct access to
// the TOML store. Injected by the composition root alongside the services.
var configStore driven.ConfigStore

// SetConfigStore injects the config store for 'settings set/get/list'.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Read one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Write one configuration value",
	Long: `Writes a raw configuration value. Values that parse as booleans or
numbers are stored typed; everything else is stored as a string.

Run 'studyloop settings list' to see the available keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored configuration values",
	RunE:  runSettingsList,
}

func init() {
	// Values like -2 must parse as the positional value, not a flag.
	settingsSetCmd.Flags().SetInterspersed(false)

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsListCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	value, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key not set: %s", args[0])
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := configStore.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	// Reject inconsistent combinations right away rather than at the next
	// pipeline run.
	if settingsService != nil {
		if err := settingsService.Validate(); err != nil {
			cmd.Printf("Warning: %v\n", err)
		}
	}

	cmd.Printf("%s = %s\n", key, raw)
	return nil
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	entries := map[string]any{
		"embedding.provider":              settings.Embedding.Provider.String(),
		"embedding.model":                 settings.Embedding.Model,
		"embedding.base_url":              settings.Embedding.BaseURL,
		"llm.provider":                    settings.LLM.Provider.String(),
		"llm.model":                       settings.LLM.Model,
		"llm.base_url":                    settings.LLM.BaseURL,
		"chunking.size":                   settings.Chunking.Size,
		"chunking.overlap":                settings.Chunking.Overlap,
		"chunking.boundary_tolerance":     settings.Chunking.BoundaryTolerance,
		"retrieval.top_k":                 settings.Retrieval.TopK,
		"retrieval.max_per_unit":          settings.Retrieval.MaxPerUnit,
		"retrieval.min_similarity":        settings.Retrieval.MinSimilarity,
		"assistant.policy":                string(settings.Assistant.Policy),
		"assistant.history_budget":        settings.Assistant.HistoryBudget,
		"assistant.max_tokens":            settings.Assistant.MaxTokens,
		"assistant.temperature":           settings.Assistant.Temperature,
		"assistant.timeout_seconds":       settings.Assistant.TimeoutSeconds,
		"recommend.limit":                 settings.Recommend.Limit,
		"recommend.warm_interval_minutes": settings.Recommend.WarmIntervalMinutes,
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cmd.Printf("%s = %v\n", k, entries[k])
	}
	return nil
}

// parseConfigValue stores booleans and numbers typed so the TOML file
// round-trips them correctly.
func parseConfigValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && isBoolLiteral(raw) {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func isBoolLiteral(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "false":
		return true
	default:
		return false
	}
}
