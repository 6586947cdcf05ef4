package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// pathProvider is implemented by config stores backed by a file.
type pathProvider interface {
	Path() string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change configuration",
	Long: `View and change values in ~/.evidence-rag/config.toml.

Environment variables (OPENAI_API_KEY, OPENAI_BASE_URL, DOCLING_URL,
EVIDENCE_RAG_DATA_DIR, ...) and .env files override the file.`,
	Annotations: needs(needsConfig),
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show configured values",
	Args:        cobra.NoArgs,
	Annotations: needs(needsConfig),
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Keys use dot notation, for example:

  evidence-rag config set ingest.chunk_size 800
  evidence-rag config set docling.url ""
  evidence-rag config set ingest.refresh_interval 1h`,
	Args:        cobra.ExactArgs(2),
	Annotations: needs(needsConfig),
	RunE:        runConfigSet,
}

var configSetAPIKeyCmd = &cobra.Command{
	Use:         "set-api-key",
	Short:       "Store the OpenAI API key without echoing it",
	Args:        cobra.NoArgs,
	Annotations: needs(needsConfig),
	RunE:        runConfigSetAPIKey,
}

// readSecret reads a secret from the terminal. Replaced in tests.
var readSecret = readPassword

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetAPIKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func configApp() (*App, error) {
	return current("config store", func(a *App) bool { return a.ConfigStore != nil })
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := configApp()
	if err != nil {
		return err
	}

	if p, ok := a.ConfigStore.(pathProvider); ok {
		cmd.Printf("Config file: %s\n\n", p.Path())
	}

	for _, key := range file.KnownKeys {
		if key == file.KeyOpenAIAPIKey {
			cmd.Printf("  %-28s %s\n", key, describeAPIKey(a))
			continue
		}
		value, ok := a.ConfigStore.Get(key)
		if !ok {
			cmd.Printf("  %-28s (default)\n", key)
			continue
		}
		cmd.Printf("  %-28s %v\n", key, value)
	}
	cmd.Println()

	if err := a.Config.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else if err := a.Config.RequireAPIKey(); err != nil {
		cmd.Println("Warning: no API key. Run 'evidence-rag config set-api-key'.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func describeAPIKey(a *App) string {
	stored := a.ConfigStore.GetString(file.KeyOpenAIAPIKey)
	switch {
	case a.Config.OpenAI.APIKey == "":
		return "(not set)"
	case stored == "" || stored != a.Config.OpenAI.APIKey:
		return maskAPIKey(a.Config.OpenAI.APIKey) + " (from environment)"
	default:
		return maskAPIKey(stored)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := configApp()
	if err != nil {
		return err
	}

	key, raw := args[0], args[1]
	if !slices.Contains(file.KnownKeys, key) {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
	}

	value, err := file.ParseValue(key, raw)
	if err != nil {
		return err
	}
	if err := a.ConfigStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := a.ConfigStore.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	shown := raw
	if key == file.KeyOpenAIAPIKey {
		shown = maskAPIKey(raw)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runConfigSetAPIKey(cmd *cobra.Command, _ []string) error {
	a, err := configApp()
	if err != nil {
		return err
	}

	cmd.Print("OpenAI API key: ")
	key := strings.TrimSpace(readSecret())
	cmd.Println()
	if key == "" {
		return errors.New("no API key entered")
	}

	if err := a.ConfigStore.Set(file.KeyOpenAIAPIKey, key); err != nil {
		return fmt.Errorf("failed to set API key: %w", err)
	}
	if err := a.ConfigStore.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	cmd.Printf("API key saved: %s\n", maskAPIKey(key))
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
