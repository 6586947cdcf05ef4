package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui"
)

var tuiTopK int

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for evidence-rag.

Type a question and press Enter. The answer is shown with the rows it was
grounded on, tagged by source.

Controls:
  Enter      - Ask
  ↑/k, ↓/j   - Move through sources
  PgUp/PgDn  - Scroll the answer
  n          - New question
  Esc        - Back / Cancel
  ?          - Toggle help
  q          - Quit`,
	Args:        cobra.NoArgs,
	Annotations: needs(needsUpstream),
	RunE:        runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "rows per source (default from config)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{}
	if app != nil {
		ports.Query = app.Query
		ports.Status = app.Status
	}

	// Create the TUI app
	model, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	model.WithContext(cmd.Context()).WithTopK(tuiTopK)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
