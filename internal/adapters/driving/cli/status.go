package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

var (
	statusHistory int
	statusPing    bool
)

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show stored row counts and recent refresh runs",
	Args:        cobra.NoArgs,
	Annotations: needs(needsStore),
	RunE:        runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusHistory, "history", "n", 5, "number of refresh runs to show")
	statusCmd.Flags().BoolVar(&statusPing, "ping", false, "check connectivity to the embedding and chat services")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := current("status service", func(a *App) bool { return a.Status != nil })
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	counts, err := a.Status.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	cmd.Println("[Store]")
	for _, t := range domain.SourceTypes {
		cmd.Printf("  %-10s %d\n", t.String()+":", counts[t])
	}
	cmd.Println()

	history, err := a.Status.RefreshHistory(ctx, statusHistory)
	if err != nil {
		return fmt.Errorf("failed to load refresh history: %w", err)
	}

	cmd.Println("[Refresh]")
	if len(history) == 0 {
		cmd.Println("  No refresh runs recorded.")
	}
	for i := range history {
		run := &history[i]
		outcome := fmt.Sprintf("ok, %d chunks", run.ItemsProcessed)
		if !run.Success {
			outcome = "failed: " + run.Error
		}
		cmd.Printf("  %s  %s  %s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.EndedAt.Sub(run.StartedAt).Round(time.Millisecond),
			outcome,
		)
	}

	if !statusPing {
		return nil
	}
	cmd.Println()
	cmd.Println("[Upstream]")
	if a.Ping == nil {
		cmd.Println("  API key not set.")
		return nil
	}
	if err := a.Ping(ctx); err != nil {
		cmd.Printf("  unreachable: %v\n", err)
		return nil
	}
	cmd.Println("  ok")
	return nil
}
