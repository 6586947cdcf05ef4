package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/watch"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest every source into the vector store",
	Long: `Clears and re-ingests the three sources in order: the SSP document,
the grype report and the evidence-request table.

With --watch the command keeps running and re-ingests whenever the
document or report file changes.`,
	Args:        cobra.NoArgs,
	Annotations: needs(needsUpstream),
	RunE:        runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when source files change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, err := current("ingestion service", func(a *App) bool { return a.Ingestion != nil })
	if err != nil {
		return err
	}

	once := func(ctx context.Context) error {
		report, err := a.Ingestion.Run(ctx)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		printIngestReport(cmd, report)
		return nil
	}

	if err := once(cmd.Context()); err != nil {
		return err
	}
	if !ingestWatch {
		return nil
	}

	w, err := watch.New(
		[]string{a.Config.Sources.DocumentPath, a.Config.Sources.ReportPath},
		a.Config.Ingest.WatchDebounce,
		once,
	)
	if err != nil {
		return err
	}
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	return w.Run(cmd.Context())
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	parts := make([]string, 0, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		parts = append(parts, fmt.Sprintf("%s %d", t.Label(), report.Chunks[t]))
	}
	cmd.Printf("Ingested %d chunks (%s) in %d batches, %s.\n",
		report.Total(),
		strings.Join(parts, ", "),
		report.Batches,
		report.EndedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
}
