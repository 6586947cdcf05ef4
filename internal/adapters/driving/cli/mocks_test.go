package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

type mockIngestion struct {
	report *domain.IngestReport
	err    error
	calls  int
}

func (m *mockIngestion) Run(_ context.Context) (*domain.IngestReport, error) {
	m.calls++
	return m.report, m.err
}

type mockRetrieval struct {
	merged *domain.MergedContext
	err    error
	query  string
	topK   int
}

func (m *mockRetrieval) Retrieve(_ context.Context, query string, topK int) (*domain.MergedContext, error) {
	m.query, m.topK = query, topK
	return m.merged, m.err
}

type mockQuery struct {
	answer *domain.Answer
	err    error
	query  string
	topK   int
}

func (m *mockQuery) Ask(_ context.Context, query string, topK int) (*domain.Answer, error) {
	m.query, m.topK = query, topK
	return m.answer, m.err
}

type mockStatus struct {
	counts  map[domain.SourceType]int
	history []domain.TaskResult
	err     error
	limit   int
}

func (m *mockStatus) Counts(_ context.Context) (map[domain.SourceType]int, error) {
	return m.counts, m.err
}

func (m *mockStatus) RefreshHistory(_ context.Context, limit int) ([]domain.TaskResult, error) {
	m.limit = limit
	return m.history, nil
}

func sampleContext() *domain.MergedContext {
	row := func(t domain.SourceType, sourceID string, idx int, content string, sim float64) domain.RetrievedRow {
		var r domain.RetrievedRow
		r.SourceType = t
		r.SourceID = sourceID
		r.ChunkIndex = idx
		r.Content = content
		r.ID = sourceID + "-id"
		r.Similarity = sim
		return r
	}

	return &domain.MergedContext{
		Query: "Is MFA enforced?",
		Groups: map[domain.SourceType][]domain.RetrievedRow{
			domain.SourceDocument: {row(domain.SourceDocument, "SSP.docx", 0, "IA-2 requires MFA.", 0.91)},
			domain.SourceReport:   {row(domain.SourceReport, "CVE-2023-9999", 1, "auth bypass", 0.52)},
			domain.SourceTable:    {row(domain.SourceTable, "er-1", 0, "Provide MFA evidence", 0.77)},
		},
		Text: "=== DOC SOURCES ===\nSource 1 (doc)\nID: SSP.docx\n...",
	}
}

func sampleReport() *domain.IngestReport {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report := domain.NewIngestReport(started)
	report.Chunks[domain.SourceDocument] = 12
	report.Chunks[domain.SourceReport] = 3
	report.Chunks[domain.SourceTable] = 2
	report.Batches = 3
	report.EndedAt = started.Add(1500 * time.Millisecond)
	return report
}

// resetFlags restores every flag, including --help, to its default so
// values parsed by one test do not leak into the next.
func resetFlags() {
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// execute runs the root command against a, returning combined output.
func execute(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), a, args...)
}

func executeContext(t *testing.T, ctx context.Context, a *App, args ...string) (string, error) {
	t.Helper()

	resetFlags()
	SetApp(a)
	t.Cleanup(func() {
		SetApp(nil)
		SetBuilder(nil)
		resetFlags()
		rootCmd.SetArgs(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}
