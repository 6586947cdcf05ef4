package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

func row(t domain.SourceType, id string, index int, content string, sim float64) domain.RetrievedRow {
	var r domain.RetrievedRow
	r.SourceType = t
	r.SourceID = id
	r.ChunkIndex = index
	r.Content = content
	r.Similarity = sim
	return r
}

func sampleContext() *domain.MergedContext {
	return &domain.MergedContext{Groups: map[domain.SourceType][]domain.RetrievedRow{
		domain.SourceTable: {row(domain.SourceTable, "er-1", 0, "Evidence request: MFA", 0.8)},
		domain.SourceDocument: {
			row(domain.SourceDocument, "SSP.docx", 3, "MFA is enforced", 0.9),
			row(domain.SourceDocument, "SSP.docx", 1, "Accounts are reviewed", 0.4),
		},
		domain.SourceReport: {row(domain.SourceReport, "CVE-2024-0727", 0, "openssl", 0.2)},
	}}
}

func TestNewSourceList(t *testing.T) {
	l := NewSourceList(styles.DefaultStyles())

	require.NotNil(t, l)
	assert.Equal(t, 0, l.Selected())
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.Init())
}

func TestNewSourceList_NilStyles(t *testing.T) {
	l := NewSourceList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
}

func TestSourceList_SetContextOrdersBySourceType(t *testing.T) {
	l := NewSourceList(nil)

	l.SetContext(sampleContext())

	require.Equal(t, 4, l.Count())
	rows := l.Rows()
	assert.Equal(t, domain.SourceDocument, rows[0].SourceType)
	assert.Equal(t, 3, rows[0].ChunkIndex)
	assert.Equal(t, domain.SourceDocument, rows[1].SourceType)
	assert.Equal(t, domain.SourceReport, rows[2].SourceType)
	assert.Equal(t, domain.SourceTable, rows[3].SourceType)
}

func TestSourceList_SetContextNil(t *testing.T) {
	l := NewSourceList(nil)
	l.SetContext(sampleContext())

	l.SetContext(nil)

	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.SelectedRow())
}

func TestSourceList_Navigation(t *testing.T) {
	l := NewSourceList(nil)
	l.SetContext(sampleContext())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 3, l.Selected())
	assert.Equal(t, "er-1", l.SelectedRow().SourceID)

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 2, l.Selected())
}

func TestSourceList_SetRowsResetsSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetContext(sampleContext())
	l.MoveDown()

	l.SetRows([]domain.RetrievedRow{row(domain.SourceTable, "er-2", 0, "x", 0.1)})

	assert.Equal(t, 0, l.Selected())
}

func TestSourceList_ViewEmpty(t *testing.T) {
	l := NewSourceList(nil)

	assert.Contains(t, l.View(), "No sources")
}

func TestSourceList_View(t *testing.T) {
	l := NewSourceList(nil)
	l.SetDimensions(100, 20)
	l.SetContext(sampleContext())

	view := l.View()

	assert.Contains(t, view, "Sources (4)")
	assert.Contains(t, view, "SSP.docx #3")
	assert.Contains(t, view, "[DOC]")
	assert.Contains(t, view, "[DB]")
	assert.Contains(t, view, "0.900")
	assert.Contains(t, view, "MFA is enforced")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
