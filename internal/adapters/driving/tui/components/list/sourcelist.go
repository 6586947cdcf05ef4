// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// SourceList displays retrieved rows from every source in a navigable list.
type SourceList struct {
	rows     []domain.RetrievedRow
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.rows)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.rows))), "")

	// each row takes two lines
	visible := max(1, (l.height-2)/2)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.rows))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, &l.rows[i]))
	}

	return strings.Join(lines, "\n")
}

// renderRow formats one row as a tagged title line and a content preview.
func (l *SourceList) renderRow(index int, row *domain.RetrievedRow) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := row.SourceID
	if row.SourceType == domain.SourceDocument {
		title = fmt.Sprintf("%s #%d", row.SourceID, row.ChunkIndex)
	}
	title = truncate(title, max(10, l.width-24))
	score := fmt.Sprintf("%.3f", row.Similarity)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(indicator+title) + " " + l.styles.SourceTag(row.SourceType) +
			" " + l.styles.Muted.Render(score)
	} else {
		titleLine = l.styles.Normal.Render(indicator+title) + " " + l.styles.SourceTag(row.SourceType) +
			" " + l.styles.Muted.Render(score)
	}

	preview := strings.Join(strings.Fields(row.Content), " ")
	preview = truncate(preview, max(20, l.width-6))

	return titleLine + "\n" + l.styles.Muted.Render("    "+preview)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetContext replaces the rows with those of merged, in source order.
func (l *SourceList) SetContext(merged *domain.MergedContext) {
	var rows []domain.RetrievedRow
	for _, t := range domain.SourceTypes {
		rows = append(rows, merged.Group(t)...)
	}
	l.SetRows(rows)
}

// SetRows updates the rows and resets the selection.
func (l *SourceList) SetRows(rows []domain.RetrievedRow) {
	l.rows = rows
	l.selected = 0
}

// Rows returns the current rows.
func (l *SourceList) Rows() []domain.RetrievedRow {
	return l.rows
}

// Selected returns the index of the selected row.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedRow returns the currently selected row, or nil if none.
func (l *SourceList) SelectedRow() *domain.RetrievedRow {
	if l.selected < 0 || l.selected >= len(l.rows) {
		return nil
	}
	return &l.rows[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of rows.
func (l *SourceList) Count() int {
	return len(l.rows)
}

// IsEmpty returns whether the list is empty.
func (l *SourceList) IsEmpty() bool {
	return len(l.rows) == 0
}
