package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// RenderContext formats retrieval groups for the answer prompt.
//
//	=== DOC SOURCES ===
//	Source 1 (doc)
//	ID: SSP.docx
//	Content: ...
//
// Rows and sections are separated by a blank line. Empty groups are
// omitted, so a context with no rows renders as "".
func RenderContext(m *domain.MergedContext) string {
	sections := make([]string, 0, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		rows := m.Group(t)
		if len(rows) == 0 {
			continue
		}

		entries := make([]string, len(rows))
		for i := range rows {
			entries[i] = fmt.Sprintf("Source %d (%s)\nID: %s\nContent: %s",
				i+1, t.Label(), rows[i].SourceID, rows[i].Content)
		}
		sections = append(sections, t.Heading()+"\n"+strings.Join(entries, "\n\n"))
	}
	return strings.Join(sections, "\n\n")
}
