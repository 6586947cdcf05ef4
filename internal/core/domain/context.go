package domain

// MergedContext groups retrieval results by source type for a single query.
type MergedContext struct {
	// Query is the trimmed query text.
	Query string

	// PerSource is the cap applied to each group.
	PerSource int

	// Groups holds the rows for each source type in similarity-descending order.
	Groups map[SourceType][]RetrievedRow

	// Text is the rendered context handed to the answer composer.
	Text string
}

// Group returns the rows for a source type, or nil.
func (m *MergedContext) Group(t SourceType) []RetrievedRow {
	if m == nil || m.Groups == nil {
		return nil
	}
	return m.Groups[t]
}

// Total returns the number of rows across all groups.
func (m *MergedContext) Total() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, rows := range m.Groups {
		total += len(rows)
	}
	return total
}

// IsEmpty reports whether no source returned any row.
func (m *MergedContext) IsEmpty() bool {
	return m.Total() == 0
}

// Answer is the composed response to a query.
type Answer struct {
	// Query is the trimmed query text.
	Query string

	// Text is the model's answer. Empty when the model produced nothing.
	Text string

	// Context is the retrieval result the answer was grounded on.
	Context *MergedContext
}
