package domain

import "time"

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Chunks counts upserted chunks per source type.
	Chunks map[SourceType]int

	// Batches is the number of embed-then-upsert flushes.
	Batches int

	StartedAt time.Time
	EndedAt   time.Time
}

// NewIngestReport returns a report with every source type zeroed.
func NewIngestReport(started time.Time) *IngestReport {
	chunks := make(map[SourceType]int, len(SourceTypes))
	for _, t := range SourceTypes {
		chunks[t] = 0
	}
	return &IngestReport{Chunks: chunks, StartedAt: started}
}

// Total returns the number of chunks upserted across all sources.
func (r *IngestReport) Total() int {
	total := 0
	for _, n := range r.Chunks {
		total += n
	}
	return total
}
