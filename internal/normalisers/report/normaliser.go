// Package report normalises a grype vulnerability report, one chunk per match.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
	"github.com/custodia-labs/evidence-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.SourceNormaliser = (*Normaliser)(nil)

// Normaliser reads grype JSON output.
type Normaliser struct {
	path string
}

// New creates a report normaliser for the grype file at path.
func New(path string) *Normaliser {
	return &Normaliser{path: path}
}

// SourceType returns domain.SourceReport.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceReport
}

// grypeReport is the part of grype's JSON output that is ingested.
// Matches stay generic so metadata keeps every field grype wrote.
type grypeReport struct {
	Matches []map[string]any `json:"matches"`
}

// Normalise streams one chunk per match.
func (n *Normaliser) Normalise(ctx context.Context) (<-chan domain.Chunk, <-chan error) {
	return normalisers.Stream(ctx, n.produce)
}

func (n *Normaliser) produce(ctx context.Context, emit normalisers.EmitFunc) error {
	raw, err := os.ReadFile(n.path)
	if err != nil {
		return fmt.Errorf("%w: read report: %w", domain.ErrDataSource, err)
	}

	var report grypeReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrDataSource, filepath.Base(n.path), err)
	}

	logger.Progress("Preparing %s entries...", filepath.Base(n.path))
	for i, match := range report.Matches {
		if !emit(MatchChunk(i, match)) {
			return ctx.Err()
		}
	}

	logger.Debug("report %s produced %d chunks", filepath.Base(n.path), len(report.Matches))
	return nil
}

// MatchChunk converts one grype match into its chunk. The content lists the
// non-empty finding fields in a fixed order, one per line.
func MatchChunk(index int, match map[string]any) domain.Chunk {
	vuln := object(match, "vulnerability")
	artifact := object(match, "artifact")

	id := text(vuln, "id")

	lines := []string{"Vulnerability: " + orDefault(id, "unknown")}
	lines = appendField(lines, "Severity", text(vuln, "severity"))
	lines = appendField(lines, "Description", text(vuln, "description"))
	lines = appendField(lines, "Artifact", text(artifact, "name"))
	lines = appendField(lines, "Version", text(artifact, "version"))
	lines = appendField(lines, "Type", text(artifact, "type"))

	sourceID := id
	if sourceID == "" {
		sourceID = fmt.Sprintf("match-%d", index)
	}

	return domain.Chunk{
		SourceType: domain.SourceReport,
		SourceID:   sourceID,
		ChunkIndex: 0,
		Content:    strings.Join(lines, "\n"),
		Metadata: map[string]any{
			"vulnerability": vuln,
			"artifact":      artifact,
		},
	}
}

func appendField(lines []string, label, value string) []string {
	if value == "" {
		return lines
	}
	return append(lines, label+": "+value)
}

// object returns a nested JSON object, or an empty one.
func object(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// text returns a string field, or "".
func text(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
