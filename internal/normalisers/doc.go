// Package normalisers turns the three data sources into uniform chunks.
//
// Each subpackage implements driven.SourceNormaliser for one source type:
//
//   - document: an extracted SSP document split into overlapping windows
//   - report: one chunk per grype vulnerability match
//   - table: one chunk per evidence-request row
//
// Normalisers stream through Stream so a large source never has to be held
// in memory before embedding.
package normalisers
