// Package extraction groups the driven.Extractor implementations that turn
// a binary document into text for the document normaliser.
//
// The docling worker is the primary extractor. The local docx, pdf and
// plaintext extractors are the fallback, chained by package fallback so a
// missing or failing worker degrades ingestion instead of aborting it.
package extraction
