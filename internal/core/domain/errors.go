package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Entry points surface it as a client error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuery indicates a query that is empty after trimming.
	ErrEmptyQuery = fmt.Errorf("%w: missing query", ErrInvalidInput)

	// ErrUpstream indicates the embedding or chat-completion service failed.
	ErrUpstream = errors.New("upstream service error")

	// ErrDataSource indicates a source (document, report, table) could not be read.
	ErrDataSource = errors.New("data source error")

	// ErrStore indicates a vector store operation failed.
	ErrStore = errors.New("store error")

	// ErrDimensionMismatch indicates an embedding whose length differs from the
	// dimensionality already held by the store.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrStore)

	// ErrIngestionInProgress indicates another ingestion run holds the lease.
	ErrIngestionInProgress = errors.New("ingestion in progress")

	// ErrExtractionFailed indicates no extractor could turn a document into text.
	ErrExtractionFailed = errors.New("extraction failed")
)

// UpstreamError carries the status and body returned by a failing upstream
// service. A StatusCode of 0 means the request never produced a response
// (transport failure or timeout) and Err holds the cause.
type UpstreamError struct {
	// Service names the upstream call, e.g. "openai embeddings".
	Service string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Body is the raw response body.
	Body string

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

// Unwrap exposes both ErrUpstream and the transport cause to errors.Is.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// IsClientError reports whether err should be surfaced as a 4xx-equivalent.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
