// Package docling sends documents to a docling conversion worker.
package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Config holds configuration for the docling worker.
type Config struct {
	// URL is the parse endpoint (default: http://localhost:8001/parse).
	URL string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Extractor converts documents to markdown through the worker's parse
// endpoint.
type Extractor struct {
	client *http.Client
	url    string
}

// parseResponse is the worker response format.
type parseResponse struct {
	Markdown string `json:"markdown"`
	Error    string `json:"error,omitempty"`
}

// New creates a new docling extractor.
func New(cfg Config) *Extractor {
	if cfg.URL == "" {
		cfg.URL = domain.DefaultDoclingURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = domain.DefaultDoclingTimeout
	}

	return &Extractor{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		url: cfg.URL,
	}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docling"
}

// Extract uploads content as the multipart "file" field and returns the
// markdown the worker produced.
func (e *Extractor) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("docling: create form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("docling: write form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("docling: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return "", fmt.Errorf("docling: create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Service: "docling", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.UpstreamError{Service: "docling", Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.UpstreamError{
			Service:    "docling",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var parsed parseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: docling: decode response: %v", domain.ErrExtractionFailed, err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%w: docling: %s", domain.ErrExtractionFailed, parsed.Error)
	}

	return strings.TrimSpace(parsed.Markdown), nil
}
