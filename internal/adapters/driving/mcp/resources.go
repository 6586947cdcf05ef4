package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "evidence-rag://"

	evidenceURI = uriScheme + "evidence-requests"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         evidenceURI,
		Name:        "evidence-requests",
		Description: "Evidence requests joined with their control and audit",
		MIMEType:    "application/json",
	}, s.handleEvidenceResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: evidenceURI + "/{id}",
		Name:        "evidence-request",
		Description: "A single evidence request by id",
		MIMEType:    "application/json",
	}, s.handleEvidenceRowResource)
}

// handleEvidenceResource returns every evidence-request row up to the service cap.
func (s *Server) handleEvidenceResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Evidence == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	rows, err := s.ports.Evidence.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing evidence requests: %w", err)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling evidence requests: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleEvidenceRowResource returns one evidence-request row.
func (s *Server) handleEvidenceRowResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Evidence == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractEvidenceID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rows, err := s.ports.Evidence.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing evidence requests: %w", err)
	}

	for _, row := range rows {
		if row.ID() != id {
			continue
		}
		data, err := json.MarshalIndent(row, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling evidence request: %w", err)
		}
		return jsonResult(req.Params.URI, string(data)), nil
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractEvidenceID extracts the id from a URI like evidence-rag://evidence-requests/{id}.
func extractEvidenceID(uri string) string {
	const prefix = evidenceURI + "/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
