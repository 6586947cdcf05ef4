package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the natural-language question to retrieve evidence for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"rows per source before clamping to 3..8 (default 4)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Context string                       `json:"context"`
	Sources map[string][]SourceRowOutput `json:"sources"`
	Count   int                          `json:"count"`
}

// SourceRowOutput is one retrieved row.
type SourceRowOutput struct {
	SourceID   string  `json:"source_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the evidence"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"rows per source before clamping to 3..8 (default 4)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`

	// Citations lists the source ids handed to the model, by source type.
	Citations map[string][]string `json:"citations"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the most relevant SSP passages, vulnerability findings and evidence requests for a question",
	}, s.handleRetrieve)

	if s.ports.Query != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a compliance question from the evidence sources with citations",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	merged, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Context: merged.Text,
		Sources: make(map[string][]SourceRowOutput, len(domain.SourceTypes)),
		Count:   merged.Total(),
	}
	for _, t := range domain.SourceTypes {
		group := merged.Group(t)
		rows := make([]SourceRowOutput, len(group))
		for i := range group {
			rows[i] = SourceRowOutput{
				SourceID:   group[i].SourceID,
				ChunkIndex: group[i].ChunkIndex,
				Content:    group[i].Content,
				Similarity: group[i].Similarity,
			}
		}
		output.Sources[string(t)] = rows
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:    answer.Text,
		Citations: citations(answer.Context),
	}, nil
}

// citations returns the distinct source ids per source type in rank order.
func citations(merged *domain.MergedContext) map[string][]string {
	out := make(map[string][]string, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		seen := make(map[string]bool)
		ids := []string{}
		for _, row := range merged.Group(t) {
			if !seen[row.SourceID] {
				seen[row.SourceID] = true
				ids = append(ids, row.SourceID)
			}
		}
		out[string(t)] = ids
	}
	return out
}
