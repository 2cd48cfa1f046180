package cmakedocs

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query      string `json:"query" jsonschema_description:"Search query (matches entity names, summaries and full documentation text)"`
	Kind       string `json:"kind,omitempty" jsonschema_description:"Filter by entity kind (e.g., command, variable, prop_tgt, policy, module)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of results, capped by the server limit"`
}

// SearchHandler handles the search_docs MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	// Check if service is ready
	if !h.service.IsReady() {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Search is not available. The documentation is still being indexed. Please try again later."},
			},
			IsError: true,
		}, nil, nil
	}

	if strings.TrimSpace(args.Query) == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Query cannot be empty"},
			},
			IsError: true,
		}, nil, nil
	}

	alias, err := h.service.GetIndexAlias()
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to access indexes: %s", err)},
			},
			IsError: true,
		}, nil, nil
	}

	searchReq := bleve.NewSearchRequest(h.buildQuery(args))
	searchReq.Size = h.resultLimit(args)
	searchReq.Fields = []string{domain.DocFieldKey, domain.DocFieldKind, domain.DocFieldPath, domain.DocFieldSynopsis}
	searchReq.Highlight = bleve.NewHighlight()
	searchReq.Highlight.AddField(domain.DocFieldBody)

	results, err := alias.Search(searchReq)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Search failed: %s", err)},
			},
			IsError: true,
		}, nil, nil
	}

	return h.formatResults(results, args.Query), nil, nil
}

// resultLimit clamps the requested result count to the configured cap.
func (h *SearchHandler) resultLimit(args SearchArgument) int {
	limit := h.service.GetSettings().MaxResults
	if args.MaxResults > 0 && args.MaxResults < limit {
		return args.MaxResults
	}
	return limit
}

// buildQuery constructs a Bleve query from search arguments. Exact name
// hits rank above summary hits, which rank above body hits.
func (h *SearchHandler) buildQuery(args SearchArgument) query.Query {
	keyQuery := bleve.NewTermQuery(args.Query)
	keyQuery.SetField(domain.DocFieldKey)
	keyQuery.SetBoost(10.0)

	synopsisQuery := bleve.NewMatchQuery(args.Query)
	synopsisQuery.SetField(domain.DocFieldSynopsis)
	synopsisQuery.SetBoost(3.0)

	bodyQuery := bleve.NewMatchQuery(args.Query)
	bodyQuery.SetField(domain.DocFieldBody)

	searchQuery := bleve.NewDisjunctionQuery(keyQuery, synopsisQuery, bodyQuery)

	if args.Kind == "" {
		return searchQuery
	}

	kindQuery := bleve.NewTermQuery(args.Kind)
	kindQuery.SetField(domain.DocFieldKind)
	return bleve.NewConjunctionQuery(searchQuery, kindQuery)
}

// formatResults formats Bleve search results for MCP response.
func (h *SearchHandler) formatResults(results *bleve.SearchResult, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("No results found for query: %s", queryStr)},
			},
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", results.Total, queryStr))

	for i, hit := range results.Hits {
		key := ""
		kind := ""
		synopsis := ""
		if val, ok := hit.Fields[domain.DocFieldKey].(string); ok {
			key = val
		}
		if val, ok := hit.Fields[domain.DocFieldKind].(string); ok {
			kind = val
		}
		if val, ok := hit.Fields[domain.DocFieldSynopsis].(string); ok {
			synopsis = val
		}

		sb.WriteString(fmt.Sprintf("### %d. %s (%s)\n", i+1, key, domain.KindLabel(kind)))
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n\n", hit.Score))

		if synopsis != "" {
			sb.WriteString(strings.ReplaceAll(synopsis, "\n", " "))
			sb.WriteString("\n")
		}

		if len(hit.Fragments) > 0 {
			if fragments, ok := hit.Fragments[domain.DocFieldBody]; ok {
				sb.WriteString("```\n")
				for _, fragment := range fragments {
					sb.WriteString(fragment)
					sb.WriteString("\n")
				}
				sb.WriteString("```\n")
			}
		}

		sb.WriteString("\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", results.Total-uint64(len(results.Hits))))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_docs",
		Description: "Full-text search across CMake documentation: commands, variables, properties, policies and modules",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
