package cmakedocs

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

// LookupArgument defines lookup parameters.
type LookupArgument struct {
	Name  string `json:"name" jsonschema_description:"Entity name to look up (e.g., add_executable, CMAKE_CXX_STANDARD). Matching is case-insensitive."`
	Plain bool   `json:"plain,omitempty" jsonschema_description:"Render for a single-line surface: flatten the synopsis and omit the usage example"`
}

// LookupHandler handles the lookup_doc MCP tool.
type LookupHandler struct {
	service *Service
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(service *Service) *LookupHandler {
	return &LookupHandler{
		service: service,
	}
}

// Handle resolves a name against the documentation table.
func (h *LookupHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args LookupArgument) (*mcp.CallToolResult, any, error) {
	// Check if service is ready
	if !h.service.IsReady() {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Lookup is not available. The documentation table is still being built. Please try again later."},
			},
			IsError: true,
		}, nil, nil
	}

	if strings.TrimSpace(args.Name) == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Name cannot be empty"},
			},
			IsError: true,
		}, nil, nil
	}

	table, err := h.service.Table()
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to access the documentation table: %s", err)},
			},
			IsError: true,
		}, nil, nil
	}

	// A miss is a normal outcome, not an error.
	entry, found := table.Lookup(args.Name)
	if !found {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("No documentation found for: %s", args.Name)},
			},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatEntry(entry, !args.Plain)},
		},
	}, nil, nil
}

// formatEntry renders a matched entry as markdown. Single-line surfaces
// get a flattened synopsis; multi-line surfaces keep line breaks and add
// the example in a fenced block.
func formatEntry(entry domain.DocEntry, multiline bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s** (%s)\n\n", entry.Key, domain.KindLabel(entry.Kind)))

	if !multiline {
		if entry.Synopsis == nil {
			sb.WriteString("No summary could be derived from the documentation source.\n")
			return sb.String()
		}
		sb.WriteString(strings.ReplaceAll(*entry.Synopsis, "\n", " "))
		sb.WriteString("\n")
		return sb.String()
	}

	wrote := false
	if entry.Synopsis != nil {
		sb.WriteString(*entry.Synopsis)
		sb.WriteString("\n")
		wrote = true
	}
	if entry.Example != nil && *entry.Example != "" {
		sb.WriteString("\n```cmake\n")
		sb.WriteString(*entry.Example)
		sb.WriteString("\n```\n")
		wrote = true
	}
	if !wrote {
		sb.WriteString("No summary could be derived from the documentation source.\n")
	}
	return sb.String()
}

// GetToolDefinition returns the MCP tool definition.
func (h *LookupHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lookup_doc",
		Description: "Look up the summary and usage example for a CMake entity (command, variable, property, policy, module) by name",
	}
}

// RegisterLookupTool registers the lookup tool with an MCP server.
func RegisterLookupTool(server *mcp.Server, service *Service) {
	handler := NewLookupHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
