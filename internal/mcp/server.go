package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taleks/mcp-cmake-docs-server/internal/cmakedocs"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string
	DocsSvc *cmakedocs.Service
}

// CreateServer creates the MCP server and registers the documentation
// tools when a docs service is provided.
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.DocsSvc != nil {
		cmakedocs.RegisterLookupTool(s, cfg.DocsSvc)
		cmakedocs.RegisterSearchTool(s, cfg.DocsSvc)
	}

	return s
}
