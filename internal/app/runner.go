package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
	"github.com/taleks/mcp-cmake-docs-server/internal/cmakedocs"
	"github.com/taleks/mcp-cmake-docs-server/internal/config"
	mcputil "github.com/taleks/mcp-cmake-docs-server/internal/mcp"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(context.Context, *mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid corrupting the
	// stdio transport on stdout
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(settings.LogLevel),
	})
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting CMake docs MCP server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	} else {
		slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
		return params.StartSSEServer(ctx, mcpServer, settings)
	}
}

// CreateMCPServer creates the MCP server with registered tools
func CreateMCPServer(settings *config.Settings) (*mcp.Server, func(), error) {
	svc, err := cmakedocs.NewService(&settings.Docs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create docs service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Build or load the table without blocking startup; the tools answer
	// "not ready" until this completes
	go func() {
		if err := svc.Initialize(ctx); err != nil {
			slog.Error("Docs initialization failed", "error", err)
		}
		svc.StartPeriodicRefresh(ctx)
	}()

	var watcher *cmakedocs.Watcher
	if settings.Docs.Watch {
		w, werr := cmakedocs.NewWatcher(svc)
		if werr != nil {
			slog.Error("Docs watcher setup failed", "error", werr)
		} else {
			watcher = w
			watcher.Start(ctx)
		}
	}

	cleanup := func() {
		cancel()
		if watcher != nil {
			watcher.Stop()
		}
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close docs service", "error", err)
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "cmake-docs-mcp",
		Version: "1.0.0",
		DocsSvc: svc,
	})

	return server, cleanup, nil
}
