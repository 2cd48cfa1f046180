package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/taleks/mcp-cmake-docs-server/internal/cmakedocs"
	"github.com/taleks/mcp-cmake-docs-server/internal/config"
)

// NewLookupCommand returns the lookup subcommand, which resolves one
// name against the documentation table and prints its rendering.
// It exits non-zero when the name is unknown.
func NewLookupCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:          "lookup NAME",
		Short:        "Print the documentation for one CMake name",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, args[0], plain)
		},
	}

	RegisterDocsFlags(cmd.Flags())
	cmd.Flags().StringP("log-level", "l", "", "Log level: debug, info, warn, or error")
	cmd.Flags().BoolVar(&plain, "plain", false, "Render on a single line without the example block")

	return cmd
}

func runLookup(cmd *cobra.Command, name string, plain bool) error {
	settings, err := config.LoadSettingsWithFlags(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLogLevel(settings.LogLevel),
	})
	slog.SetDefault(slog.New(handler))

	svc, err := cmakedocs.NewService(&settings.Docs)
	if err != nil {
		return fmt.Errorf("failed to create docs service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close docs service", "error", err)
		}
	}()

	// Serve from the artifact on disk when one exists; build it otherwise
	if err := svc.Reload(); err != nil {
		slog.Warn("Could not load existing table, rebuilding", "error", err)
	}
	if !svc.IsReady() {
		if err := svc.Initialize(cmd.Context()); err != nil {
			return fmt.Errorf("failed to build documentation table: %w", err)
		}
	}

	table, err := svc.Table()
	if err != nil {
		return err
	}

	rendered, ok := table.Render(name, !plain)
	if !ok {
		return fmt.Errorf("no documentation found for %q", name)
	}

	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}
