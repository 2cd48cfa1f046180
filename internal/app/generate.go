package app

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/taleks/mcp-cmake-docs-server/internal/cmakedocs"
	"github.com/taleks/mcp-cmake-docs-server/internal/config"
)

// NewGenerateCommand returns the generate subcommand, which syncs the
// docs source and builds the lookup table and search indexes without
// serving anything.
func NewGenerateCommand() *cobra.Command {
	var showDiff bool
	var quiet bool

	cmd := &cobra.Command{
		Use:          "generate",
		Short:        "Build the documentation table and search indexes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, showDiff, quiet)
		},
	}

	RegisterDocsFlags(cmd.Flags())
	cmd.Flags().StringP("log-level", "l", "", "Log level: debug, info, warn, or error")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a diff against the previous table")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	return cmd
}

func runGenerate(cmd *cobra.Command, showDiff, quiet bool) error {
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

	if !quiet {
		progress := &generateProgress{out: cmd.ErrOrStderr()}
		svc.OnProgress = progress.report
	}

	lock := cmakedocs.NewBuildLock(filepath.Join(settings.Docs.BaseDir, cmakedocs.LockFilename))
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !acquired {
		slog.Info("Another process is building, waiting for it to finish")
		if err := lock.LockWithContext(cmd.Context(), settings.Docs.SyncTimeout); err != nil {
			return fmt.Errorf("failed to acquire build lock: %w", err)
		}
	}
	defer func() { _ = lock.Unlock() }()

	result, err := svc.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintln(out, "Documentation table is already up to date")
		return nil
	}

	artifact := result.Artifact
	fmt.Fprintf(out, "Built table %s: %d entries\n", artifact.BuildID, len(artifact.Entries))
	for _, st := range artifact.Stats {
		fmt.Fprintf(out, "  %-10s %4d files %5d records\n", st.Section, st.Files, st.Records)
	}
	if result.Failures > 0 {
		fmt.Fprintf(out, "  %d files could not be read\n", result.Failures)
	}

	if showDiff {
		diff, err := cmakedocs.DiffArtifacts(result.Previous, artifact)
		if err != nil {
			return fmt.Errorf("failed to diff tables: %w", err)
		}
		if diff == "" {
			fmt.Fprintln(out, "No entry changes since the previous build")
		} else {
			fmt.Fprint(out, diff)
		}
	}

	return nil
}

// generateProgress renders a progress bar over the scan phase. The bar is
// created on the first report, when the file total is first known.
type generateProgress struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	processed int
}

func (p *generateProgress) report(done, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Scanning docs"),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.out)
			}),
		)
	}
	delta := done - p.processed
	if delta > 0 {
		_ = p.bar.Add(delta)
		p.processed = done
	}
}
