package cmakedocs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/taleks/mcp-cmake-docs-server/internal/config"
)

const (
	// LockFilename is the name of the build lock file
	LockFilename = "build.lock"

	// helpSubtree is the checkout path prefix holding the doc sources
	helpSubtree = "Help/"
)

// RefreshResult summarizes one rebuild attempt.
type RefreshResult struct {
	// Artifact is the freshly generated table, nil when Skipped.
	Artifact *TableArtifact

	// Previous is the artifact that was on disk before the rebuild, if any.
	Previous *TableArtifact

	// Skipped reports that the existing table was already up to date.
	Skipped bool

	// Failures counts doc sources that could not be read.
	Failures int
}

// Service coordinates source sync, table generation, indexing, and lookup.
type Service struct {
	settings *config.DocsSettings
	git      *GitClient
	indexer  *Indexer
	filter   *FileFilter
	lock     *BuildLock

	// OnProgress, when set before a rebuild, receives per-file progress.
	OnProgress func(done, total int)

	artifact *TableArtifact
	table    *Table
	alias    bleve.IndexAlias
	ready    bool
	mu       sync.RWMutex
}

// NewService creates a new docs service.
func NewService(settings *config.DocsSettings) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	// Ensure base directory exists
	if err := os.MkdirAll(settings.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	// Create indexes directory
	indexesDir := filepath.Join(settings.BaseDir, "indexes")
	if err := os.MkdirAll(indexesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create indexes directory: %w", err)
	}

	// In git mode the checkout lives under the base dir
	if settings.SourceDir == "" {
		checkoutDir := filepath.Join(settings.BaseDir, "checkout")
		if err := os.MkdirAll(checkoutDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create checkout directory: %w", err)
		}
	}

	filter, err := NewFileFilter(settings.FilePattern, settings.MaxFileSize)
	if err != nil {
		return nil, err
	}

	return &Service{
		settings: settings,
		git:      NewGitClient(),
		indexer:  NewIndexer(settings.BaseDir),
		filter:   filter,
		lock:     NewBuildLock(filepath.Join(settings.BaseDir, LockFilename)),
	}, nil
}

// Initialize prepares the service with leader/follower build logic. One
// instance acquires the build lock and regenerates the table; concurrent
// instances wait and then load whatever the leader produced.
func (s *Service) Initialize(ctx context.Context) error {
	acquired, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		slog.Info("Acquired build leader lock, refreshing docs")
		if _, err := s.Refresh(ctx); err != nil {
			// Keep serving the previous table if one exists
			slog.Error("Docs refresh failed", "error", err)
		}
		if err := s.lock.Unlock(); err != nil {
			slog.Error("Failed to unlock", "error", err)
		}
	} else {
		slog.Info("Another instance is building, waiting for completion")
		if err := s.lock.LockWithContext(ctx, s.settings.SyncTimeout); err != nil {
			slog.Warn("Timeout waiting for build, using existing table", "error", err)
		} else {
			if err := s.lock.Unlock(); err != nil {
				slog.Error("Failed to unlock", "error", err)
			}
		}
	}

	return s.Reload()
}

// Refresh regenerates the table artifact and the per-kind indexes from the
// configured source. Callers coordinate concurrent builds via the build
// lock; Refresh itself does not take it.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	previous, err := LoadArtifact(s.ArtifactPath())
	if err != nil {
		slog.Warn("Ignoring unreadable previous artifact", "error", err)
		previous = nil
	}

	source, root, skip, err := s.resolveSource(ctx, previous)
	if err != nil {
		return nil, err
	}
	if skip {
		slog.Info("Docs already up to date", "commit", previous.Source.Commit)
		return &RefreshResult{Previous: previous, Skipped: true}, nil
	}

	pipeline := NewPipeline(root, s.settings.Sections, s.filter)
	pipeline.OnProgress = s.OnProgress

	result, err := pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}

	artifact := NewArtifact(source, result)
	if err := artifact.Save(s.ArtifactPath()); err != nil {
		return nil, err
	}

	kinds, err := s.indexer.RebuildAll(result.Documents)
	if err != nil {
		return nil, err
	}
	slog.Info("Docs refresh complete",
		"build_id", artifact.BuildID,
		"records", len(artifact.Entries),
		"indexes", len(kinds),
		"failures", result.Failures)

	return &RefreshResult{
		Artifact: artifact,
		Previous: previous,
		Failures: result.Failures,
	}, nil
}

// resolveSource prepares the docs root to scan. In git mode it syncs the
// checkout first and reports whether the previous artifact already covers
// the current upstream state.
func (s *Service) resolveSource(ctx context.Context, previous *TableArtifact) (SourceInfo, string, bool, error) {
	if s.settings.SourceDir != "" {
		root := ResolveDocsRoot(s.settings.SourceDir)
		return SourceInfo{Dir: root}, root, false, nil
	}

	checkoutDir := s.CheckoutDir()

	if s.git.IsGitRepository(ctx, checkoutDir) {
		slog.Info("Fetching docs repository updates", "url", s.settings.GitURL)
		if err := s.git.Fetch(ctx, checkoutDir); err != nil {
			return SourceInfo{}, "", false, fmt.Errorf("fetch failed: %w", err)
		}
		if err := s.git.Reset(ctx, checkoutDir); err != nil {
			return SourceInfo{}, "", false, fmt.Errorf("reset failed: %w", err)
		}
	} else {
		slog.Info("Cloning docs repository", "url", s.settings.GitURL)
		if err := s.git.Clone(ctx, s.settings.GitURL, checkoutDir); err != nil {
			return SourceInfo{}, "", false, fmt.Errorf("clone failed: %w", err)
		}
	}

	commit, err := s.git.GetHeadCommit(ctx, checkoutDir)
	if err != nil {
		return SourceInfo{}, "", false, fmt.Errorf("failed to get HEAD commit: %w", err)
	}

	source := SourceInfo{GitURL: s.settings.GitURL, Commit: commit}

	if previous != nil && previous.Source.GitURL == s.settings.GitURL && previous.Source.Commit != "" {
		if previous.Source.Commit == commit {
			if s.indexesIntact() {
				return source, "", true, nil
			}
			slog.Info("Table is current but indexes are missing, rebuilding", "commit", commit)
		} else {
			// A new commit that touches nothing under the docs subtree does
			// not invalidate the table either.
			changed, err := s.git.GetChangedFiles(ctx, checkoutDir, previous.Source.Commit, commit)
			if err == nil && !touchesDocs(changed) && s.indexesIntact() {
				slog.Info("Upstream change does not touch docs", "from", previous.Source.Commit, "to", commit)
				return source, "", true, nil
			}
		}
	}

	return source, ResolveDocsRoot(checkoutDir), false, nil
}

// indexesIntact reports whether at least one on-disk index exists, so a
// skipped rebuild still leaves something to serve.
func (s *Service) indexesIntact() bool {
	kinds, err := s.indexer.ListIndexes()
	return err == nil && len(kinds) > 0
}

func touchesDocs(changedFiles []string) bool {
	for _, f := range changedFiles {
		if strings.HasPrefix(f, helpSubtree) {
			return true
		}
	}
	return false
}

// Reload loads the artifact from disk and reopens the indexes read-only.
func (s *Service) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact, err := LoadArtifact(s.ArtifactPath())
	if err != nil {
		return err
	}

	if s.alias != nil {
		if err := s.alias.Close(); err != nil {
			slog.Error("Failed to close previous index alias", "error", err)
		}
		s.alias = nil
	}

	if artifact == nil {
		slog.Warn("No table artifact available, docs lookup disabled until a build completes")
		s.artifact = nil
		s.table = nil
		s.ready = false
		return nil
	}

	s.artifact = artifact
	s.table = artifact.Table()

	kinds, err := s.indexer.ListIndexes()
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		slog.Warn("No indexes available, search disabled")
	} else {
		alias, err := s.indexer.CreateAlias(kinds)
		if err != nil {
			return fmt.Errorf("failed to create index alias: %w", err)
		}
		s.alias = alias
	}

	s.ready = true
	slog.Info("Docs table ready", "build_id", artifact.BuildID, "records", len(artifact.Entries), "indexes", len(kinds))
	return nil
}

// StartPeriodicRefresh re-checks the upstream repository every sync
// interval until ctx is cancelled. It is a no-op for local source dirs,
// which are covered by the file watcher instead.
func (s *Service) StartPeriodicRefresh(ctx context.Context) {
	if s.settings.SourceDir != "" {
		return
	}

	go func() {
		ticker := time.NewTicker(s.settings.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.periodicRefresh(ctx)
			}
		}
	}()
}

func (s *Service) periodicRefresh(ctx context.Context) {
	// Skip when another instance rebuilt recently enough.
	previous, err := LoadArtifact(s.ArtifactPath())
	if err == nil && previous != nil && !previous.NeedsSyncCheck(s.settings.SyncInterval) {
		return
	}
	s.TryRefresh(ctx)
}

// TryRefresh runs one refresh-and-reload cycle if the build lock is free.
// It returns false when another instance holds the lock; refresh errors
// are logged, not returned, since the previous table keeps serving.
func (s *Service) TryRefresh(ctx context.Context) bool {
	acquired, err := s.lock.TryLock()
	if err != nil {
		slog.Error("Failed to acquire build lock", "error", err)
		return false
	}
	if !acquired {
		slog.Debug("Another instance is building, skipping refresh")
		return false
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			slog.Error("Failed to unlock", "error", err)
		}
	}()

	result, err := s.Refresh(ctx)
	if err != nil {
		slog.Error("Docs refresh failed", "error", err)
		return true
	}
	if result.Skipped {
		return true
	}
	if err := s.Reload(); err != nil {
		slog.Error("Failed to reload after refresh", "error", err)
	}
	return true
}

// IsReady returns true if the table is loaded and lookups can be served.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Table returns the current lookup table.
func (s *Service) Table() (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.table == nil {
		return nil, fmt.Errorf("docs table not ready")
	}
	return s.table, nil
}

// GetIndexAlias returns the combined index for searching.
func (s *Service) GetIndexAlias() (bleve.IndexAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.alias == nil {
		return nil, fmt.Errorf("indexes not ready")
	}
	return s.alias, nil
}

// Artifact returns the currently loaded artifact, or nil before the first
// successful load.
func (s *Service) Artifact() *TableArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact
}

// CheckoutDir returns the git checkout directory.
func (s *Service) CheckoutDir() string {
	return filepath.Join(s.settings.BaseDir, "checkout")
}

// ArtifactPath returns the table artifact path.
func (s *Service) ArtifactPath() string {
	return filepath.Join(s.settings.BaseDir, ArtifactFilename)
}

// GetSettings returns the service settings.
func (s *Service) GetSettings() *config.DocsSettings {
	return s.settings
}

// SetGitClient allows injecting a custom git client for testing.
func (s *Service) SetGitClient(client *GitClient) {
	s.git = client
}

// Close releases all resources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alias != nil {
		if err := s.alias.Close(); err != nil {
			return fmt.Errorf("failed to close alias: %w", err)
		}
		s.alias = nil
	}

	s.ready = false
	return nil
}
