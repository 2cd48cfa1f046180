package cmakedocs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandExecutor abstracts command execution so tests can run the sync
// logic without a git binary or network access.
type CommandExecutor interface {
	// Run executes a command in dir and returns its stdout.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// DefaultExecutor executes commands using os/exec.
type DefaultExecutor struct{}

// Run executes a command and returns its stdout. Stderr is folded into
// the error on failure.
func (e *DefaultExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

// GitClient runs the git commands that keep the upstream documentation
// checkout current. The checkout stays shallow; only the tip of the
// default branch is ever needed to build the table.
type GitClient struct {
	executor CommandExecutor
}

// NewGitClient creates a GitClient with the default command executor.
func NewGitClient() *GitClient {
	return &GitClient{
		executor: &DefaultExecutor{},
	}
}

// NewGitClientWithExecutor creates a GitClient with a custom executor (for testing).
func NewGitClientWithExecutor(executor CommandExecutor) *GitClient {
	return &GitClient{
		executor: executor,
	}
}

// Clone performs a shallow, single-branch clone of the docs repository.
func (g *GitClient) Clone(ctx context.Context, url, destDir string) error {
	_, err := g.executor.Run(ctx, "", "git", "clone",
		"--depth", "1",
		"--single-branch",
		url,
		destDir,
	)
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}
	return nil
}

// Fetch fetches the latest upstream tip, keeping the clone shallow.
func (g *GitClient) Fetch(ctx context.Context, repoDir string) error {
	_, err := g.executor.Run(ctx, repoDir, "git", "fetch", "--depth", "1")
	if err != nil {
		return fmt.Errorf("git fetch failed: %w", err)
	}
	return nil
}

// Reset hard-resets the working tree to origin/HEAD so the scanned files
// match the fetched tip exactly.
func (g *GitClient) Reset(ctx context.Context, repoDir string) error {
	_, err := g.executor.Run(ctx, repoDir, "git", "reset", "--hard", "origin/HEAD")
	if err != nil {
		return fmt.Errorf("git reset failed: %w", err)
	}
	return nil
}

// GetHeadCommit returns the current HEAD commit SHA. The table artifact
// records it so unchanged checkouts skip rebuilding.
func (g *GitClient) GetHeadCommit(ctx context.Context, repoDir string) (string, error) {
	output, err := g.executor.Run(ctx, repoDir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// GetChangedFiles returns the paths changed between two commits, relative
// to the repository root. The sync uses it to skip rebuilds when an
// upstream update touched nothing under the docs tree.
func (g *GitClient) GetChangedFiles(ctx context.Context, repoDir, fromCommit, toCommit string) ([]string, error) {
	output, err := g.executor.Run(ctx, repoDir, "git", "diff",
		"--name-only",
		fromCommit+".."+toCommit,
	)
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}

	return files, nil
}

// IsGitRepository reports whether dir is inside a git work tree. The sync
// clones on false and fetches on true.
func (g *GitClient) IsGitRepository(ctx context.Context, dir string) bool {
	_, err := g.executor.Run(ctx, dir, "git", "rev-parse", "--git-dir")
	return err == nil
}
