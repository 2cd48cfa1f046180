package cmakedocs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

const (
	// ArtifactVersion is the current table artifact schema version.
	ArtifactVersion = 1

	// ArtifactFilename is the table artifact filename inside the base dir.
	ArtifactFilename = "table.json"
)

// SourceInfo records where an artifact's entries came from.
type SourceInfo struct {
	// Dir is the local docs directory, when one was configured.
	Dir string `json:"dir,omitempty"`

	// GitURL is the upstream repository URL, in git mode.
	GitURL string `json:"git_url,omitempty"`

	// Commit is the HEAD commit of the scanned checkout, in git mode.
	Commit string `json:"commit,omitempty"`
}

// TableArtifact is the persisted output of one pipeline run: the full
// ordered entry list plus enough provenance to decide whether a later
// run can reuse it. An artifact is written once and never mutated.
type TableArtifact struct {
	Version     int               `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	BuildID     string            `json:"build_id"`
	Source      SourceInfo        `json:"source"`
	Stats       []SectionStats    `json:"stats"`
	Entries     []domain.DocEntry `json:"entries"`
}

// NewArtifact wraps one build result into an artifact with a fresh build id.
func NewArtifact(source SourceInfo, result *BuildResult) *TableArtifact {
	return &TableArtifact{
		Version:     ArtifactVersion,
		GeneratedAt: time.Now().UTC(),
		BuildID:     uuid.NewString(),
		Source:      source,
		Stats:       result.Stats,
		Entries:     result.Entries,
	}
}

// LoadArtifact reads an artifact from disk. A missing file is not an
// error; it returns (nil, nil) meaning no build has happened yet. An
// artifact written by an incompatible schema version is rejected.
func LoadArtifact(path string) (*TableArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read table artifact: %w", err)
	}

	var artifact TableArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse table artifact: %w", err)
	}

	if artifact.Version != ArtifactVersion {
		return nil, fmt.Errorf("table artifact version %d is not supported (want %d); regenerate it",
			artifact.Version, ArtifactVersion)
	}

	return &artifact, nil
}

// Save writes the artifact to disk atomically, using the write-to-temp +
// rename pattern so readers never observe a half-written table.
func (a *TableArtifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal table artifact: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename artifact file: %w", err)
	}

	return nil
}

// Table builds the in-memory lookup table from the artifact's entries.
func (a *TableArtifact) Table() *Table {
	return NewTable(a.Entries)
}

// NeedsSyncCheck returns true if enough time has passed since generation
// that the upstream source should be checked again.
func (a *TableArtifact) NeedsSyncCheck(interval time.Duration) bool {
	if a.GeneratedAt.IsZero() {
		return true
	}
	return time.Since(a.GeneratedAt) >= interval
}
