package cmakedocs

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// SourceFile is one scannable file discovered under the docs root.
type SourceFile struct {
	// Kind is the Help section the file lives in, e.g. "command".
	Kind string

	// RelPath is the path relative to the docs root, slash-separated.
	RelPath string

	// Size is the file size in bytes.
	Size int64
}

// Scanner discovers documentation source files for the configured Help
// sections. Sections are visited in configuration order and files are
// listed name-sorted within each section, so repeated scans over the same
// tree enumerate files in the same order.
type Scanner struct {
	root     string
	sections []string
	filter   *FileFilter
}

// NewScanner creates a Scanner rooted at the docs root (the directory
// holding the section subdirectories).
func NewScanner(root string, sections []string, filter *FileFilter) *Scanner {
	return &Scanner{
		root:     root,
		sections: sections,
		filter:   filter,
	}
}

// Scan lists the matching files of every configured section. An unreadable
// docs root fails the scan; a missing section directory is logged and
// skipped, since section sets vary across documentation versions.
func (s *Scanner) Scan() ([]SourceFile, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("docs root %s: %w", s.root, err)
	}

	var files []SourceFile
	for _, section := range s.sections {
		dir := filepath.Join(s.root, section)

		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("Skipping unreadable section", "section", section, "error", err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !s.filter.Matches(entry.Name()) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				slog.Warn("Skipping unstatable file", "section", section, "file", entry.Name(), "error", err)
				continue
			}
			if !s.filter.WithinSizeLimit(info.Size()) {
				slog.Debug("Skipping oversized file", "section", section, "file", entry.Name(), "size", info.Size())
				continue
			}

			files = append(files, SourceFile{
				Kind:    section,
				RelPath: path.Join(section, entry.Name()),
				Size:    info.Size(),
			})
		}
	}

	return files, nil
}

// ResolveDocsRoot maps a configured source directory to the directory the
// section subdirectories live in. Pointing at a full CMake checkout works:
// its Help subdirectory is used when present.
func ResolveDocsRoot(dir string) string {
	help := filepath.Join(dir, "Help")
	if info, err := os.Stat(help); err == nil && info.IsDir() {
		return help
	}
	return dir
}
