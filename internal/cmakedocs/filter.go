package cmakedocs

import (
	"fmt"

	"github.com/gobwas/glob"
)

// DefaultFilePattern matches the reStructuredText sources the Help tree
// is written in.
const DefaultFilePattern = "*.rst"

// FileFilter decides which files inside a Help section are fed to
// extraction: base names must match the include pattern and files must
// stay under the size cap.
type FileFilter struct {
	pattern     string
	include     glob.Glob
	maxFileSize int64
}

// NewFileFilter compiles pattern into a filter. The pattern matches
// against base file names, not paths. A maxFileSize of zero or less
// disables the size cap.
func NewFileFilter(pattern string, maxFileSize int64) (*FileFilter, error) {
	include, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling file pattern %q: %w", pattern, err)
	}

	return &FileFilter{
		pattern:     pattern,
		include:     include,
		maxFileSize: maxFileSize,
	}, nil
}

// Matches reports whether a base file name matches the include pattern.
func (f *FileFilter) Matches(name string) bool {
	return f.include.Match(name)
}

// WithinSizeLimit reports whether a file of the given size may be read.
func (f *FileFilter) WithinSizeLimit(size int64) bool {
	return f.maxFileSize <= 0 || size <= f.maxFileSize
}

// Pattern returns the source pattern the filter was compiled from.
func (f *FileFilter) Pattern() string {
	return f.pattern
}

// MaxFileSize returns the size cap in bytes, zero when disabled.
func (f *FileFilter) MaxFileSize() int64 {
	return f.maxFileSize
}
