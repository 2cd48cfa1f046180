package cmakedocs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// RawDoc is one Help source file loaded for extraction: its normalized
// text plus the base name that serves as the default record key.
type RawDoc struct {
	// BaseName is the file name without directory or extension.
	BaseName string

	// Path is the file path relative to the docs root, slash-separated.
	Path string

	// Text is the file content with normalized line endings.
	Text string
}

// ReadDoc loads one documentation source file addressed relative to the
// docs root. The text is normalized to LF line endings and valid UTF-8 so
// extraction sees a single convention regardless of checkout settings.
func ReadDoc(root, relPath string) (RawDoc, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return RawDoc{}, fmt.Errorf("reading doc source: %w", err)
	}

	return RawDoc{
		BaseName: docBaseName(relPath),
		Path:     filepath.ToSlash(relPath),
		Text:     normalizeText(string(data)),
	}, nil
}

// docBaseName strips the directory and extension from a source file path.
// Example: "command/add_executable.rst" -> "add_executable"
func docBaseName(path string) string {
	name := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// normalizeText converts CRLF and lone CR line endings to LF and replaces
// invalid UTF-8 sequences with the replacement rune.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return s
}
