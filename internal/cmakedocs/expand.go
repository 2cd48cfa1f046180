package cmakedocs

import (
	"strings"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

// placeholder is the file-name segment substituted per target language.
const placeholder = "_LANG_"

// Expand turns one extracted entry into its final records. An entry whose
// key matches <PREFIX>_LANG_<SUFFIX>, with the first placeholder flanked by
// non-empty runs of uppercase letters and underscores, yields one record
// per known language with the placeholder replaced by the language name.
// Synopsis, example, kind and path carry over unchanged; only the key
// differs. Any other key yields the entry itself, untouched.
//
// Records are emitted in the fixed language order so repeated runs produce
// identical tables.
func Expand(entry domain.DocEntry) []domain.DocEntry {
	idx := strings.Index(entry.Key, placeholder)
	if idx < 0 {
		return []domain.DocEntry{entry}
	}

	prefix := entry.Key[:idx]
	suffix := entry.Key[idx+len(placeholder):]
	if !isTemplateRun(prefix) || !isTemplateRun(suffix) {
		return []domain.DocEntry{entry}
	}

	out := make([]domain.DocEntry, 0, len(knownLanguages))
	for _, lang := range knownLanguages {
		expanded := entry
		expanded.Key = prefix + "_" + lang + "_" + suffix
		out = append(out, expanded)
	}
	return out
}

// isTemplateRun reports whether s is a non-empty run of uppercase ASCII
// letters and underscores, the shape required on both sides of _LANG_.
func isTemplateRun(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
