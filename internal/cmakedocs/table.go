package cmakedocs

import (
	"strings"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

// Table is the assembled documentation lookup table. Keys resolve
// case-insensitively; the stored entries keep their original casing.
// A Table is immutable after construction and safe for concurrent use
// without locking.
type Table struct {
	entries []domain.DocEntry
	byKey   map[string]int
}

// NewTable builds a Table from entries in pipeline emission order.
// When two entries share a key (case-insensitively), the later one wins;
// the corpus defines a few names as both a command and a variable, and
// scan order decides which is served.
func NewTable(entries []domain.DocEntry) *Table {
	t := &Table{
		entries: make([]domain.DocEntry, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	copy(t.entries, entries)
	for i, entry := range t.entries {
		t.byKey[strings.ToLower(entry.Key)] = i
	}
	return t
}

// Lookup resolves name case-insensitively. A miss is a normal outcome,
// reported through the boolean, never an error.
func (t *Table) Lookup(name string) (domain.DocEntry, bool) {
	idx, ok := t.byKey[strings.ToLower(name)]
	if !ok {
		return domain.DocEntry{}, false
	}
	return t.entries[idx], true
}

// Render resolves name and renders the matched entry per RenderEntry.
// The boolean is false when no entry matches.
func (t *Table) Render(name string, multiline bool) (string, bool) {
	entry, ok := t.Lookup(name)
	if !ok {
		return "", false
	}
	return RenderEntry(entry, multiline), true
}

// Len returns the number of stored entries, shadowed duplicates included.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the stored entries in emission order.
func (t *Table) Entries() []domain.DocEntry {
	out := make([]domain.DocEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// RenderEntry renders one entry for a display surface. Multiline surfaces
// get the synopsis and the example joined by a line break, whichever parts
// exist. Single-line surfaces get the synopsis alone with internal line
// breaks flattened to spaces; an example block never appears without its
// synopsis. Entries with nothing to show render as the empty string.
func RenderEntry(entry domain.DocEntry, multiline bool) string {
	if multiline {
		parts := make([]string, 0, 2)
		if entry.Synopsis != nil {
			parts = append(parts, *entry.Synopsis)
		}
		if entry.Example != nil {
			parts = append(parts, *entry.Example)
		}
		return strings.Join(parts, "\n")
	}

	if entry.Synopsis == nil {
		return ""
	}
	return strings.ReplaceAll(*entry.Synopsis, "\n", " ")
}
