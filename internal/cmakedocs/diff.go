package cmakedocs

import (
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffArtifacts returns a unified diff of the rendered entries of two
// artifacts, for reviewing how a regeneration changed the table. Either
// side may be nil, which diffs against an empty table.
func DiffArtifacts(before, after *TableArtifact) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(renderForDiff(before)),
		B:        difflib.SplitLines(renderForDiff(after)),
		FromFile: diffLabel(before),
		ToFile:   diffLabel(after),
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func diffLabel(a *TableArtifact) string {
	if a == nil {
		return "table.json (none)"
	}
	return "table.json " + a.GeneratedAt.UTC().Format(time.RFC3339)
}

// renderForDiff flattens an artifact into a stable line-oriented text
// form, one block per entry, so unified diffs stay readable.
func renderForDiff(a *TableArtifact) string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	for _, entry := range a.Entries {
		b.WriteString(entry.Kind)
		b.WriteString("/")
		b.WriteString(entry.Key)
		b.WriteString("\n")
		if entry.Synopsis != nil {
			b.WriteString("  synopsis: ")
			b.WriteString(strings.ReplaceAll(*entry.Synopsis, "\n", " "))
			b.WriteString("\n")
		}
		if entry.Example != nil {
			b.WriteString("  example:\n")
			for _, line := range strings.Split(*entry.Example, "\n") {
				b.WriteString("    ")
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
