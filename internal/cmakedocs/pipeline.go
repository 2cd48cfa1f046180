package cmakedocs

import (
	"context"
	"log/slog"

	"github.com/taleks/mcp-cmake-docs-server/internal/domain"
)

// SectionStats summarizes one Help section's contribution to a build.
type SectionStats struct {
	Section string `json:"section"`
	Files   int    `json:"files"`
	Records int    `json:"records"`
}

// BuildResult is the output of one pipeline run over a docs tree.
type BuildResult struct {
	// Entries are the final lookup records in emission order.
	Entries []domain.DocEntry

	// Documents are the search-index projections, one per entry, each
	// carrying the raw source text of the file it came from.
	Documents []domain.DocDocument

	// Stats lists per-section file and record counts in section order.
	Stats []SectionStats

	// Failures counts files skipped because they could not be read.
	Failures int
}

// Pipeline runs the extraction batch: scan the docs tree, read each file,
// derive a record, expand templated names and accumulate everything in a
// deterministic order. Content the heuristic cannot digest degrades to
// absent fields; only file-system failures are reported, and those skip
// the single offending file.
type Pipeline struct {
	scanner *Scanner
	root    string

	// OnProgress, when set, is called after each processed file.
	OnProgress func(done, total int)
}

// NewPipeline creates a Pipeline over the docs root for the given sections.
func NewPipeline(root string, sections []string, filter *FileFilter) *Pipeline {
	return &Pipeline{
		scanner: NewScanner(root, sections, filter),
		root:    root,
	}
}

// Run executes one batch. The context aborts the run between files.
func (p *Pipeline) Run(ctx context.Context) (*BuildResult, error) {
	files, err := p.scanner.Scan()
	if err != nil {
		return nil, err
	}

	result := &BuildResult{}
	stats := make(map[string]*SectionStats)
	order := make([]string, 0)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st, ok := stats[file.Kind]
		if !ok {
			st = &SectionStats{Section: file.Kind}
			stats[file.Kind] = st
			order = append(order, file.Kind)
		}

		raw, err := ReadDoc(p.root, file.RelPath)
		if err != nil {
			slog.Warn("Skipping unreadable doc source", "path", file.RelPath, "error", err)
			result.Failures++
			continue
		}
		if raw.BaseName == "" {
			slog.Warn("Skipping doc source with no usable name", "path", file.RelPath)
			continue
		}

		synopsis, example := ExtractDoc(raw.Text)
		records := Expand(domain.DocEntry{
			Key:      raw.BaseName,
			Kind:     file.Kind,
			Path:     raw.Path,
			Synopsis: synopsis,
			Example:  example,
		})

		result.Entries = append(result.Entries, records...)
		for _, record := range records {
			result.Documents = append(result.Documents, projectDocument(record, raw.Text))
		}

		st.Files++
		st.Records += len(records)

		if p.OnProgress != nil {
			p.OnProgress(i+1, len(files))
		}
	}

	for _, section := range order {
		result.Stats = append(result.Stats, *stats[section])
	}

	slog.Info("Doc extraction complete",
		"files", len(files), "records", len(result.Entries), "failures", result.Failures)

	return result, nil
}

// projectDocument flattens one record into its search-index form.
func projectDocument(record domain.DocEntry, body string) domain.DocDocument {
	doc := domain.DocDocument{
		ID:   record.Kind + "/" + record.Key,
		Key:  record.Key,
		Kind: record.Kind,
		Path: record.Path,
		Body: body,
	}
	if record.Synopsis != nil {
		doc.Synopsis = *record.Synopsis
	}
	if record.Example != nil {
		doc.Example = *record.Example
	}
	return doc
}
