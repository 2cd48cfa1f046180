package cmakedocs

import (
	"strings"
)

// ExtractDoc scans the normalized text of one Help source file and derives
// a best-effort synopsis and example block. Either result may be nil; the
// scan itself never fails. The heuristic assumes the file's load-bearing
// conventions only: a title block ending at the first blank line, prose
// starting at the first letter- or backtick-initial line, and a "::"
// literal-block introducer.
//
// The output is candidate documentation, not verified documentation; odd
// source layouts degrade to nil fields rather than errors.
func ExtractDoc(text string) (synopsis, example *string) {
	lines := strings.Split(text, "\n")

	brk := firstParagraphBreak(lines)
	if brk < 0 {
		return nil, nil
	}

	start := firstContentLine(lines, brk+1)
	if start < 0 {
		return nil, nil
	}

	// Everything from the first content line on is scanned as one text;
	// a synopsis sentence may wrap across lines.
	rest := strings.Join(lines[start:], "\n")

	searchFrom := 0
	if end := sentenceEnd(rest); end >= 0 {
		s := rest[:end]
		synopsis = &s
		searchFrom = end
	}

	if block, ok := literalBlock(rest, searchFrom); ok {
		example = &block
	}

	return synopsis, example
}

// firstParagraphBreak returns the index of the first blank line, or -1.
// Title blocks and directive preambles end at this break.
func firstParagraphBreak(lines []string) int {
	for i, line := range lines {
		if line == "" {
			return i
		}
	}
	return -1
}

// firstContentLine returns the index of the first line at or after from
// whose first character is an ASCII letter or a backtick, or -1. Directive
// lines (".. note::"), comment markers and underlines are skipped.
func firstContentLine(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if len(lines[i]) == 0 {
			continue
		}
		c := lines[i][0]
		if c == '`' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return i
		}
	}
	return -1
}

// sentenceEnd returns the byte offset just past the first sentence in text:
// the first '.', '?' or '!' plus any closing quote or backtick characters
// that follow it. Returns -1 when no terminator exists.
func sentenceEnd(text string) int {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '?', '!':
			end := i + 1
			for end < len(text) && (text[end] == '`' || text[end] == '\'' || text[end] == '"') {
				end++
			}
			return end
		}
	}
	return -1
}

// literalBlock captures the block introduced by the first "::" marker at or
// after offset from: the text between the line after the marker and the next
// paragraph break, trimmed of surrounding blank lines. The second return is
// false when no marker exists. A marker whose block trims to nothing yields
// ("", true); the marker's presence makes the example present, if empty.
func literalBlock(text string, from int) (string, bool) {
	idx := strings.Index(text[from:], "::")
	if idx < 0 {
		return "", false
	}
	marker := from + idx

	eol := strings.IndexByte(text[marker:], '\n')
	if eol < 0 {
		// Marker on the last line; there is no block to capture.
		return "", true
	}
	blockStart := marker + eol + 1

	block := text[blockStart:]
	if end := strings.Index(block, "\n\n"); end >= 0 {
		block = block[:end]
	}

	return strings.Trim(block, "\n"), true
}
