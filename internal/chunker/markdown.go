package chunker

import (
	"strings"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// section is a run of markdown content under one heading path.
type section struct {
	headers []string
	text    string
}

// ChunkMarkdown splits markdown text on heading boundaries, tracking the
// active heading path (H1..H6) per chunk, then applies the size/overlap
// algorithm within each section. A section larger than the chunk size is
// itself chunked, inheriting the same heading path.
func ChunkMarkdown(text string, opts Options) []domain.TextChunk {
	opts = opts.normalise()
	if text == "" {
		return nil
	}

	var chunks []domain.TextChunk
	for _, sec := range splitSections(text) {
		if sec.text == "" {
			continue
		}
		for _, chunk := range chunkWithHeaders(sec.text, sec.headers, opts) {
			chunk.Index = len(chunks)
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// heading is one entry on the active heading stack.
type heading struct {
	level int
	title string
}

// splitSections walks the markdown line by line, maintaining the heading
// path as a stack of seen headings. Skipped levels (an H3 directly under an
// H1, or a document starting below H1) never produce placeholder entries.
func splitSections(text string) []section {
	var (
		sections []section
		stack    []heading
		current  strings.Builder
	)

	flush := func() {
		body := strings.TrimSpace(current.String())
		current.Reset()
		if body == "" {
			return
		}
		headers := make([]string, len(stack))
		for i, h := range stack {
			headers[i] = h.title
		}
		sections = append(sections, section{headers: headers, text: body})
	}

	for _, line := range strings.Split(text, "\n") {
		level, title := parseHeading(line)
		if level == 0 {
			current.WriteString(line)
			current.WriteString("\n")
			continue
		}

		flush()

		// Pop siblings and deeper headings, then push this one.
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, heading{level: level, title: title})
	}
	flush()

	return sections
}

// parseHeading returns the heading level (1-6) and title of an ATX heading
// line, or level 0 for non-heading lines.
func parseHeading(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " ")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level:])
}
