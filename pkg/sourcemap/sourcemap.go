// Package sourcemap indexes a source buffer so that byte offsets can be
// resolved to 1-based line/column positions, and so that callers can
// extract snippets of source text for diagnostic rendering. There is no
// lookup from a line/column position back to an offset.
package sourcemap

import (
	"fmt"
	"sort"
	"strings"
)

// Position is a 1-based line/column pair resolved from a byte offset.
type Position struct {
	Line int
	Col  int
}

// Map is an immutable index over a source buffer's newline offsets. It is
// built once per run and shared by reference; all downstream spans borrow
// the buffer it was built from.
type Map struct {
	source       string
	lineStarts   []int // byte offset of the first byte of each line, line 0 at index 0
}

// New builds a Map over source. Construction is O(n) in len(source).
func New(source string) *Map {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Map{source: source, lineStarts: starts}
}

// Len returns the length of the indexed source buffer in bytes.
func (m *Map) Len() int { return len(m.source) }

// OffsetToPosition resolves a byte offset to a 1-based (line, column) pair
// in O(log n). offset must be in [0, len(source)]; any other value panics,
// since an out-of-range offset indicates a programmer error upstream (a
// malformed span), not a recoverable condition.
func (m *Map) OffsetToPosition(offset int) Position {
	if offset < 0 || offset > len(m.source) {
		panic(fmt.Sprintf("sourcemap: offset %d out of range [0, %d]", offset, len(m.source)))
	}
	// Find the last line start <= offset.
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	col := offset - m.lineStarts[line] + 1
	return Position{Line: line + 1, Col: col}
}

// LineText returns the text of the given 1-based line, excluding its
// trailing newline.
func (m *Map) LineText(line int) string {
	if line < 1 || line > len(m.lineStarts) {
		return ""
	}
	start := m.lineStarts[line-1]
	var end int
	if line == len(m.lineStarts) {
		end = len(m.source)
	} else {
		end = m.lineStarts[line] - 1
	}
	if end < start {
		end = start
	}
	return strings.TrimSuffix(m.source[start:end], "\r")
}

// Snippet is the source slice named by a span plus a line of context
// immediately before and after it, for human-readable diagnostic output.
type Snippet struct {
	Before string
	Text   string
	After  string
	Start  Position
	End    Position
}

// SpanSnippet extracts the snippet for the half-open byte range [lo, hi).
func (m *Map) SpanSnippet(lo, hi int) Snippet {
	start := m.OffsetToPosition(lo)
	end := m.OffsetToPosition(hi)

	var before, after string
	if start.Line > 1 {
		before = m.LineText(start.Line - 1)
	}
	if end.Line < len(m.lineStarts) {
		after = m.LineText(end.Line + 1)
	}

	return Snippet{
		Before: before,
		Text:   m.source[lo:hi],
		After:  after,
		Start:  start,
		End:    end,
	}
}
