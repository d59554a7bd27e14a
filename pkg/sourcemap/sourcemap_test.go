package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetToPosition(t *testing.T) {
	m := New("abc\ndef\nghi")
	assert.Equal(t, Position{Line: 1, Col: 1}, m.OffsetToPosition(0))
	assert.Equal(t, Position{Line: 1, Col: 4}, m.OffsetToPosition(3))
	assert.Equal(t, Position{Line: 2, Col: 1}, m.OffsetToPosition(4))
	assert.Equal(t, Position{Line: 3, Col: 3}, m.OffsetToPosition(10))
	assert.Equal(t, Position{Line: 3, Col: 4}, m.OffsetToPosition(11))
}

func TestOffsetToPosition_PanicsOutOfRange(t *testing.T) {
	m := New("abc")
	assert.Panics(t, func() { m.OffsetToPosition(-1) })
	assert.Panics(t, func() { m.OffsetToPosition(4) })
}

func TestLineText(t *testing.T) {
	m := New("first\nsecond\nthird")
	assert.Equal(t, "first", m.LineText(1))
	assert.Equal(t, "second", m.LineText(2))
	assert.Equal(t, "third", m.LineText(3))
	assert.Equal(t, "", m.LineText(0))
	assert.Equal(t, "", m.LineText(4))
}

func TestLineText_TrimsCarriageReturn(t *testing.T) {
	m := New("one\r\ntwo")
	assert.Equal(t, "one", m.LineText(1))
}

func TestSpanSnippet_IncludesSurroundingLines(t *testing.T) {
	m := New("before\ntarget\nafter")
	snip := m.SpanSnippet(7, 13)
	assert.Equal(t, "before", snip.Before)
	assert.Equal(t, "target", snip.Text)
	assert.Equal(t, "after", snip.After)
	assert.Equal(t, Position{Line: 2, Col: 1}, snip.Start)
}

func TestLen(t *testing.T) {
	assert.Equal(t, 5, New("abcde").Len())
}
