package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_String(t *testing.T) {
	cases := map[Severity]string{Info: "info", Note: "note", Warning: "warning", Error: "error"}
	for sev, want := range cases {
		assert.Equal(t, want, sev.String())
	}
}

func TestSpan_Overlaps(t *testing.T) {
	a := Span{Lo: 0, Hi: 10}
	assert.True(t, a.Overlaps(Span{Lo: 5, Hi: 15}))
	assert.True(t, a.Overlaps(Span{Lo: 0, Hi: 10}))
	assert.False(t, a.Overlaps(Span{Lo: 10, Hi: 20}))
	assert.False(t, a.Overlaps(Span{Lo: 20, Hi: 30}))
}

func TestSpan_Zero(t *testing.T) {
	assert.True(t, Span{Lo: 5, Hi: 5}.Zero())
	assert.False(t, Span{Lo: 5, Hi: 6}.Zero())
}

func TestSort_OrdersByLoThenHiThenCode(t *testing.T) {
	ds := []Diagnostic{
		{Code: "SC2046", Span: Span{Lo: 5, Hi: 8}},
		{Code: "SC2086", Span: Span{Lo: 5, Hi: 8}},
		{Code: "IDEM001", Span: Span{Lo: 0, Hi: 3}},
		{Code: "DET001", Span: Span{Lo: 0, Hi: 10}},
	}
	Sort(ds)
	got := make([]string, len(ds))
	for i, d := range ds {
		got[i] = d.Code
	}
	assert.Equal(t, []string{"IDEM001", "DET001", "SC2046", "SC2086"}, got)
}

func TestSummarize_CountsBySeverityAndTracksMax(t *testing.T) {
	ds := []Diagnostic{
		{Severity: Error},
		{Severity: Warning},
		{Severity: Warning},
		{Severity: Note},
		{Severity: Info},
	}
	sum := Summarize(ds)
	assert.Equal(t, Summary{Errors: 1, Warnings: 2, Notes: 1, Infos: 1, Max: Error}, sum)
}

func TestSummarize_EmptyYieldsZeroSummary(t *testing.T) {
	assert.Equal(t, Summary{Max: Info}, Summarize(nil))
}

func TestMerge_ConcatenatesAndSorts(t *testing.T) {
	a := []Diagnostic{{Code: "B", Span: Span{Lo: 10, Hi: 12}}}
	b := []Diagnostic{{Code: "A", Span: Span{Lo: 0, Hi: 2}}}
	merged := Merge(a, b)
	assert.Equal(t, "A", merged[0].Code)
	assert.Equal(t, "B", merged[1].Code)
}
