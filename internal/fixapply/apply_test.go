package fixapply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub019/internal/cerr"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

func TestApply_NoFixes(t *testing.T) {
	out, applied, err := Apply("echo hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo hi", out)
	assert.Nil(t, applied)
}

func TestApply_SingleFix(t *testing.T) {
	src := `X=$(echo foo)`
	fixes := []diag.Fix{{
		Span:        diag.Span{Lo: 2, Hi: 13},
		Replacement: "foo",
	}}
	out, applied, err := Apply(src, fixes)
	require.NoError(t, err)
	assert.Equal(t, "X=foo", out)
	require.Len(t, applied, 1)
	assert.Equal(t, 2, applied[0].NewSpan.Lo)
	assert.Equal(t, 5, applied[0].NewSpan.Hi)
}

func TestApply_MultipleNonOverlappingFixesRightToLeftSafe(t *testing.T) {
	src := `echo $a $b`
	fixes := []diag.Fix{
		{Span: diag.Span{Lo: 8, Hi: 10}, Replacement: `"$b"`},
		{Span: diag.Span{Lo: 5, Hi: 7}, Replacement: `"$a"`},
	}
	out, _, err := Apply(src, fixes)
	require.NoError(t, err)
	assert.Equal(t, `echo "$a" "$b"`, out)
}

func TestApply_OverlappingFixesRejected(t *testing.T) {
	fixes := []diag.Fix{
		{Span: diag.Span{Lo: 0, Hi: 5}, Replacement: "a"},
		{Span: diag.Span{Lo: 3, Hi: 8}, Replacement: "b"},
	}
	_, _, err := Apply("0123456789", fixes)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerr.ErrOverlap)
}

func TestApply_OutOfRangeRejected(t *testing.T) {
	fixes := []diag.Fix{{Span: diag.Span{Lo: 0, Hi: 100}, Replacement: "x"}}
	_, _, err := Apply("short", fixes)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerr.ErrOutOfRange)
}

func TestAllFixes_Flattens(t *testing.T) {
	ds := []diag.Diagnostic{
		{Code: "A", Fixes: []diag.Fix{{Replacement: "1"}, {Replacement: "2"}}},
		{Code: "B"},
		{Code: "C", Fixes: []diag.Fix{{Replacement: "3"}}},
	}
	got := AllFixes(ds)
	assert.Len(t, got, 3)
}
