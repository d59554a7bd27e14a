package bashrs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub019/pkg/diag"
)

func TestLint_FindsSC2086(t *testing.T) {
	res, err := Lint(context.Background(), []byte("f=foo\necho $f\n"), LintOptions{Filename: "t.sh"})
	require.NoError(t, err)
	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == "SC2086" {
			found = true
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, res.RunID)
}

func TestLint_RulesDisabled(t *testing.T) {
	res, err := Lint(context.Background(), []byte("f=foo\necho $f\n"), LintOptions{
		Filename:      "t.sh",
		RulesDisabled: []string{"SC2086"},
	})
	require.NoError(t, err)
	for _, d := range res.Diagnostics {
		assert.NotEqual(t, "SC2086", d.Code)
	}
}

func TestLint_RulesEnabledAllowlist(t *testing.T) {
	src := "f=foo\necho $f\nmkdir /tmp/x\n"
	res, err := Lint(context.Background(), []byte(src), LintOptions{
		Filename:     "t.sh",
		RulesEnabled: []string{"IDEM001"},
	})
	require.NoError(t, err)
	for _, d := range res.Diagnostics {
		assert.Equal(t, "IDEM001", d.Code)
	}
}

func TestLintResult_FailExitCode(t *testing.T) {
	clean := LintResult{Summary: diag.Summary{Max: diag.Info}}
	assert.Equal(t, 0, clean.FailExitCode(diag.Warning))

	warned := LintResult{Summary: diag.Summary{Max: diag.Warning}}
	assert.Equal(t, 1, warned.FailExitCode(diag.Warning))

	errored := LintResult{Summary: diag.Summary{Max: diag.Error}}
	assert.Equal(t, 2, errored.FailExitCode(diag.Warning))

	belowThreshold := LintResult{Summary: diag.Summary{Max: diag.Note}}
	assert.Equal(t, 0, belowThreshold.FailExitCode(diag.Warning))
}

func TestPurify_RoundTripsThroughPublicAPI(t *testing.T) {
	res, err := Purify(context.Background(), []byte("mkdir /opt/app\n"), PurifyOptions{Filename: "deploy.sh"})
	require.NoError(t, err)
	assert.Contains(t, string(res.Output), "mkdir -p")
	assert.NotEmpty(t, res.RunID)
}

func TestApplyFixes_Basic(t *testing.T) {
	src := []byte("echo hi\n")
	out, err := ApplyFixes(src, []diag.Fix{{
		Span:        diag.Span{Lo: 5, Hi: 7},
		Replacement: "bye",
	}})
	require.NoError(t, err)
	assert.Equal(t, "echo bye\n", string(out))
}

func TestParse_ReturnsAst(t *testing.T) {
	ast, err := Parse(context.Background(), []byte("echo hi\n"), "t.sh")
	require.NoError(t, err)
	require.Len(t, ast.Stmts, 1)
}

func TestLintFiles_ParallelFanOut(t *testing.T) {
	files := []File{
		{Name: "a.sh", Source: []byte("f=foo\necho $f\n")},
		{Name: "b.sh", Source: []byte("echo clean\n")},
	}
	results := LintFiles(context.Background(), files, LintOptions{}, 2)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.NotNil(t, r.Result)
	}
}

func TestPurifyFiles_ParallelFanOut(t *testing.T) {
	files := []File{
		{Name: "a.sh", Source: []byte("mkdir /tmp/a\n")},
		{Name: "b.sh", Source: []byte("mkdir /tmp/b\n")},
	}
	results := PurifyFiles(context.Background(), files, PurifyOptions{}, 0)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Contains(t, string(r.Result.Output), "-p")
	}
}

func TestLintResult_RenderingFormats(t *testing.T) {
	res, err := Lint(context.Background(), []byte("f=foo\necho $f\n"), LintOptions{Filename: "t.sh"})
	require.NoError(t, err)

	j, err := res.ToJSON("t.sh")
	require.NoError(t, err)
	assert.Contains(t, string(j), "SC2086")

	y, err := res.ToYAML("t.sh")
	require.NoError(t, err)
	assert.Contains(t, string(y), "SC2086")

	s, err := res.ToSARIF("t.sh")
	require.NoError(t, err)
	assert.Contains(t, string(s), "\"ruleId\": \"SC2086\"")

	h := res.ToHuman("t.sh")
	assert.Contains(t, h, "t.sh:")
	assert.Contains(t, h, "SC2086")
}
