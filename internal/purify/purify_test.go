package purify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPurify(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := Purify(context.Background(), src, opts)
	require.NoError(t, err)
	return res
}

func TestPurify_DeploymentScript(t *testing.T) {
	src := "#!/bin/bash\n" +
		"SESSION=$RANDOM\n" +
		"mkdir /opt/app\n" +
		"rm /opt/app/current\n" +
		"ln -s /opt/app/releases/$SESSION /opt/app/current\n"

	res := mustPurify(t, src, Options{})

	assert.Contains(t, res.Output, "${VERSION}")
	assert.NotContains(t, res.Output, "$RANDOM")
	assert.Contains(t, res.Output, "mkdir -p /opt/app")
	assert.Contains(t, res.Output, "rm -f /opt/app/current")
	assert.Contains(t, res.Output, "rm -f /opt/app/current && ln -sf")
	assert.NotEmpty(t, res.Transformations)
}

func TestPurify_IsIdempotentOnItsOwnOutput(t *testing.T) {
	src := "mkdir /opt/app\nrm /opt/app/current\nln -s /a /b\n"
	first := mustPurify(t, src, Options{})
	second := mustPurify(t, first.Output, Options{})
	assert.Equal(t, first.Output, second.Output)
	assert.Empty(t, second.Transformations)
}

func TestPurify_IsPure(t *testing.T) {
	src := "mkdir /opt/app\n"
	r1 := mustPurify(t, src, Options{})
	r2 := mustPurify(t, src, Options{})
	assert.Equal(t, r1.Output, r2.Output)
}

func TestPurify_UnsortedGlobSortedDeterministically(t *testing.T) {
	src := "for f in *.txt; do\n  cat \"$f\"\ndone\n"
	res := mustPurify(t, src, Options{})
	assert.Contains(t, res.Output, "sort")
	assert.Contains(t, res.Output, "printf")
}

func TestPurify_CollapsesUselessEcho(t *testing.T) {
	src := "name=$(echo hello)\n"
	res := mustPurify(t, src, Options{})
	assert.Equal(t, "name=hello\n", res.Output)
}

func TestPurify_QuotesUnquotedExpansionInCommandArg(t *testing.T) {
	src := "f=foo\ncat $f\n"
	res := mustPurify(t, src, Options{})
	assert.Contains(t, res.Output, `cat "$f"`)
}

func TestPurify_DoesNotMutateAlreadyQuotedSC2086Context(t *testing.T) {
	src := "f=foo\ncat \"$f\"\n"
	res := mustPurify(t, src, Options{})
	assert.Equal(t, src, res.Output)
	assert.Empty(t, res.Transformations)
}

func TestPurify_EvalWithExpansionIsDiagnosticOnlyNeverAutofixed(t *testing.T) {
	src := "cmd=\"rm -rf $dir\"\neval \"$cmd\"\n"
	res := mustPurify(t, src, Options{})
	assert.Equal(t, src, res.Output)
	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == "SEC001" {
			found = true
			assert.Empty(t, d.Fixes)
		}
	}
	assert.True(t, found, "expected a SEC001 diagnostic for eval with expansion")
}

func TestPurify_ShebangDowngradedWhenPosixOnly(t *testing.T) {
	src := "#!/bin/bash\necho hi\n"
	res := mustPurify(t, src, Options{})
	assert.True(t, strings.HasPrefix(res.Output, "#!/bin/sh\n"))
}

func TestPurify_ShebangKeptWhenBashOnlyConstructUsed(t *testing.T) {
	src := "#!/bin/bash\n[[ -f foo ]] && echo yes\n"
	res := mustPurify(t, src, Options{})
	assert.True(t, strings.HasPrefix(res.Output, "#!/bin/bash\n"))
}

func TestPurify_CustomVersionSymbolAndIdentityTag(t *testing.T) {
	src := "echo $RANDOM $$\n"
	res := mustPurify(t, src, Options{VersionSymbol: "BUILD_ID", IdentityTag: "deploy-tag"})
	assert.Contains(t, res.Output, "${BUILD_ID}")
	assert.Contains(t, res.Output, "deploy-tag")
}

func TestPurify_TransformationExplanationsCarryUnifiedDiff(t *testing.T) {
	src := "mkdir /opt/app\n"
	res := mustPurify(t, src, Options{})
	require.NotEmpty(t, res.Transformations)
	tr := res.Transformations[0]
	assert.Equal(t, "mkdir idempotency", tr.Title)
	assert.Equal(t, Idempotency, tr.Category)
	assert.NotEmpty(t, tr.Diff)
}

func TestPurify_FatalParseErrorSkipsPurification(t *testing.T) {
	src := "if [ foo\n"
	res := mustPurify(t, src, Options{})
	assert.Equal(t, src, res.Output)
	assert.Empty(t, res.Transformations)
}
