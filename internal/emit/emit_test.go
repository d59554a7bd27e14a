package emit

import (
	"context"
	"strings"
	"testing"

	"mvdan.cc/sh/v3/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub019/internal/semantic"
	"github.com/paiml/bashrs-sub019/pkg/sourcemap"
)

func parseOne(t *testing.T, src string) *syntax.File {
	t.Helper()
	f, err := syntax.NewParser(syntax.KeepComments(true)).Parse(strings.NewReader(src), "t.sh")
	require.NoError(t, err)
	return f
}

func TestEmit_Deterministic(t *testing.T) {
	file := parseOne(t, "mkdir -p /tmp/foo\nrm -f /tmp/bar\n")
	out1, err := Emit(context.Background(), file, Options{Target: TargetBash})
	require.NoError(t, err)
	out2, err := Emit(context.Background(), file, Options{Target: TargetBash})
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestEmit_PreservesComments(t *testing.T) {
	file := parseOne(t, "# a comment\necho hi\n")
	out, err := Emit(context.Background(), file, Options{Target: TargetBash})
	require.NoError(t, err)
	assert.Contains(t, out, "a comment")
}

func TestEmit_PosixRejectsBashOnly(t *testing.T) {
	src := "[[ -f foo ]] && echo yes\n"
	file := parseOne(t, src)
	sm := sourcemap.New(src)
	sem := semantic.Analyze(context.Background(), "t.sh", sm, file)
	_, err := Emit(context.Background(), file, Options{Target: TargetPOSIX, SM: sm, Fingerprint: sem.Fingerprint})
	require.Error(t, err)
}
