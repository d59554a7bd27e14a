package astutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/pkg/sourcemap"
)

func parse(t *testing.T, src string) *syntax.File {
	t.Helper()
	f, err := syntax.NewParser().Parse(strings.NewReader(src), "t.sh")
	require.NoError(t, err)
	return f
}

func TestClassify_CommandNameAndArg(t *testing.T) {
	f := parse(t, "echo $foo\n")
	c := Classify(f)
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.Equal(t, CommandName, c.ContextOf(&call.Args[0]))
	assert.Equal(t, CommandArg, c.ContextOf(&call.Args[1]))
}

func TestClassify_AssignRHS(t *testing.T) {
	f := parse(t, "x=$foo\n")
	c := Classify(f)
	assign := f.Stmts[0].Assigns[0]
	assert.Equal(t, AssignRHS, c.ContextOf(&assign.Value))
}

func TestClassify_ForLoopWordsAreCommandArg(t *testing.T) {
	f := parse(t, "for f in *.txt; do echo \"$f\"; done\n")
	c := Classify(f)
	loop := f.Stmts[0].Cmd.(*syntax.ForClause)
	wi := loop.Loop.(*syntax.WordIter)
	assert.Equal(t, CommandArg, c.ContextOf(&wi.List[0]))
}

func TestClassify_CasePattern(t *testing.T) {
	f := parse(t, "case $x in a) echo a;; esac\n")
	c := Classify(f)
	cc := f.Stmts[0].Cmd.(*syntax.CaseClause)
	assert.Equal(t, CasePattern, c.ContextOf(&cc.List[0].Patterns[0]))
}

func TestClassify_ContextOfNilIsUnknown(t *testing.T) {
	var c *Classification
	assert.Equal(t, Unknown, c.ContextOf(nil))
}

func TestSpanOf_ResolvesAgainstSourceMap(t *testing.T) {
	src := "echo hi\n"
	f := parse(t, src)
	sm := sourcemap.New(src)
	span := SpanOf("t.sh", sm, f.Stmts[0])
	assert.Equal(t, 0, span.Lo)
	assert.Equal(t, 1, span.StartLn)
	assert.Equal(t, 1, span.StartCol)
}

func TestWordText_ExactSlice(t *testing.T) {
	src := "echo hello\n"
	f := parse(t, src)
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.Equal(t, "hello", WordText(src, &call.Args[1]))
}

func TestWordTextLit_OnlySingleLiteral(t *testing.T) {
	f := parse(t, "mkdir foo\n")
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.Equal(t, "mkdir", WordTextLit(&call.Args[0]))

	f2 := parse(t, "echo $foo\n")
	call2 := f2.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.Equal(t, "", WordTextLit(&call2.Args[1]))
}

func TestVisit_WalksEveryStatement(t *testing.T) {
	f := parse(t, "echo a; echo b\n")
	var names []string
	Visit(f, func(n syntax.Node) bool {
		if call, ok := n.(*syntax.CallExpr); ok {
			names = append(names, WordTextLit(&call.Args[0]))
		}
		return true
	}, nil)
	assert.Equal(t, []string{"echo", "echo"}, names)
}

func TestUnquotedExpansions_SkipsDoubleQuoted(t *testing.T) {
	f := parse(t, "echo $foo \"$bar\"\n")
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.Len(t, UnquotedExpansions(&call.Args[1]), 1)
	assert.Len(t, UnquotedExpansions(&call.Args[2]), 0)
}

func TestIsWhollyQuoted(t *testing.T) {
	f := parse(t, "echo \"$foo\" $bar\n")
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.True(t, IsWhollyQuoted(&call.Args[1]))
	assert.False(t, IsWhollyQuoted(&call.Args[2]))
}

func TestHasGlobMeta(t *testing.T) {
	f := parse(t, "echo *.txt plain\n")
	call := f.Stmts[0].Cmd.(*syntax.CallExpr)
	assert.True(t, HasGlobMeta(&call.Args[1]))
	assert.False(t, HasGlobMeta(&call.Args[2]))
}

func TestSoleCallExpr_BareCommandSubstitution(t *testing.T) {
	f := parse(t, "x=$(echo hi)\n")
	assign := f.Stmts[0].Assigns[0]
	cs, ok := SingleBacktickOrParenCmdSubst(&assign.Value)
	require.True(t, ok)
	call, ok := SoleCallExpr(cs)
	require.True(t, ok)
	assert.Equal(t, "echo", WordTextLit(&call.Args[0]))
}

func TestSoleCallExpr_RejectsPipeline(t *testing.T) {
	f := parse(t, "x=$(echo hi | cat)\n")
	assign := f.Stmts[0].Assigns[0]
	cs, ok := SingleBacktickOrParenCmdSubst(&assign.Value)
	require.True(t, ok)
	_, ok = SoleCallExpr(cs)
	assert.False(t, ok)
}
