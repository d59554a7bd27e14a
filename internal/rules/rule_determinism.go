package rules

import (
	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// det001Rule flags any read of $RANDOM, the canonical non-deterministic
// expansion the purifier's elimination transform (spec §4.9.1) exists to
// remove.
var det001Rule = Rule{
	Code:        "DET001",
	Severity:    diag.Error,
	Description: "$RANDOM is non-deterministic",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			pe, ok := n.(*syntax.ParamExp)
			if !ok || pe.Param == nil || pe.Param.Value != "RANDOM" {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "DET001",
				Severity: diag.Error,
				Message:  "$RANDOM makes output non-deterministic across runs",
				Span:     ctx.span(pe),
			})
			return true
		}, nil)
		return out
	},
}

// dateCallName reports whether call invokes the "date" command.
func dateCallName(call *syntax.CallExpr) bool {
	return call != nil && len(call.Args) > 0 && astutil.WordTextLit(&call.Args[0]) == "date"
}

// det002Rule flags `$(date ...)`/backtick `date` inside an assignment or
// command substitution: the current wall-clock time is not reproducible
// across runs (spec §4.9.2).
var det002Rule = Rule{
	Code:        "DET002",
	Severity:    diag.Error,
	Description: "command substitution of `date` is non-deterministic",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			cs, ok := n.(*syntax.CmdSubst)
			if !ok {
				return true
			}
			call, ok := astutil.SoleCallExpr(cs)
			if !ok || !dateCallName(call) {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "DET002",
				Severity: diag.Error,
				Message:  "`date` output is non-deterministic across runs; inject the timestamp as a parameter instead",
				Span:     ctx.span(cs),
			})
			return true
		}, nil)
		return out
	},
}

// det003Rule flags a glob word used as a for-loop iteration list:
// readdir order is filesystem-dependent, so two runs over the same
// directory can iterate in different orders unless the result is
// explicitly sorted (spec §4.9.4). Globs inside command substitutions are
// not checked.
var det003Rule = Rule{
	Code:        "DET003",
	Severity:    diag.Warning,
	Description: "unsorted glob expansion has non-deterministic order",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			fc, ok := n.(*syntax.ForClause)
			if !ok {
				return true
			}
			wi, ok := fc.Loop.(*syntax.WordIter)
			if !ok {
				return true
			}
			for i := range wi.List {
				w := &wi.List[i]
				if !wordHasGlob(w) {
					continue
				}
				out = append(out, diag.Diagnostic{
					Code:     "DET003",
					Severity: diag.Warning,
					Message:  "glob iteration order depends on the filesystem; sort the expansion for deterministic output",
					Span:     ctx.span(w),
				})
			}
			return true
		}, nil)
		return out
	},
}

// wordHasGlob reports whether w contains an unquoted glob metacharacter
// in a literal piece — the shape that expands via readdir rather than a
// fixed, already-deterministic set of words.
func wordHasGlob(w *syntax.Word) bool {
	for _, part := range w.Parts {
		lit, ok := part.(*syntax.Lit)
		if !ok {
			continue
		}
		for _, r := range lit.Value {
			switch r {
			case '*', '?':
				return true
			case '[':
				return true
			}
		}
	}
	return false
}
