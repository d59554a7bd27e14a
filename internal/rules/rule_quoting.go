package rules

import (
	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// sc2086Rule flags an unquoted variable expansion in a command-argument
// position, the classic word-splitting/globbing hazard. Structural
// quoting-context detection (astutil.Classify + astutil.UnquotedExpansions)
// is what keeps this off assignment RHS, arithmetic, test, and case-pattern
// words, which is exactly the false-positive class a regex-based
// implementation can't reliably avoid.
var sc2086Rule = Rule{
	Code:        "SC2086",
	Severity:    diag.Warning,
	Description: "double quote to prevent globbing and word splitting",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			w, ok := n.(*syntax.Word)
			if !ok {
				return true
			}
			if ctx.Classify.ContextOf(w) != astutil.CommandArg {
				return true
			}
			for _, ue := range astutil.UnquotedExpansions(w) {
				if ue.ParamExp == nil {
					continue
				}
				if ue.ParamExp.Param != nil && isArrayAllOrSpecialSafe(ue.ParamExp.Param.Value) {
					continue
				}
				out = append(out, diag.Diagnostic{
					Code:     "SC2086",
					Severity: diag.Warning,
					Message:  "double quote to prevent globbing and word splitting",
					Span:     ctx.span(w),
					Fixes: []diag.Fix{{
						Span:        ctx.span(w),
						Replacement: `"` + astutil.WordText(ctx.Source, w) + `"`,
						Description: "quote expansion",
					}},
				})
			}
			return true
		}, nil)
		return out
	},
}

// isArrayAllOrSpecialSafe reports variables whose expansion is already a
// single word in practice (exit-status style specials), which SC2086
// doesn't flag even unquoted.
func isArrayAllOrSpecialSafe(name string) bool {
	switch name {
	case "?", "$", "!", "#":
		return true
	}
	return false
}

// sc2046Rule flags an unquoted command substitution in a command-argument
// position — the same word-splitting hazard as SC2086, but for `$(...)`
// rather than a bare variable.
var sc2046Rule = Rule{
	Code:        "SC2046",
	Severity:    diag.Warning,
	Description: "quote this to prevent word splitting",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			w, ok := n.(*syntax.Word)
			if !ok {
				return true
			}
			if ctx.Classify.ContextOf(w) != astutil.CommandArg {
				return true
			}
			for _, ue := range astutil.UnquotedExpansions(w) {
				if ue.CmdSubst == nil {
					continue
				}
				out = append(out, diag.Diagnostic{
					Code:     "SC2046",
					Severity: diag.Warning,
					Message:  "quote this to prevent word splitting",
					Span:     ctx.span(w),
					Fixes: []diag.Fix{{
						Span:        ctx.span(w),
						Replacement: `"` + astutil.WordText(ctx.Source, w) + `"`,
						Description: "quote command substitution",
					}},
				})
			}
			return true
		}, nil)
		return out
	},
}

// sc2116Rule flags the `$(echo X)` shape: echo's output is X itself (once
// word-split/glob rules are accounted for), so the substitution and the
// echo are both redundant.
var sc2116Rule = Rule{
	Code:        "SC2116",
	Severity:    diag.Info,
	Description: "useless echo? instead of cmd $(echo foo) just use cmd foo",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			cs, ok := n.(*syntax.CmdSubst)
			if !ok {
				return true
			}
			call, ok := astutil.SoleCallExpr(cs)
			if !ok || len(call.Args) == 0 {
				return true
			}
			if astutil.WordTextLit(&call.Args[0]) != "echo" {
				return true
			}
			if len(call.Args) != 2 {
				return true
			}
			if lit := astutil.WordTextLit(&call.Args[1]); len(lit) > 0 && lit[0] == '-' {
				return true
			}
			replacement := astutil.WordText(ctx.Source, &call.Args[1])
			out = append(out, diag.Diagnostic{
				Code:     "SC2116",
				Severity: diag.Info,
				Message:  "useless use of echo in command substitution",
				Span:     ctx.span(cs),
				Fixes: []diag.Fix{{
					Span:        ctx.span(cs),
					Replacement: replacement,
					Description: "replace with the echoed word",
				}},
			})
			return true
		}, nil)
		return out
	},
}
