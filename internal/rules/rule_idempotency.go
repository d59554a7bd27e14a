package rules

import (
	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// hasFlag reports whether any of a command's flag-shaped arguments
// (those starting with '-') contains the given short flag letter, either
// standalone ("-p") or bundled with other short flags ("-rp").
func hasFlag(call *syntax.CallExpr, letter byte) bool {
	for i := 1; i < len(call.Args); i++ {
		lit := astutil.WordTextLit(&call.Args[i])
		if lit == "" || lit[0] != '-' || len(lit) < 2 || lit[1] == '-' {
			if lit == "--" {
				break
			}
			continue
		}
		for j := 1; j < len(lit); j++ {
			if lit[j] == letter {
				return true
			}
		}
	}
	return false
}

// pathArgs returns a command's non-flag operand words (its args minus the
// command name and any "-flag"-shaped words), the targets IDEM001/IDEM002
// care about.
func pathArgs(call *syntax.CallExpr) []*syntax.Word {
	var out []*syntax.Word
	seenDashDash := false
	for i := 1; i < len(call.Args); i++ {
		w := &call.Args[i]
		lit := astutil.WordTextLit(w)
		if !seenDashDash && lit == "--" {
			seenDashDash = true
			continue
		}
		if !seenDashDash && len(lit) > 1 && lit[0] == '-' {
			continue
		}
		out = append(out, w)
	}
	return out
}

// commandNameOf returns call's command-name literal, or "" if call has no
// args or its name word isn't a fixed literal.
func commandNameOf(call *syntax.CallExpr) string {
	if call == nil || len(call.Args) == 0 {
		return ""
	}
	return astutil.WordTextLit(&call.Args[0])
}

// insertAfterName builds a zero-width Fix that inserts text immediately
// after a command's name word, leaving any existing flags untouched.
func insertAfterName(ctx *Context, call *syntax.CallExpr, text, description string) diag.Fix {
	sp := ctx.span(&call.Args[0])
	sp.Lo = sp.Hi
	return diag.Fix{Span: sp, Replacement: text, Description: description}
}

// idem001Rule flags `mkdir` invocations missing `-p`: a second run on a
// pre-existing directory exits non-zero, breaking idempotency (spec
// §4.9.5).
var idem001Rule = Rule{
	Code:        "IDEM001",
	Severity:    diag.Error,
	Description: "mkdir without -p is not idempotent",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			call, ok := n.(*syntax.CallExpr)
			if !ok || commandNameOf(call) != "mkdir" {
				return true
			}
			if hasFlag(call, 'p') {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "IDEM001",
				Severity: diag.Error,
				Message:  "mkdir without -p fails if the directory already exists",
				Span:     ctx.span(call),
				Fixes:    []diag.Fix{insertAfterName(ctx, call, " -p", "add -p")},
			})
			return true
		}, nil)
		return out
	},
}

// idem002Rule flags `rm` of a specific path missing `-f`: a second run
// after the path is already gone exits non-zero (spec §4.9.6). A glob
// operand selecting a plural set is not flagged, since an already-empty
// match is not an error for a glob the shell itself failed to expand only
// when nullglob is off — bashrs treats any glob operand as out of scope
// for this rule, matching the spec's explicit carve-out.
var idem002Rule = Rule{
	Code:        "IDEM002",
	Severity:    diag.Error,
	Description: "rm of a specific path without -f is not idempotent",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			call, ok := n.(*syntax.CallExpr)
			if !ok || commandNameOf(call) != "rm" {
				return true
			}
			if hasFlag(call, 'f') {
				return true
			}
			paths := pathArgs(call)
			if len(paths) == 0 {
				return true
			}
			for _, w := range paths {
				if wordHasGlob(w) {
					return true
				}
			}
			out = append(out, diag.Diagnostic{
				Code:     "IDEM002",
				Severity: diag.Error,
				Message:  "rm without -f fails on a second run once the path is already gone",
				Span:     ctx.span(call),
				Fixes:    []diag.Fix{insertAfterName(ctx, call, " -f", "add -f")},
			})
			return true
		}, nil)
		return out
	},
}

// idem003Rule flags `ln -s` without `-f` and without a preceding `rm -f`
// of the same link target: re-running the script fails once the link
// already exists (spec §4.9.7).
var idem003Rule = Rule{
	Code:        "IDEM003",
	Severity:    diag.Error,
	Description: "ln -s without -f is not idempotent",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		removed := make(map[string]bool)
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			call, ok := n.(*syntax.CallExpr)
			if !ok {
				return true
			}
			if commandNameOf(call) == "rm" && hasFlag(call, 'f') {
				for _, w := range pathArgs(call) {
					removed[astutil.WordText(ctx.Source, w)] = true
				}
				return true
			}
			if commandNameOf(call) != "ln" || !hasFlag(call, 's') || hasFlag(call, 'f') {
				return true
			}
			if paths := pathArgs(call); len(paths) > 0 && removed[astutil.WordText(ctx.Source, paths[len(paths)-1])] {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "IDEM003",
				Severity: diag.Error,
				Message:  "ln -s without -f fails if the link already exists; use ln -sf",
				Span:     ctx.span(call),
				Fixes:    []diag.Fix{insertAfterName(ctx, call, " -f", "add -f")},
			})
			return true
		}, nil)
		return out
	},
}
