package rules

import (
	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// wordHasExpansion reports whether w contains any expansion part at all
// (parameter expansion, command substitution, or arithmetic expansion),
// the shape SC2059 flags when it appears in a printf format string.
func wordHasExpansion(w *syntax.Word) bool {
	var found bool
	walkParts(w.Parts, func(p syntax.WordPart) {
		switch p.(type) {
		case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp:
			found = true
		}
	})
	return found
}

func walkParts(parts []syntax.WordPart, fn func(syntax.WordPart)) {
	for _, p := range parts {
		fn(p)
		if dq, ok := p.(*syntax.DblQuoted); ok {
			walkParts(dq.Parts, fn)
		}
	}
}

// sc2059Rule flags `printf` whose format-string argument itself contains
// an expansion: any `%`-looking byte coming from user data is then
// interpreted as a printf conversion, the classic format-string hazard
// (spec §4.7 table).
var sc2059Rule = Rule{
	Code:        "SC2059",
	Severity:    diag.Warning,
	Description: "printf format string should not contain expansions",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			call, ok := n.(*syntax.CallExpr)
			if !ok || commandNameOf(call) != "printf" {
				return true
			}
			fmtArgs := pathArgs(call)
			if len(fmtArgs) == 0 {
				return true
			}
			format := fmtArgs[0]
			if !wordHasExpansion(format) {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "SC2059",
				Severity: diag.Warning,
				Message:  "don't use variables in the printf format string; move them to arguments",
				Span:     ctx.span(format),
			})
			return true
		}, nil)
		return out
	},
}

// sc2064Rule flags `trap` whose handler argument is a double-quoted
// composite token containing a variable: the expansion happens once, at
// trap-registration time, rather than when the signal actually fires
// (spec §4.7 table).
var sc2064Rule = Rule{
	Code:        "SC2064",
	Severity:    diag.Warning,
	Description: "trap handler expands at set-time, not signal-time",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			call, ok := n.(*syntax.CallExpr)
			if !ok || commandNameOf(call) != "trap" {
				return true
			}
			if len(call.Args) < 2 {
				return true
			}
			handler := &call.Args[1]
			if len(handler.Parts) != 1 {
				return true
			}
			dq, ok := handler.Parts[0].(*syntax.DblQuoted)
			if !ok {
				return true
			}
			if !wordHasExpansion(&syntax.Word{Parts: dq.Parts}) {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "SC2064",
				Severity: diag.Warning,
				Message:  "use single quotes for the trap handler so it expands at signal-time, not now",
				Span:     ctx.span(handler),
			})
			return true
		}, nil)
		return out
	},
}

// inheritedVars are names the shell itself guarantees are set, so SC2154
// never treats a read of them as "never assigned".
var inheritedVars = map[string]bool{
	"PATH": true, "HOME": true, "USER": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "TERM": true, "LANG": true, "LC_ALL": true, "TMPDIR": true,
	"IFS": true, "HOSTNAME": true, "EDITOR": true, "DISPLAY": true,
}

// sc2154Rule flags a variable that is read but never assigned anywhere in
// the analyzed file and is not one of bash's special/inherited names —
// usually a typo'd variable name or one the caller forgot to export from
// an unanalyzed sourced file (spec §4.7 table; cross-file tracking is
// explicitly out of scope per spec §9(c)).
var sc2154Rule = Rule{
	Code:        "SC2154",
	Severity:    diag.Warning,
	Description: "variable is referenced but never assigned",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		if ctx.Sem == nil || ctx.Sem.Global == nil {
			return out
		}
		for name, sym := range ctx.Sem.Global.Symbols {
			if sym.LastAssigned != nil || len(sym.ReadSites) == 0 {
				continue
			}
			if inheritedVars[name] {
				continue
			}
			for _, sp := range sym.ReadSites {
				out = append(out, diag.Diagnostic{
					Code:     "SC2154",
					Severity: diag.Warning,
					Message:  name + " is referenced but never assigned",
					Span:     sp,
				})
			}
		}
		return out
	},
}

// sec001Rule flags `eval` applied to an argument that itself contains an
// expansion: the evaluated text can carry attacker- or caller-controlled
// content, and purification deliberately does not attempt to rewrite
// this away (spec §4.9.11) — it is surfaced as a finding for a human to
// restructure.
var sec001Rule = Rule{
	Code:        "SEC001",
	Severity:    diag.Error,
	Description: "eval on a value containing expansions is a code-injection risk",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			call, ok := n.(*syntax.CallExpr)
			if !ok || commandNameOf(call) != "eval" {
				return true
			}
			for _, w := range pathArgs(call) {
				if !wordHasExpansion(w) {
					continue
				}
				out = append(out, diag.Diagnostic{
					Code:     "SEC001",
					Severity: diag.Error,
					Message:  "eval on a value containing expansions can execute arbitrary injected code",
					Span:     ctx.span(w),
				})
			}
			return true
		}, nil)
		return out
	},
}

// sec008Rule flags the `curl ... | sh`/`wget -O- ... | sh` pattern:
// piping a network download straight into a shell interpreter executes
// unreviewed remote code (spec §4.7 table).
var sec008Rule = Rule{
	Code:        "SEC008",
	Severity:    diag.Error,
	Description: "piping a network download into a shell executes unreviewed remote code",
	Run: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		astutil.Visit(ctx.File, func(n syntax.Node) bool {
			bc, ok := n.(*syntax.BinaryCmd)
			if !ok || bc.Op != syntax.Pipe {
				return true
			}
			left := soleCall(bc.X)
			right := soleCall(bc.Y)
			if left == nil || right == nil {
				return true
			}
			leftName := commandNameOf(left)
			if leftName != "curl" && leftName != "wget" {
				return true
			}
			rightName := commandNameOf(right)
			if rightName != "sh" && rightName != "bash" && rightName != "zsh" {
				return true
			}
			out = append(out, diag.Diagnostic{
				Code:     "SEC008",
				Severity: diag.Error,
				Message:  "piping a network download directly into a shell runs unreviewed remote code",
				Span:     ctx.span(bc),
			})
			return true
		}, nil)
		return out
	},
}

// soleCall returns the bare *syntax.CallExpr a pipeline stage's statement
// wraps, or nil if it is some other command shape.
func soleCall(s *syntax.Stmt) *syntax.CallExpr {
	if s == nil {
		return nil
	}
	call, ok := s.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil
	}
	return call
}
