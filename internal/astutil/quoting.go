package astutil

import "mvdan.cc/sh/v3/syntax"

// UnquotedExpansion is a top-level expansion WordPart of a Word that is
// not wrapped in a DblQuoted composite token — exactly the set SC2086 and
// SC2046 care about. Because DblQuoted's own Parts are a separate nested
// list, any expansion reachable this way is, by construction, outside
// every double-quoted region of the word.
type UnquotedExpansion struct {
	Part syntax.WordPart
	// ParamExp is set when Part is a *syntax.ParamExp (variable
	// expansion candidate for SC2086).
	ParamExp *syntax.ParamExp
	// CmdSubst is set when Part is a *syntax.CmdSubst (command
	// substitution candidate for SC2046).
	CmdSubst *syntax.CmdSubst
}

// UnquotedExpansions returns every top-level expansion in w that is not
// enclosed by a double-quoted composite token.
func UnquotedExpansions(w *syntax.Word) []UnquotedExpansion {
	if w == nil {
		return nil
	}
	var out []UnquotedExpansion
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.ParamExp:
			out = append(out, UnquotedExpansion{Part: part, ParamExp: p})
		case *syntax.CmdSubst:
			out = append(out, UnquotedExpansion{Part: part, CmdSubst: p})
		}
	}
	return out
}

// IsWhollyQuoted reports whether w's only top-level part is a single
// DblQuoted or SglQuoted token, i.e. the word carries no unquoted
// splitting-sensitive expansion at all.
func IsWhollyQuoted(w *syntax.Word) bool {
	if w == nil || len(w.Parts) != 1 {
		return false
	}
	switch w.Parts[0].(type) {
	case *syntax.DblQuoted, *syntax.SglQuoted:
		return true
	}
	return false
}

// HasGlobMeta reports whether w contains an unquoted glob metacharacter
// in a literal piece, the shape whose expansion order depends on
// filesystem readdir order (DET003, and the purifier's matching
// determinism transform).
func HasGlobMeta(w *syntax.Word) bool {
	for _, part := range w.Parts {
		lit, ok := part.(*syntax.Lit)
		if !ok {
			continue
		}
		for _, r := range lit.Value {
			switch r {
			case '*', '?', '[':
				return true
			}
		}
	}
	return false
}

// SingleBacktickOrParenCmdSubst reports whether w is exactly one
// unquoted command substitution (used by SC2116's `$(echo X)` shape and
// DET002's bare `` `date` ``/`$(date ...)` shape).
func SingleBacktickOrParenCmdSubst(w *syntax.Word) (*syntax.CmdSubst, bool) {
	if w == nil || len(w.Parts) != 1 {
		return nil, false
	}
	cs, ok := w.Parts[0].(*syntax.CmdSubst)
	return cs, ok
}

// SoleCallExpr returns the single simple command inside a CmdSubst's
// statement list, when the substitution's body is exactly one bare
// command (no pipeline, no redirections, no background) — the shape
// SC2116 needs to confirm "echo X has no flags and X is a single word".
func SoleCallExpr(cs *syntax.CmdSubst) (*syntax.CallExpr, bool) {
	if cs == nil || len(cs.Stmts) != 1 {
		return nil, false
	}
	s := cs.Stmts[0]
	if s.Negated || s.Background || len(s.Redirs) > 0 {
		return nil, false
	}
	call, ok := s.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) != 0 {
		return nil, false
	}
	return call, true
}
