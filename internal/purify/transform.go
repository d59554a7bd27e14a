package purify

import (
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/internal/semantic"
	"github.com/paiml/bashrs-sub019/internal/shparse"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// detectAll runs every structural detector once over res's AST and
// returns the fixes found plus any diagnostic-only findings (currently
// just the eval transform, which purification deliberately never
// autofixes per spec §4.9.11).
func detectAll(res *shparse.Result, sem *semantic.Result, opts Options) ([]detected, []diag.Diagnostic) {
	var found []detected
	var diags []diag.Diagnostic

	classify := astutil.Classify(res.File)

	astutil.Visit(res.File, func(n syntax.Node) bool {
		switch x := n.(type) {
		case *syntax.ParamExp:
			if x.Param == nil {
				return true
			}
			switch x.Param.Value {
			case "RANDOM":
				found = append(found, randomTransform(res, x, opts))
			case "EPOCHREALTIME":
				found = append(found, timestampVarTransform(res, x, opts))
			case "$", "PPID":
				found = append(found, pidTransform(res, x, opts))
			}
		case *syntax.CmdSubst:
			if call, ok := astutil.SoleCallExpr(x); ok {
				switch commandName(call) {
				case "date":
					found = append(found, timestampTransform(res, x, opts))
				case "echo":
					if d, ok := echoCollapseTransform(res, x, call); ok {
						found = append(found, d)
					}
				}
			}
		case *syntax.ForClause:
			if wi, ok := x.Loop.(*syntax.WordIter); ok {
				for i := range wi.List {
					w := &wi.List[i]
					if astutil.HasGlobMeta(w) {
						found = append(found, globSortTransform(res, w))
					}
				}
			}
		case *syntax.CallExpr:
			switch commandName(x) {
			case "mkdir":
				if d, ok := mkdirTransform(res, x); ok {
					found = append(found, d)
				}
			case "rm":
				if d, ok := rmTransform(res, x); ok {
					found = append(found, d)
				}
			case "eval":
				diags = append(diags, evalDiagnostics(res, x)...)
			}
		case *syntax.Stmt:
			if d, ok := lnSfTransform(res, x); ok {
				found = append(found, d)
			}
		case *syntax.Word:
			if classify.ContextOf(x) == astutil.CommandArg {
				found = append(found, quoteTransforms(res, x)...)
			}
		}
		return true
	}, nil)

	if d, ok := shebangTransform(res, sem); ok {
		found = append(found, d)
	}

	return resolveFixes(found), diags
}

// resolveFixes reconciles detections whose spans overlap — for example
// a whole-statement rewrite like the ln-to-rm+ln transform and a nested
// argument-quoting fix inside that same statement. fixapply.Apply
// rejects any overlapping batch outright, so detectAll must never hand
// it one: the widest (outermost) fix at a given position wins, since it
// already carries the narrower fix's source text verbatim; anything the
// narrower fix would have done gets re-detected on the next pass once
// the wider rewrite has been applied and the result reparsed.
func resolveFixes(in []detected) []detected {
	ordered := make([]detected, len(in))
	copy(ordered, in)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi := ordered[i].fix.Span.Hi - ordered[i].fix.Span.Lo
		wj := ordered[j].fix.Span.Hi - ordered[j].fix.Span.Lo
		if wi != wj {
			return wi > wj
		}
		return ordered[i].fix.Span.Lo < ordered[j].fix.Span.Lo
	})
	var out []detected
	for _, d := range ordered {
		overlaps := false
		for _, accepted := range out {
			if d.fix.Span.Overlaps(accepted.fix.Span) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		out = append(out, d)
	}
	return out
}

func commandName(call *syntax.CallExpr) string {
	if call == nil || len(call.Args) == 0 {
		return ""
	}
	return astutil.WordTextLit(&call.Args[0])
}

// randomTransform implements spec §4.9.1: $RANDOM never silently gets a
// guessed value. It is replaced by a read from VersionSymbol, which the
// explanation documents as a now-required caller-supplied input.
func randomTransform(res *shparse.Result, pe *syntax.ParamExp, opts Options) detected {
	sp := astutil.SpanOf(res.FileID, res.SourceMap, pe)
	sym := opts.versionSymbol()
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: "${" + sym + "}",
			Description: "replace $RANDOM with a required " + sym + " input",
		},
		title: "$RANDOM elimination",
		cat:   Determinism,
		why:   "the same script run twice must read the same session identifier rather than a new random one each time; the caller now supplies " + sym + " explicitly",
		node:  pe,
	}
}

func timestampVarTransform(res *shparse.Result, pe *syntax.ParamExp, opts Options) detected {
	sp := astutil.SpanOf(res.FileID, res.SourceMap, pe)
	repl := opts.timestampReplacement()
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: repl,
			Description: "replace $EPOCHREALTIME with a deterministic input",
		},
		title: "timestamp elimination",
		cat:   Determinism,
		why:   "wall-clock time is never reproducible across runs; the purified script takes it as an explicit input instead",
		node:  pe,
	}
}

func timestampTransform(res *shparse.Result, cs *syntax.CmdSubst, opts Options) detected {
	sp := astutil.SpanOf(res.FileID, res.SourceMap, cs)
	repl := opts.timestampReplacement()
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: repl,
			Description: "replace `date` substitution with a deterministic input",
		},
		title: "timestamp elimination",
		cat:   Determinism,
		why:   "`date` output differs on every run; the purified script takes it as an explicit input instead",
		node:  cs,
	}
}

func pidTransform(res *shparse.Result, pe *syntax.ParamExp, opts Options) detected {
	sp := astutil.SpanOf(res.FileID, res.SourceMap, pe)
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: opts.identityTag(),
			Description: "replace $$/$PPID with a deterministic identity tag",
		},
		title: "process-id elimination",
		cat:   Determinism,
		why:   "a process id is unique per run and unusable as a stable identifier; a caller-provided tag is deterministic across runs",
		node:  pe,
	}
}

func globSortTransform(res *shparse.Result, w *syntax.Word) detected {
	sp := astutil.SpanOf(res.FileID, res.SourceMap, w)
	text := astutil.WordText(res.Source, w)
	repl := "$(printf '%s\\n' " + text + " | sort)"
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: repl,
			Description: "sort glob expansion for deterministic iteration order",
		},
		title: "unsorted glob determinism",
		cat:   Determinism,
		why:   "directory read order is filesystem-dependent; sorting makes iteration order identical across runs",
		node:  w,
	}
}

func mkdirTransform(res *shparse.Result, call *syntax.CallExpr) (detected, bool) {
	if hasShortFlag(call, 'p') {
		return detected{}, false
	}
	return detected{
		title: "mkdir idempotency",
		cat:   Idempotency,
		why:   "mkdir without -p fails on a second run once the directory already exists",
		node:  call,
	}.withFlagInsert(res, call, "-p")
}

func rmTransform(res *shparse.Result, call *syntax.CallExpr) (detected, bool) {
	if hasShortFlag(call, 'f') {
		return detected{}, false
	}
	for i := 1; i < len(call.Args); i++ {
		w := &call.Args[i]
		lit := astutil.WordTextLit(w)
		if len(lit) > 0 && lit[0] == '-' {
			continue
		}
		if astutil.HasGlobMeta(w) {
			return detected{}, false
		}
	}
	if len(call.Args) < 2 {
		return detected{}, false
	}
	return detected{
		title: "rm idempotency",
		cat:   Idempotency,
		why:   "rm of a specific path fails on a second run once the path is already gone",
		node:  call,
	}.withFlagInsert(res, call, "-f")
}

// withFlagInsert builds the zero-width "insert after command name" fix
// shared by the mkdir/rm transformations.
func (d detected) withFlagInsert(res *shparse.Result, call *syntax.CallExpr, flag string) (detected, bool) {
	sp := astutil.SpanOf(res.FileID, res.SourceMap, &call.Args[0])
	sp.Lo = sp.Hi
	d.fix = diag.Fix{
		Span:        sp,
		Replacement: " " + flag,
		Description: "insert " + flag,
	}
	return d, true
}

func hasShortFlag(call *syntax.CallExpr, letter byte) bool {
	for i := 1; i < len(call.Args); i++ {
		lit := astutil.WordTextLit(&call.Args[i])
		if lit == "--" {
			break
		}
		if len(lit) < 2 || lit[0] != '-' || lit[1] == '-' {
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

// lnSfTransform implements spec §4.9.7: `ln -s A B` becomes
// `rm -f B && ln -sf A B` so the link can be safely recreated on a
// second run, matching the concrete end-to-end scenario in spec §8.
func lnSfTransform(res *shparse.Result, s *syntax.Stmt) (detected, bool) {
	call, ok := s.Cmd.(*syntax.CallExpr)
	if !ok || commandName(call) != "ln" || !hasShortFlag(call, 's') || hasShortFlag(call, 'f') {
		return detected{}, false
	}
	var operands []*syntax.Word
	for i := 1; i < len(call.Args); i++ {
		w := &call.Args[i]
		lit := astutil.WordTextLit(w)
		if len(lit) > 0 && lit[0] == '-' {
			continue
		}
		operands = append(operands, w)
	}
	if len(operands) != 2 {
		return detected{}, false
	}
	src := astutil.WordText(res.Source, operands[0])
	target := astutil.WordText(res.Source, operands[1])
	sp := astutil.SpanOf(res.FileID, res.SourceMap, s)
	repl := "rm -f " + target + " && ln -sf " + src + " " + target
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: repl,
			Description: "replace with rm -f && ln -sf",
		},
		title: "symlink idempotency",
		cat:   Idempotency,
		why:   "ln -s fails on a second run once the link already exists; removing it first makes the link recreation idempotent",
		node:  s,
	}, true
}

// quoteTransforms implements spec §4.9.8: every unquoted top-level
// expansion in command-argument position is wrapped in double quotes.
func quoteTransforms(res *shparse.Result, w *syntax.Word) []detected {
	if len(astutil.UnquotedExpansions(w)) == 0 {
		return nil
	}
	sp := astutil.SpanOf(res.FileID, res.SourceMap, w)
	text := astutil.WordText(res.Source, w)
	return []detected{{
		fix: diag.Fix{
			Span:        sp,
			Replacement: `"` + text + `"`,
			Description: "quote expansion",
		},
		title: "unquoted expansion safety",
		cat:   Safety,
		why:   "an unquoted expansion in argument position is subject to word-splitting and globbing that the author rarely intends",
		node:  w,
	}}
}

// echoCollapseTransform implements spec §4.9.10: `$(echo X)` collapses
// to X when echo has no flags and X is a single word.
func echoCollapseTransform(res *shparse.Result, cs *syntax.CmdSubst, call *syntax.CallExpr) (detected, bool) {
	if len(call.Args) != 2 {
		return detected{}, false
	}
	if lit := astutil.WordTextLit(&call.Args[1]); len(lit) > 0 && lit[0] == '-' {
		return detected{}, false
	}
	sp := astutil.SpanOf(res.FileID, res.SourceMap, cs)
	repl := astutil.WordText(res.Source, &call.Args[1])
	return detected{
		fix: diag.Fix{
			Span:        sp,
			Replacement: repl,
			Description: "collapse useless echo in command substitution",
		},
		title: "useless echo collapse",
		cat:   Safety,
		why:   "$(echo X) and X behave the same once word-splitting/globbing rules are accounted for, so the substitution is pure overhead",
		node:  cs,
	}, true
}

// evalDiagnostics implements spec §4.9.11: eval on a value containing an
// expansion is never auto-rewritten, only flagged.
func evalDiagnostics(res *shparse.Result, call *syntax.CallExpr) []diag.Diagnostic {
	var out []diag.Diagnostic
	for i := 1; i < len(call.Args); i++ {
		w := &call.Args[i]
		if len(astutil.UnquotedExpansions(w)) == 0 && !containsExpansion(w) {
			continue
		}
		out = append(out, diag.Diagnostic{
			Code:     "SEC001",
			Severity: diag.Error,
			Message:  "eval on a value containing expansions cannot be safely auto-purified; restructure by hand",
			Span:     astutil.SpanOf(res.FileID, res.SourceMap, w),
		})
	}
	return out
}

func containsExpansion(w *syntax.Word) bool {
	for _, p := range w.Parts {
		switch pp := p.(type) {
		case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp:
			return true
		case *syntax.DblQuoted:
			if containsExpansionParts(pp.Parts) {
				return true
			}
		}
	}
	return false
}

func containsExpansionParts(parts []syntax.WordPart) bool {
	for _, p := range parts {
		switch p.(type) {
		case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp:
			return true
		}
	}
	return false
}

// shebangTransform implements spec §4.9.9: a bash shebang is downgraded
// to #!/bin/sh only when the dialect fingerprint shows no bash-only or
// zsh-only feature usage anywhere in the file. Shebang detection is
// lexical rather than AST-based because mvdan's parser does not model
// the shebang line as a distinct node — this is exactly the "lexical
// rule that doesn't depend on surrounding quoting context" spec §9
// carves out for regex-permitted detection.
func shebangTransform(res *shparse.Result, sem *semantic.Result) (detected, bool) {
	if !sem.Fingerprint.IsPOSIXOnly() {
		return detected{}, false
	}
	line, _, _ := strings.Cut(res.Source, "\n")
	trimmed := strings.TrimRight(line, "\r")
	if !strings.HasPrefix(trimmed, "#!") {
		return detected{}, false
	}
	interp := strings.TrimSpace(trimmed[2:])
	fields := strings.Fields(interp)
	isBash := false
	switch {
	case len(fields) == 1 && strings.HasSuffix(fields[0], "/bash"):
		isBash = true
	case len(fields) == 2 && strings.HasSuffix(fields[0], "/env") && fields[1] == "bash":
		isBash = true
	}
	if !isBash {
		return detected{}, false
	}
	return detected{
		fix: diag.Fix{
			Span:        diag.Span{FileID: res.FileID, Lo: 0, Hi: len(trimmed)},
			Replacement: "#!/bin/sh",
			Description: "downgrade shebang to /bin/sh",
		},
		title: "shebang normalization",
		cat:   Safety,
		why:   "no bash-only or zsh-only construct was detected anywhere in the file, so the script also runs correctly under a strict POSIX sh",
	}, true
}
