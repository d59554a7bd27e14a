package rules

import (
	"strings"

	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// directive is one parsed suppression comment: either a whole-file
// disable or a line-scoped disable of specific codes (empty Codes means
// "all codes").
type directive struct {
	Line     int
	Codes    []string
	WholeFile bool
}

// parseDirectives scans every comment attached to file statements for
// the three forms bashrs recognizes:
//
//	# shellcheck disable=SC2086,SC2046
//	# bashrs:ignore SEC001
//	# bashrs disable-file=SC2059
//
// shellcheck's own form is honored so existing shellcheck-annotated
// scripts don't regress when run through bashrs.
func parseDirectives(ctx *Context) []directive {
	var out []directive
	for _, s := range ctx.File.Stmts {
		for _, c := range s.Comments {
			line := ctx.SM.OffsetToPosition(int(c.Hash.Offset())).Line
			if d, ok := parseOneComment(c.Text, line); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func parseOneComment(text string, line int) (directive, bool) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	switch {
	case strings.HasPrefix(text, "shellcheck disable="):
		codes := splitCodes(strings.TrimPrefix(text, "shellcheck disable="))
		return directive{Line: line, Codes: codes}, true
	case strings.HasPrefix(text, "bashrs:ignore"):
		rest := strings.TrimSpace(strings.TrimPrefix(text, "bashrs:ignore"))
		return directive{Line: line, Codes: splitCodes(rest)}, true
	case strings.HasPrefix(text, "bashrs disable-file="):
		if line > 10 {
			// Per spec §6, a file-level directive only counts within the
			// first 10 lines; later occurrences are treated as ordinary
			// (ignored) comments rather than suppressing anything.
			return directive{}, false
		}
		codes := splitCodes(strings.TrimPrefix(text, "bashrs disable-file="))
		return directive{Codes: codes, WholeFile: true}, true
	}
	return directive{}, false
}

func splitCodes(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	var codes []string
	for _, f := range fields {
		if f != "" {
			codes = append(codes, strings.TrimSpace(f))
		}
	}
	return codes
}

// Suppress drops diagnostics matched by a parsed directive. A
// line-scoped directive silences findings on the line the comment sits
// on or the line immediately after it, matching shellcheck's own
// "annotate the line above" convention.
func Suppress(ctx *Context, diags []diag.Diagnostic) []diag.Diagnostic {
	directives := parseDirectives(ctx)
	if len(directives) == 0 {
		return diags
	}
	out := make([]diag.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if suppressed(directives, d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func suppressed(directives []directive, d diag.Diagnostic) bool {
	for _, dir := range directives {
		if !codeMatches(dir.Codes, d.Code) {
			continue
		}
		if dir.WholeFile {
			return true
		}
		if d.Span.StartLn == dir.Line || d.Span.StartLn == dir.Line+1 {
			return true
		}
	}
	return false
}

func codeMatches(codes []string, code string) bool {
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if strings.EqualFold(c, code) {
			return true
		}
		// shellcheck codes carry an "SC" prefix that bashrs's own codes
		// don't; accept either spelling for the same rule.
		if strings.EqualFold(strings.TrimPrefix(c, "SC"), strings.TrimPrefix(code, "SC")) {
			return true
		}
	}
	return false
}
