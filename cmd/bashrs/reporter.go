package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/paiml/bashrs-sub019/pkg/bashrs"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// codeColumnWidth is the fixed width the CODE column is padded or
// truncated to, the same runewidth.FillRight/Truncate pairing
// cmd/taskguild/main.go uses to line up its task table.
const codeColumnWidth = 10

var severityColor = map[diag.Severity]*color.Color{
	diag.Error:   color.New(color.FgRed, color.Bold),
	diag.Warning: color.New(color.FgYellow),
	diag.Note:    color.New(color.FgCyan),
	diag.Info:    color.New(color.FgBlue),
}

// coloredHuman renders one file's diagnostics as a severity-colored,
// column-aligned table. It returns "" when res is nil (a watch event
// that errored before producing a result).
func coloredHuman(path string, res *bashrs.LintResult) string {
	if res == nil {
		return ""
	}
	if len(res.Diagnostics) == 0 {
		return color.New(color.FgGreen).Sprintf("%s: no findings\n", path)
	}

	var b strings.Builder
	for _, d := range res.Diagnostics {
		c := severityColor[d.Severity]
		if c == nil {
			c = color.New()
		}
		code := runewidth.FillRight(runewidth.Truncate(d.Code, codeColumnWidth, ""), codeColumnWidth)
		loc := fmt.Sprintf("%d:%d", d.Span.StartLn, d.Span.StartCol)
		fmt.Fprintf(&b, "%s:%-8s %s%s\n", path, loc, c.Sprintf("%-8s", d.Severity), code+" "+d.Message)
		if len(d.Fixes) > 0 {
			fmt.Fprintf(&b, "  fix: %s\n", d.Fixes[0].Replacement)
		}
	}
	return b.String()
}
