// Package rules implements the rule engine from spec §4.7: a registry of
// named checks, each shaped as `rule(source, ast, sem) -> []Diagnostic`,
// plus suppression-directive handling so individual findings can be
// silenced inline the way shellcheck and bashrs both expect.
package rules

import (
	"context"
	"log/slog"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/internal/semantic"
	"github.com/paiml/bashrs-sub019/pkg/diag"
	"github.com/paiml/bashrs-sub019/pkg/panicerr"
	"github.com/paiml/bashrs-sub019/pkg/sourcemap"
)

// Context bundles everything a Rule needs: the raw source, the AST, the
// semantic analysis, the source map for span construction, and the file
// identifier every diagnostic must carry.
type Context struct {
	// Ctx carries the run's attribute bag and is the parent for every
	// stage/rule log record Run emits; a nil Ctx falls back to
	// context.Background() so callers that don't care about logging
	// attribution don't have to supply one.
	Ctx      context.Context
	FileID   string
	Source   string
	File     *syntax.File
	Sem      *semantic.Result
	SM       *sourcemap.Map
	Classify *astutil.Classification
}

func (c *Context) span(node syntax.Node) diag.Span {
	return astutil.SpanOf(c.FileID, c.SM, node)
}

// Rule is one named check. Run must never panic; the registry wraps
// every call in panicerr.Safe regardless, so a single bad rule can't
// take down a whole batch.
type Rule struct {
	Code        string
	Severity    diag.Severity
	Description string
	Run         func(ctx *Context) []diag.Diagnostic
}

// Registry is the fixed, ordered set of rules bashrs ships.
var Registry = []Rule{
	sc2086Rule,
	sc2046Rule,
	sc2116Rule,
	sc2059Rule,
	sc2064Rule,
	sc2154Rule,
	sec001Rule,
	sec008Rule,
	det001Rule,
	det002Rule,
	det003Rule,
	idem001Rule,
	idem002Rule,
	idem003Rule,
}

// Run executes every rule in Registry against ctx, merging and sorting
// the combined diagnostics, then drops anything a suppression directive
// silences.
func Run(ctx *Context) []diag.Diagnostic {
	logCtx := ctx.Ctx
	if logCtx == nil {
		logCtx = context.Background()
	}
	clog.AddAttribute(logCtx, clog.StageAttributeKey, "rules")
	start := time.Now()
	slog.DebugContext(logCtx, "rules: start", clog.StageAttributeKey, "rules", clog.FileAttributeKey, ctx.FileID, "rules", len(Registry))

	var all []diag.Diagnostic
	for _, r := range Registry {
		rule := r
		var found []diag.Diagnostic
		err := panicerr.Call(func() error {
			found = rule.Run(ctx)
			return nil
		})
		if err != nil {
			// A rule that panics contributes nothing rather than
			// aborting the whole run (spec's panic-safety requirement).
			slog.WarnContext(logCtx, "rules: recovered panic",
				clog.StageAttributeKey, "rules", clog.RuleAttributeKey, rule.Code,
				clog.FileAttributeKey, ctx.FileID, "err", err.Error())
			continue
		}
		if len(found) > 0 {
			slog.InfoContext(logCtx, "rules: match",
				clog.StageAttributeKey, "rules", clog.RuleAttributeKey, rule.Code,
				clog.FileAttributeKey, ctx.FileID, "findings", len(found))
		}
		all = append(all, found...)
	}
	diag.Sort(all)
	out := Suppress(ctx, all)

	slog.DebugContext(logCtx, "rules: done",
		clog.StageAttributeKey, "rules", clog.FileAttributeKey, ctx.FileID,
		"elapsed", time.Since(start), "diagnostics", len(out))
	return out
}
