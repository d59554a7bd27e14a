// Package purify implements the purifier from spec §4.9 (C9): a closed
// set of behaviour-preserving AST rewrites that remove non-determinism,
// non-idempotency, and unsafe-expansion hazards from a shell script.
// Detection is structural — it walks the same AST the rule engine (C7)
// consumes, via astutil's classification and expansion helpers — but
// purify and rules are independent consumers of that AST, per spec §4.9:
// neither package imports the other.
package purify

import (
	"context"
	"log/slog"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/internal/fixapply"
	"github.com/paiml/bashrs-sub019/internal/semantic"
	"github.com/paiml/bashrs-sub019/internal/shparse"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// Category classifies a transformation the way spec §4.9 groups them.
type Category int

const (
	Determinism Category = iota
	Idempotency
	Safety
)

func (c Category) String() string {
	switch c {
	case Idempotency:
		return "idempotency"
	case Safety:
		return "safety"
	default:
		return "determinism"
	}
}

// TransformationExplanation documents one applied rewrite for the
// machine-readable transformation report spec §4.9 requires.
type TransformationExplanation struct {
	Category    Category
	Title       string
	Original    string
	Transformed string
	WhatChanged string
	WhyItMatters string
	LineNumber  int
	Diff        string
}

// Options configures Purify. Every field has a spec-compliant default
// (zero value) so callers that don't care about naming conventions get
// sensible behaviour.
type Options struct {
	// Filename and ShellHint feed shell-kind detection the same way
	// shparse.Options does.
	Filename  string
	ShellHint shparse.ShellKind
	HintSet   bool

	// VersionSymbol names the parameter $RANDOM, `date`, and
	// $EPOCHREALTIME expansions are rewritten to require, per spec
	// §4.9.1-2. Defaults to "VERSION".
	VersionSymbol string
	// IdentityTag is the substitute for $$/$PPID used for display or
	// lockfile-identifier purposes, per spec §4.9.3. Defaults to
	// "$USER-${VERSION}" (with VERSION substituted from VersionSymbol).
	IdentityTag string
	// SourceDateEpochVar, when non-empty, is substituted for timestamp
	// expansions instead of VersionSymbol — spec §4.9.2's escape hatch
	// for callers who already pipe SOURCE_DATE_EPOCH through their
	// build.
	SourceDateEpochVar string

	MaxBytes int
}

func (o Options) versionSymbol() string {
	if o.VersionSymbol != "" {
		return o.VersionSymbol
	}
	return "VERSION"
}

func (o Options) identityTag() string {
	if o.IdentityTag != "" {
		return o.IdentityTag
	}
	return "$USER-${" + o.versionSymbol() + "}"
}

func (o Options) timestampReplacement() string {
	if o.SourceDateEpochVar != "" {
		return "${" + o.SourceDateEpochVar + "}"
	}
	return "${" + o.versionSymbol() + "}"
}

// Result is the outcome of a Purify call.
type Result struct {
	Output          string
	Transformations []TransformationExplanation
	Diagnostics     []diag.Diagnostic
}

// maxPasses bounds the fixed-point loop: one pass per transformation
// kind is always sufficient since each transformation is idempotent on
// its own output (spec §4.9's convergence requirement), but a small
// margin avoids a hard failure if a rewrite incidentally enables
// another.
const maxPasses = transformCount * 2

// transformCount is the number of distinct transformation kinds the
// purifier implements (spec §4.9 lists eleven, one of which — eval — is
// diagnostic-only and never produces a Fix).
const transformCount = 11

// Purify runs the purification pipeline over source: parse, detect,
// fix, repeat until no detector finds anything new. Purify is pure —
// identical source and Options always yield a byte-identical Output
// (spec §6's "purification is pure" contract) — because every detector
// is a deterministic function of the parsed AST and Options, and ties
// are broken by a stable span order before fixapply.Apply runs.
func Purify(ctx context.Context, source string, opts Options) (*Result, error) {
	parsed, err := shparse.Parse(ctx, source, shparse.Options{
		Filename:  opts.Filename,
		ShellHint: opts.ShellHint,
		HintSet:   opts.HintSet,
		MaxBytes:  opts.MaxBytes,
	})
	if err != nil {
		return nil, err
	}
	if hasFatalParseError(parsed.Diagnostics) {
		return &Result{
			Output:      source,
			Diagnostics: parsed.Diagnostics,
		}, nil
	}

	text := source
	var explanations []TransformationExplanation
	var diags []diag.Diagnostic
	diags = append(diags, parsed.Diagnostics...)

	clog.AddAttribute(ctx, clog.StageAttributeKey, "purify")
	runStart := time.Now()
	slog.DebugContext(ctx, "purify: start", clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename)

	for pass := 0; pass < maxPasses; pass++ {
		passStart := time.Now()
		slog.DebugContext(ctx, "purify: pass start", clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename, "pass", pass)

		res, perr := shparse.Parse(ctx, text, shparse.Options{
			Filename:  opts.Filename,
			ShellHint: opts.ShellHint,
			HintSet:   opts.HintSet,
			MaxBytes:  opts.MaxBytes,
		})
		if perr != nil {
			return nil, perr
		}
		if hasFatalParseError(res.Diagnostics) {
			break
		}
		sem := semantic.Analyze(ctx, res.FileID, res.SourceMap, res.File)

		found, passDiags := detectAll(res, sem, opts)
		diags = append(diags, passDiags...)
		if len(found) == 0 {
			slog.DebugContext(ctx, "purify: pass done", clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename,
				"pass", pass, "elapsed", time.Since(passStart), "fixes", 0)
			break
		}

		fixes := make([]diag.Fix, 0, len(found))
		for _, f := range found {
			fixes = append(fixes, f.fix)
			explanation := f.explanation(res)
			explanations = append(explanations, explanation)
			slog.InfoContext(ctx, "purify: transformation applied",
				clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename,
				"pass", pass, "category", explanation.Category.String(), "title", explanation.Title)
		}
		newText, _, aerr := fixapply.Apply(text, fixes)
		if aerr != nil {
			// An unexpected overlap between two structurally-derived
			// fixes in the same pass; stop rather than risk corrupting
			// the buffer, surfacing what converged so far.
			slog.WarnContext(ctx, "purify: pass aborted", clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename,
				"pass", pass, "err", aerr.Error())
			break
		}
		text = newText

		slog.DebugContext(ctx, "purify: pass done", clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename,
			"pass", pass, "elapsed", time.Since(passStart), "fixes", len(fixes))
	}

	slog.DebugContext(ctx, "purify: done", clog.StageAttributeKey, "purify", clog.FileAttributeKey, opts.Filename,
		"elapsed", time.Since(runStart), "transformations", len(explanations))

	return &Result{
		Output:          text,
		Transformations: explanations,
		Diagnostics:     diag.Merge(dedupeDiagnostics(diags)),
	}, nil
}

// dedupeDiagnostics drops repeats of the same (Code, Span) pair. A
// diagnostic-only finding like eval-with-expansion is re-detected on
// every fixed-point pass until the loop converges, since nothing ever
// resolves it; without this it would otherwise appear once per pass.
func dedupeDiagnostics(ds []diag.Diagnostic) []diag.Diagnostic {
	type key struct {
		code   string
		fileID string
		lo, hi int
	}
	seen := make(map[key]bool, len(ds))
	out := make([]diag.Diagnostic, 0, len(ds))
	for _, d := range ds {
		k := key{d.Code, d.Span.FileID, d.Span.Lo, d.Span.Hi}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}

func hasFatalParseError(ds []diag.Diagnostic) bool {
	for _, d := range ds {
		if d.Code == "PARSE" && d.Severity == diag.Error {
			return true
		}
	}
	return false
}

// detected pairs a structural Fix with the explanation it documents.
type detected struct {
	fix   diag.Fix
	title string
	cat   Category
	why   string
	node  syntax.Node
}

func (d detected) explanation(res *shparse.Result) TransformationExplanation {
	line := 0
	if res.SourceMap != nil {
		line = res.SourceMap.OffsetToPosition(d.fix.Span.Lo).Line
	}
	original := snippet(res.Source, d.fix.Span.Lo, d.fix.Span.Hi)
	return TransformationExplanation{
		Category:     d.cat,
		Title:        d.title,
		Original:     original,
		Transformed:  d.fix.Replacement,
		WhatChanged:  d.fix.Description,
		WhyItMatters: d.why,
		LineNumber:   line,
		Diff:         unifiedWordDiff(original, d.fix.Replacement),
	}
}

func snippet(source string, lo, hi int) string {
	if lo < 0 || hi > len(source) || lo > hi {
		return ""
	}
	return source[lo:hi]
}
