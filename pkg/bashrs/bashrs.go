// Package bashrs is the public library API from spec §6: lint, purify,
// apply-fixes, and parse over a shell source buffer, plus the
// file-level fan-out spec §5 allows callers to parallelize.
package bashrs

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/pool"
	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/internal/emit"
	"github.com/paiml/bashrs-sub019/internal/fixapply"
	"github.com/paiml/bashrs-sub019/internal/purify"
	"github.com/paiml/bashrs-sub019/internal/rules"
	"github.com/paiml/bashrs-sub019/internal/semantic"
	"github.com/paiml/bashrs-sub019/internal/shparse"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// Ast is the parsed shell syntax tree, handed to callers (e.g. editor
// tooling) that want it directly via Parse, per spec §6.
type Ast = syntax.File

// LintOptions configures Lint. The zero value runs every rule, with the
// dialect detected from the source alone (bash when nothing decides).
// Lint does not read FailSeverity, whose zero value is Info;
// LintResult.FailExitCode takes the threshold as its argument.
type LintOptions struct {
	Filename      string
	ShellHint     shparse.ShellKind
	HintSet       bool
	RulesEnabled  []string // empty means "all"
	RulesDisabled []string
	FailSeverity  diag.Severity
	MaxBytes      int
	Deadline      time.Time
}

// LintResult is the outcome of one Lint call.
type LintResult struct {
	RunID         string
	Diagnostics   []diag.Diagnostic
	ShellDetected shparse.ShellKind
	Summary       diag.Summary
}

// FailExitCode maps r against failSeverity to the exit code
// contract spec §6 defines for the CLI front end: 0 clean, 1 warnings
// at/above fail severity, 2 errors, 3 is reserved for parse/internal
// failure and is never returned from here.
func (r LintResult) FailExitCode(failSeverity diag.Severity) int {
	if r.Summary.Max < failSeverity {
		return 0
	}
	if r.Summary.Max >= diag.Error {
		return 2
	}
	return 1
}

// Lint runs the full C1-C7 pipeline (parse, semantic analysis, rule
// engine) over source and returns its diagnostics.
func Lint(ctx context.Context, source []byte, opts LintOptions) (*LintResult, error) {
	ctx = clog.ContextWithAttrs(ctx)
	clog.AddAttribute(ctx, clog.FileAttributeKey, opts.Filename)

	parsed, err := shparse.Parse(ctx, string(source), shparse.Options{
		Filename:  opts.Filename,
		ShellHint: opts.ShellHint,
		HintSet:   opts.HintSet,
		MaxBytes:  opts.MaxBytes,
		Deadline:  opts.Deadline,
	})
	if err != nil {
		return nil, err
	}

	sem := semantic.Analyze(ctx, parsed.FileID, parsed.SourceMap, parsed.File)
	rctx := &rules.Context{
		Ctx:      ctx,
		FileID:   parsed.FileID,
		Source:   parsed.Source,
		File:     parsed.File,
		Sem:      sem,
		SM:       parsed.SourceMap,
		Classify: astutil.Classify(parsed.File),
	}

	ds := diag.Merge(parsed.Diagnostics, filterRules(rules.Run(rctx), opts))
	return &LintResult{
		RunID:         newRunID(),
		Diagnostics:   ds,
		ShellDetected: parsed.ShellKind,
		Summary:       diag.Summarize(ds),
	}, nil
}

// filterRules drops diagnostics whose code isn't in RulesEnabled (when
// non-empty) or is in RulesDisabled. Parse diagnostics (code "PARSE")
// are never filtered: they aren't rule findings.
func filterRules(ds []diag.Diagnostic, opts LintOptions) []diag.Diagnostic {
	if len(opts.RulesEnabled) == 0 && len(opts.RulesDisabled) == 0 {
		return ds
	}
	enabled := toSet(opts.RulesEnabled)
	disabled := toSet(opts.RulesDisabled)
	out := make([]diag.Diagnostic, 0, len(ds))
	for _, d := range ds {
		if d.Code == "PARSE" {
			out = append(out, d)
			continue
		}
		if len(enabled) > 0 && !enabled[d.Code] {
			continue
		}
		if disabled[d.Code] {
			continue
		}
		out = append(out, d)
	}
	return out
}

func toSet(codes []string) map[string]bool {
	if len(codes) == 0 {
		return nil
	}
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// PurifyOptions configures Purify.
type PurifyOptions struct {
	Filename           string
	ShellHint          shparse.ShellKind
	HintSet            bool
	VersionSymbol      string
	IdentityTag        string
	SourceDateEpochVar string
	MaxBytes           int
}

// PurifyResult is the outcome of one Purify call.
type PurifyResult struct {
	RunID           string
	Output          []byte
	Transformations []purify.TransformationExplanation
	Diagnostics     []diag.Diagnostic
}

// Purify runs the C9 purifier (spec §4.9) to a fixed point over source.
// Purification is pure: identical source and PurifyOptions always
// produce a byte-identical Output.
func Purify(ctx context.Context, source []byte, opts PurifyOptions) (*PurifyResult, error) {
	res, err := purify.Purify(ctx, string(source), purify.Options{
		Filename:           opts.Filename,
		ShellHint:          opts.ShellHint,
		HintSet:            opts.HintSet,
		VersionSymbol:      opts.VersionSymbol,
		IdentityTag:        opts.IdentityTag,
		SourceDateEpochVar: opts.SourceDateEpochVar,
		MaxBytes:           opts.MaxBytes,
	})
	if err != nil {
		return nil, err
	}
	return &PurifyResult{
		RunID:           newRunID(),
		Output:          []byte(res.Output),
		Transformations: res.Transformations,
		Diagnostics:     res.Diagnostics,
	}, nil
}

// ApplyFixes splices fixes into source, per spec §4.8 (C8). It fails
// with a *cerr.FixError if any two fixes overlap or a fix span falls
// outside source.
func ApplyFixes(source []byte, fixes []diag.Fix) ([]byte, error) {
	out, _, err := fixapply.Apply(string(source), fixes)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Parse returns the AST for source directly, for callers (editor
// tooling) that want it without running semantic analysis or rules.
func Parse(ctx context.Context, source []byte, filename string) (*Ast, error) {
	res, err := shparse.Parse(ctx, string(source), shparse.Options{Filename: filename})
	if err != nil {
		return nil, err
	}
	return res.File, nil
}

// EmitTarget is the shell dialect Emit prints for.
type EmitTarget = emit.Target

const (
	// EmitBash allows bash-only constructs ([[ ]], arrays, process
	// substitution) to pass through unchanged.
	EmitBash EmitTarget = emit.TargetBash
	// EmitPOSIX fails with a *cerr.EmitError if the AST contains any
	// bash-only construct.
	EmitPOSIX EmitTarget = emit.TargetPOSIX
)

// Emit re-prints source deterministically (spec §4.10, C10): parse,
// run semantic analysis for the dialect fingerprint EmitPOSIX needs,
// then hand the AST to the printer. This is the round-trip surface
// `parse --format shell` and other re-emission callers use instead of
// reaching into internal/emit directly.
func Emit(ctx context.Context, source []byte, filename string, target EmitTarget) (string, error) {
	ctx = clog.ContextWithAttrs(ctx)
	parsed, err := shparse.Parse(ctx, string(source), shparse.Options{Filename: filename})
	if err != nil {
		return "", err
	}
	sem := semantic.Analyze(ctx, parsed.FileID, parsed.SourceMap, parsed.File)
	return emit.Emit(ctx, parsed.File, emit.Options{
		Target:      target,
		FileID:      parsed.FileID,
		SM:          parsed.SourceMap,
		Fingerprint: sem.Fingerprint,
	})
}

// newRunID mints a ULID for a LintResult/PurifyResult's RunID, used as
// the SARIF run id and the report-sink object key prefix. ULIDs are
// lexically sortable by creation time, which keeps report-sink listings
// in chronological order without a separate timestamp index.
func newRunID() string {
	return ulid.Make().String()
}

// File is one named source buffer for the LintFiles/PurifyFiles batch
// entry points.
type File struct {
	Name   string
	Source []byte
}

// FileLintResult pairs a File's name with its LintResult, or an error if
// that file failed to parse.
type FileLintResult struct {
	Name   string
	Result *LintResult
	Err    error
}

// LintFiles lints every file concurrently over a bounded worker pool,
// the "multiple files analysed in parallel" allowance spec §5 grants
// callers. maxConcurrency <= 0 leaves conc.Pool's own zero-value
// behaviour in place: unbounded, one goroutine per file.
func LintFiles(ctx context.Context, files []File, opts LintOptions, maxConcurrency int) []FileLintResult {
	results := make([]FileLintResult, len(files))
	p := newPool(maxConcurrency)
	for i, f := range files {
		i, f := i, f
		p.Go(func() {
			fileOpts := opts
			fileOpts.Filename = f.Name
			res, err := Lint(ctx, f.Source, fileOpts)
			results[i] = FileLintResult{Name: f.Name, Result: res, Err: err}
		})
	}
	p.Wait()
	return results
}

// FilePurifyResult pairs a File's name with its PurifyResult, or an
// error if that file failed to parse.
type FilePurifyResult struct {
	Name   string
	Result *PurifyResult
	Err    error
}

// PurifyFiles purifies every file concurrently, mirroring LintFiles.
func PurifyFiles(ctx context.Context, files []File, opts PurifyOptions, maxConcurrency int) []FilePurifyResult {
	results := make([]FilePurifyResult, len(files))
	p := newPool(maxConcurrency)
	for i, f := range files {
		i, f := i, f
		p.Go(func() {
			fileOpts := opts
			fileOpts.Filename = f.Name
			res, err := Purify(ctx, f.Source, fileOpts)
			results[i] = FilePurifyResult{Name: f.Name, Result: res, Err: err}
		})
	}
	p.Wait()
	return results
}

// newPool builds a conc worker pool, capped at maxConcurrency when
// positive and left to conc's own unbounded default otherwise.
func newPool(maxConcurrency int) *pool.Pool {
	p := pool.New()
	if maxConcurrency > 0 {
		p = p.WithMaxGoroutines(maxConcurrency)
	}
	return p
}
