// Package shparse implements the lexer/parser stages (spec §4.2, §4.3) by
// driving mvdan.cc/sh/v3/syntax's parser, which already supplies
// maximal-munch tokenization, quoting-context tracking, heredoc handling,
// and statement-boundary error recovery. bashrs owns the shell-dialect
// decision (shellkind.go), the translation of parse errors into the
// specification's diagnostic model, and the byte-budget/deadline
// cooperative cancellation from spec §5.
package shparse

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/internal/cerr"
	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/pkg/diag"
	"github.com/paiml/bashrs-sub019/pkg/panicerr"
	"github.com/paiml/bashrs-sub019/pkg/sourcemap"
)

// Options configures a Parse call.
type Options struct {
	// Filename feeds shell-kind detection (extension/dotfile rules) and
	// is attached to every Span produced from this file.
	Filename string
	// ShellHint, when HintSet, outranks even the shellcheck directive
	// (see shellkind.go's DetectShellKind doc comment).
	ShellHint ShellKind
	HintSet   bool
	// MaxBytes is an optional byte budget (spec §5); 0 means unbounded.
	MaxBytes int
	// Deadline is an optional wall-clock deadline; zero means unbounded.
	Deadline time.Time
}

// Result is the outcome of parsing one file: the AST (mvdan's syntax.File
// used directly as bashrs's AST), the resolved shell dialect, the source
// map built over the buffer, and any parse diagnostics recovered along
// the way.
type Result struct {
	File        *syntax.File
	ShellKind   ShellKind
	SourceMap   *sourcemap.Map
	Source      string
	FileID      string
	Diagnostics []diag.Diagnostic
}

// maxRecoveredErrors bounds how many parse errors a single run will
// recover from before giving up, so a maximally malformed file can't
// make the parser loop forever re-synchronizing.
const maxRecoveredErrors = 200

// Parse runs the lexer and parser over source, producing an AST plus any
// recovered parse diagnostics. It fails only if the lexer could not
// produce any tokens at all (spec §4.3) or the byte budget/deadline was
// already exceeded before starting.
func Parse(ctx context.Context, source string, opts Options) (*Result, error) {
	start := time.Now()
	if opts.MaxBytes > 0 && len(source) > opts.MaxBytes {
		err := &cerr.BudgetError{Stage: "parse"}
		slog.WarnContext(ctx, "parse: budget exceeded", clog.StageAttributeKey, "parse", clog.FileAttributeKey, opts.Filename, "err", err.Error())
		return nil, err
	}
	if !opts.Deadline.IsZero() && time.Now().After(opts.Deadline) {
		err := &cerr.BudgetError{Stage: "parse"}
		slog.WarnContext(ctx, "parse: deadline exceeded", clog.StageAttributeKey, "parse", clog.FileAttributeKey, opts.Filename, "err", err.Error())
		return nil, err
	}

	sm := sourcemap.New(source)
	kind := DetectShellKind(source, opts.Filename, opts.ShellHint, opts.HintSet)
	fileID := opts.Filename
	if fileID == "" {
		fileID = "<input>"
	}

	clog.AddAttribute(ctx, clog.FileAttributeKey, fileID)
	clog.AddAttribute(ctx, clog.StageAttributeKey, "parse")
	slog.DebugContext(ctx, "parse: start", clog.StageAttributeKey, "parse", clog.FileAttributeKey, fileID, "shell", kind.String())

	parser := syntax.NewParser(
		syntax.KeepComments(true),
		syntax.Variant(kind.langVariant()),
		syntax.RecoverErrors(maxRecoveredErrors),
	)

	var (
		file *syntax.File
		errs []error
	)
	runErr := panicerr.Call(func() error {
		f, err := parser.Parse(strings.NewReader(source), fileID)
		file = f
		if err != nil {
			errs = append(errs, flattenParseErrors(err)...)
		}
		return nil
	})
	if runErr != nil {
		return nil, &cerr.LexError{Kind: cerr.NoTokens, Span: diag.Span{FileID: fileID}}
	}
	if file == nil {
		return nil, &cerr.LexError{Kind: cerr.NoTokens, Span: diag.Span{FileID: fileID}}
	}

	diags := make([]diag.Diagnostic, 0, len(errs))
	for _, e := range errs {
		diags = append(diags, parseErrorDiagnostic(fileID, sm, e))
	}
	diag.Sort(diags)

	slog.DebugContext(ctx, "parse: done",
		clog.StageAttributeKey, "parse", clog.FileAttributeKey, fileID,
		"elapsed", time.Since(start), "errors", len(diags))

	return &Result{
		File:        file,
		ShellKind:   kind,
		SourceMap:   sm,
		Source:      source,
		FileID:      fileID,
		Diagnostics: diags,
	}, nil
}

// flattenParseErrors unwraps the error(s) mvdan's parser returns. With
// RecoverErrors enabled it may return a single error whose message
// concatenates multiple recovered syntax errors; each is still reported
// as an individual Error diagnostic so the caller sees exactly what was
// skipped.
func flattenParseErrors(err error) []error {
	if err == nil {
		return nil
	}
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		return u.Unwrap()
	}
	return []error{err}
}

func parseErrorDiagnostic(fileID string, sm *sourcemap.Map, err error) diag.Diagnostic {
	var span diag.Span
	var msg string
	if pe, ok := err.(syntax.ParseError); ok {
		span = astutil.SpanRange(fileID, sm, pe.Pos, pe.Pos)
		msg = pe.Text
	} else {
		msg = err.Error()
	}
	return diag.Diagnostic{
		Code:     "PARSE",
		Severity: diag.Error,
		Message:  msg,
		Span:     span,
	}
}
