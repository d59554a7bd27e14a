// Package cerr defines the error taxonomy from the specification's error
// handling design: the handful of kinds that are returned as control-flow
// errors from the public API (FixError, EmitError, Error::Budget), plus
// the lex/parse error kinds that are instead converted to diagnostics and
// never propagate past the parser.
package cerr

import (
	"errors"
	"fmt"

	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// Sentinel errors usable with errors.Is.
var (
	ErrOverlap            = errors.New("fix spans overlap")
	ErrOutOfRange         = errors.New("fix span out of range")
	ErrUnsupportedInPosix = errors.New("construct cannot be lowered to posix sh")
	ErrBudgetExceeded     = errors.New("run exceeded its byte or time budget")
)

// LexKind enumerates the ways the lexer can fail; see spec §4.2.
type LexKind int

const (
	UnterminatedQuote LexKind = iota
	UnterminatedHeredoc
	UnterminatedParamExpansion
	InvalidEscape
	// NoTokens means the lexer could not produce any tokens at all —
	// the only condition under which Parse fails outright (spec §4.3).
	NoTokens
)

func (k LexKind) String() string {
	switch k {
	case UnterminatedQuote:
		return "unterminated quote"
	case UnterminatedHeredoc:
		return "unterminated heredoc"
	case UnterminatedParamExpansion:
		return "unterminated parameter expansion"
	case InvalidEscape:
		return "invalid escape"
	case NoTokens:
		return "no tokens produced"
	default:
		return "lex error"
	}
}

// LexError is fatal for parsing but is always converted to a single Error
// diagnostic by the caller; it is never returned from the public API.
type LexError struct {
	Kind LexKind
	Span diag.Span
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Kind, e.Span.StartLn, e.Span.StartCol)
}

// ParseError records an unexpected token. The parser recovers locally by
// skipping to the next statement boundary and emits this as an Error
// diagnostic; it is never returned from the public API either.
type ParseError struct {
	Span    diag.Span
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Span.StartLn, e.Span.StartCol, e.Message)
}

// FixError is returned by apply_fixes on programmer-level misuse: an
// overlapping fix batch or a fix whose span falls outside the source.
type FixError struct {
	Err error // ErrOverlap or ErrOutOfRange
	Fix diag.Fix
}

func (e *FixError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, describeFix(e.Fix))
}

func (e *FixError) Unwrap() error { return e.Err }

func describeFix(f diag.Fix) string {
	return fmt.Sprintf("fix %q at [%d,%d)", f.Description, f.Span.Lo, f.Span.Hi)
}

// NewOverlapError wraps ErrOverlap with the offending fix for diagnosis.
func NewOverlapError(f diag.Fix) *FixError {
	return &FixError{Err: ErrOverlap, Fix: f}
}

// NewOutOfRangeError wraps ErrOutOfRange with the offending fix.
func NewOutOfRangeError(f diag.Fix) *FixError {
	return &FixError{Err: ErrOutOfRange, Fix: f}
}

// EmitError is returned by the emitter when an AST node cannot be
// represented in the requested target dialect (spec §4.10).
type EmitError struct {
	Span diag.Span
	Note string
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("%v at %d:%d: %s", ErrUnsupportedInPosix, e.Span.StartLn, e.Span.StartCol, e.Note)
}

func (e *EmitError) Unwrap() error { return ErrUnsupportedInPosix }

// BudgetError is cooperative cancellation triggered by an exceeded byte
// budget or wall deadline (spec §5). It is returned from the public API;
// any partial results produced before cancellation are discarded.
type BudgetError struct {
	Stage string // "parse", "rules", "purify"
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%v during %s", ErrBudgetExceeded, e.Stage)
}

func (e *BudgetError) Unwrap() error { return ErrBudgetExceeded }
