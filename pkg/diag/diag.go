// Package diag defines the diagnostic and fix data model shared by the
// rule engine (internal/rules), the fix applicator (internal/fixapply),
// and the purifier (internal/purify).
package diag

import "sort"

// Severity classifies a Diagnostic's importance.
type Severity int

const (
	// Info is informational; does not affect fail-on-severity exit codes
	// above Info.
	Info Severity = iota
	Note
	Warning
	Error
)

// String renders the severity the way human-format diagnostics do.
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "info"
	}
}

// Span is a half-open byte range [Lo, Hi) in a source buffer, with
// resolved line/column endpoints. FileID distinguishes spans across
// multiple files analysed together (e.g. batch lint runs).
type Span struct {
	FileID   string
	Lo, Hi   int
	StartLn  int
	StartCol int
	EndLn    int
	EndCol   int
}

// Zero reports whether the span is a zero-width span at Lo == Hi.
func (s Span) Zero() bool { return s.Lo == s.Hi }

// Fix is a single (span, replacement) edit proposed by a rule or a
// purifier transformation. Fixes from the same Diagnostic, and the
// accepted fix set across a whole run, must have pairwise non-overlapping
// spans — see fixapply.Apply.
type Fix struct {
	Span        Span
	Replacement string
	Description string
}

// Diagnostic is one finding: a rule code, severity, message, source span,
// and zero or more candidate fixes.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Span     Span
	Fixes    []Fix
}

// Overlaps reports whether two spans share any byte, used by fixapply to
// reject overlapping fix batches.
func (s Span) Overlaps(o Span) bool {
	return s.Lo < o.Hi && o.Lo < s.Hi
}

// Less implements the stable total order required by spec §5: by Lo, then
// Hi, then rule code lexicographically.
func Less(a, b Diagnostic) bool {
	if a.Span.Lo != b.Span.Lo {
		return a.Span.Lo < b.Span.Lo
	}
	if a.Span.Hi != b.Span.Hi {
		return a.Span.Hi < b.Span.Hi
	}
	return a.Code < b.Code
}

// Sort orders diagnostics in place using the stable total order from
// spec §5, so that two runs over identical input produce an identical
// diagnostic order.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool { return Less(ds[i], ds[j]) })
}

// Summary counts diagnostics by severity and tracks the maximum severity
// seen, the shape referenced but not spelled out by spec §4.6.
type Summary struct {
	Errors   int
	Warnings int
	Infos    int
	Notes    int
	Max      Severity
}

// Summarize computes a Summary over ds. An empty ds yields the zero
// Summary, whose Max (Info) matches "no diagnostics" semantics.
func Summarize(ds []Diagnostic) Summary {
	var s Summary
	for _, d := range ds {
		switch d.Severity {
		case Error:
			s.Errors++
		case Warning:
			s.Warnings++
		case Note:
			s.Notes++
		default:
			s.Infos++
		}
		if d.Severity > s.Max {
			s.Max = d.Severity
		}
	}
	return s
}

// Merge concatenates diagnostic lists from independent rules/components
// and returns them in the stable total order.
func Merge(lists ...[]Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, l := range lists {
		out = append(out, l...)
	}
	Sort(out)
	return out
}
