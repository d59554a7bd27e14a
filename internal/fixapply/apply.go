// Package fixapply implements the fix applicator from spec §4.8 (C8): a
// non-overlapping, span-indexed rewrite of the source buffer driven by
// the fixes a lint run collected.
package fixapply

import (
	"sort"
	"strings"

	"github.com/paiml/bashrs-sub019/internal/cerr"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// Applied records the outcome of applying one fix: its original span and
// the span it occupies in the resulting text.
type Applied struct {
	Fix     diag.Fix
	NewSpan diag.Span
}

// Apply validates that fixes are pairwise non-overlapping and in range,
// then splices source in a single ascending left-to-right pass, which
// produces the same byte-identical result as spec §4.8's "sort
// descending, splice right-to-left" without needing to re-walk the
// buffer after each edit (see DESIGN.md's Open Question decision).
func Apply(source string, fixes []diag.Fix) (string, []Applied, error) {
	if len(fixes) == 0 {
		return source, nil, nil
	}

	ordered := make([]diag.Fix, len(fixes))
	copy(ordered, fixes)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Span.Lo != ordered[j].Span.Lo {
			return ordered[i].Span.Lo < ordered[j].Span.Lo
		}
		return ordered[i].Span.Hi < ordered[j].Span.Hi
	})

	for i, f := range ordered {
		if f.Span.Lo < 0 || f.Span.Hi > len(source) || f.Span.Lo > f.Span.Hi {
			return "", nil, cerr.NewOutOfRangeError(f)
		}
		if i > 0 && ordered[i-1].Span.Overlaps(f.Span) {
			return "", nil, cerr.NewOverlapError(f)
		}
	}

	// Walk the ascending-sorted fixes once, copying the untouched gap
	// before each fix then its replacement; offsets into source stay
	// valid throughout since we only ever read source[last:], never
	// anything already consumed.
	var b strings.Builder
	b.Grow(len(source))
	applied := make([]Applied, len(ordered))
	last := 0
	for i, f := range ordered {
		b.WriteString(source[last:f.Span.Lo])
		newLo := b.Len()
		b.WriteString(f.Replacement)
		newHi := b.Len()
		applied[i] = Applied{
			Fix: f,
			NewSpan: diag.Span{
				FileID: f.Span.FileID,
				Lo:     newLo,
				Hi:     newHi,
			},
		}
		last = f.Span.Hi
	}
	b.WriteString(source[last:])

	return b.String(), applied, nil
}

// AllFixes flattens every fix attached to every diagnostic in ds, the
// shape Apply expects as its second argument.
func AllFixes(ds []diag.Diagnostic) []diag.Fix {
	var out []diag.Fix
	for _, d := range ds {
		out = append(out, d.Fixes...)
	}
	return out
}
