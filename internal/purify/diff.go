package purify

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// unifiedWordDiff renders a small unified diff between the text a
// transformation replaced and what it replaced it with, for the
// TransformationExplanation report spec §4.9 requires. Unlike a
// line-oriented diff, original/transformed are usually a single
// statement fragment, so the diff is computed over that fragment split
// on its own newlines (falling back to one pseudo-line when there are
// none) rather than over the whole file.
func unifiedWordDiff(original, transformed string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(transformed),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return strings.TrimRight(text, "\n")
}
