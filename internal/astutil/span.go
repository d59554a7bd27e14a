// Package astutil bridges mvdan.cc/sh/v3/syntax's AST (which bashrs uses
// directly as its own AST — see SPEC_FULL.md's Domain Stack section) with
// the specification's Span/Diagnostic data model, and provides the
// structural queries (quoting context, pattern-context, arithmetic
// context) that the context-sensitive rules in internal/rules need.
package astutil

import (
	"github.com/paiml/bashrs-sub019/pkg/diag"
	"github.com/paiml/bashrs-sub019/pkg/sourcemap"
	"mvdan.cc/sh/v3/syntax"
)

// SpanOf converts a syntax.Node's [Pos(), End()) range into a diag.Span
// resolved against sm, attributing it to fileID.
func SpanOf(fileID string, sm *sourcemap.Map, node syntax.Node) diag.Span {
	return SpanRange(fileID, sm, node.Pos(), node.End())
}

// SpanRange builds a diag.Span from an explicit [start, end) position
// pair, for callers that need to span more than one node (e.g. a rule
// wrapping a whole word list) or less than one (e.g. a zero-width
// insertion point for a fix).
func SpanRange(fileID string, sm *sourcemap.Map, start, end syntax.Pos) diag.Span {
	lo := int(start.Offset())
	hi := int(end.Offset())
	if hi < lo {
		hi = lo
	}
	startPos := sm.OffsetToPosition(lo)
	endPos := sm.OffsetToPosition(hi)
	return diag.Span{
		FileID:   fileID,
		Lo:       lo,
		Hi:       hi,
		StartLn:  startPos.Line,
		StartCol: startPos.Col,
		EndLn:    endPos.Line,
		EndCol:   endPos.Col,
	}
}

// WordText renders a Word's literal source text, used by rules and the
// purifier to inspect what a word looks like without fully re-printing
// it. It is a byte-range slice straight from the source buffer rather
// than a semantic re-serialization, so it is exact even for esoteric
// quoting the rules don't otherwise need to understand.
func WordText(source string, w *syntax.Word) string {
	if w == nil {
		return ""
	}
	lo := int(w.Pos().Offset())
	hi := int(w.End().Offset())
	if lo < 0 || hi > len(source) || lo > hi {
		return ""
	}
	return source[lo:hi]
}

// WordTextLit returns w's value when it is exactly one unquoted literal
// WordPart (the common shape of a command name or a fixed flag), and ""
// otherwise. Command-name dispatch in internal/semantic and internal/rules
// only needs to recognize fixed names like "mkdir" or "rm", never dynamic
// ones built from expansions, so this is deliberately conservative rather
// than falling back to source-text slicing.
func WordTextLit(w *syntax.Word) string {
	if w == nil || len(w.Parts) != 1 {
		return ""
	}
	lit, ok := w.Parts[0].(*syntax.Lit)
	if !ok {
		return ""
	}
	return lit.Value
}
