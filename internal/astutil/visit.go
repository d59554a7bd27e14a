package astutil

import "mvdan.cc/sh/v3/syntax"

// Visit walks node pre-order, calling pre before descending into each
// node's children and post after. Either callback may be nil. pre
// returning false skips that node's children, and post is then not
// called for that node either — mirroring syntax.Walk's own contract.
//
// bashrs treats mvdan's syntax.File as its AST directly (see
// SPEC_FULL.md); this wrapper exists only to give callers the
// pre/post-order hook shape the specification's C4 describes, without
// bashrs code depending on syntax.Walk's exact pre/post signalling
// convention at every call site.
func Visit(node syntax.Node, pre, post func(syntax.Node) bool) {
	if node == nil {
		return
	}
	var stack []syntax.Node
	syntax.Walk(node, func(n syntax.Node) bool {
		if n == nil {
			// syntax.Walk signals "done with this node's children" by
			// calling back with nil, mirroring go/ast.Inspect.
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if post != nil {
					post(top)
				}
			}
			return false
		}
		if pre != nil && !pre(n) {
			// Walk never calls back with nil for a skipped node, so it
			// must not be pushed.
			return false
		}
		stack = append(stack, n)
		return true
	})
}

// SourceRangeOf returns the contiguous byte range a statement occupies
// in the source, including its trailing terminator (semicolon or
// newline) when includeTerminator is set and s.Semicolon is valid.
func SourceRangeOf(source string, s *syntax.Stmt, includeTerminator bool) (lo, hi int) {
	lo = int(s.Pos().Offset())
	hi = int(s.End().Offset())
	if includeTerminator && s.Semicolon.IsValid() {
		semiOff := int(s.Semicolon.Offset())
		if semiOff+1 <= len(source) && semiOff >= hi {
			hi = semiOff + 1
		}
	}
	if hi > len(source) {
		hi = len(source)
	}
	return lo, hi
}
