package clog

import "context"

type ctxKey struct{}

// ContextWithAttrs returns a derived context carrying a fresh attribute
// bag, used once at the start of a run (a lint, a purify, an HTTP
// request).
func ContextWithAttrs(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, newCtxSlog())
}

// AddAttribute records key/value on the current run's attribute bag, a
// no-op if ctx was never initialized with ContextWithAttrs.
func AddAttribute(ctx context.Context, key string, value any) {
	if l, ok := ctx.Value(ctxKey{}).(*ctxSlog); ok {
		l.add(key, value)
	}
}

// AddAttributes merges attrs into the current run's attribute bag.
func AddAttributes(ctx context.Context, attrs map[string]any) {
	if l, ok := ctx.Value(ctxKey{}).(*ctxSlog); ok {
		l.addAll(attrs)
	}
}

// Attribute fetches a single attribute by key.
func Attribute(ctx context.Context, key string) (any, bool) {
	if l, ok := ctx.Value(ctxKey{}).(*ctxSlog); ok {
		return l.get(key)
	}
	return nil, false
}

// Attributes snapshots all attributes recorded on ctx so far.
func Attributes(ctx context.Context) map[string]any {
	if l, ok := ctx.Value(ctxKey{}).(*ctxSlog); ok {
		return l.snapshot()
	}
	return nil
}

const (
	// FileAttributeKey names the file under analysis.
	FileAttributeKey = "bashrs.file"
	// StageAttributeKey names the pipeline stage currently executing.
	StageAttributeKey = "bashrs.stage"
	// RuleAttributeKey names the rule code currently executing.
	RuleAttributeKey = "bashrs.rule"
)
