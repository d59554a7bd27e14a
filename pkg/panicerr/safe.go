// Package panicerr guards rule execution and the parser call so that a
// single misbehaving rule, or a parser panic, cannot take down an entire
// lint or purify run.
package panicerr

import (
	"github.com/sourcegraph/conc/panics"
)

// Safe wraps fn, catching any panic and converting it into an error
// instead of letting it propagate. The rule engine runs every rule
// through Call (and so through Safe): a rule that panics contributes no
// diagnostics, and the run goes on without it.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// Call runs fn through Safe immediately and returns its error, for call
// sites that don't need the wrapped closure form.
func Call(fn func() error) error {
	return Safe(fn)()
}
