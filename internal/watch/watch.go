// Package watch re-lints a directory of shell scripts as they change, a
// local dev loop adapted from the teacher's backend/pkg/sentinel
// debounce-on-fsnotify pattern.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/pkg/bashrs"
)

// Debounce is how long Watch waits after the last filesystem event
// before re-linting, collapsing an editor's burst of writes into one
// run per settle period, the same purpose the teacher's sentinel
// debounce window serves.
const Debounce = 200 * time.Millisecond

// Event is one re-lint outcome, delivered to the caller's handler.
type Event struct {
	Path   string
	Result *bashrs.LintResult
	Err    error
}

// Handler receives one Event per changed file, once that file's own
// debounce window has settled.
type Handler func(Event)

// Watch watches dir for writes to shell-script files and invokes handle
// with a fresh LintResult each time one settles, until ctx is canceled.
func Watch(ctx context.Context, dir string, opts bashrs.LintOptions, handle Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	ctx = clog.ContextWithAttrs(ctx)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isShellFile(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := ev.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(Debounce, func() {
				handle(relint(ctx, path, opts))
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			clog.AddAttribute(ctx, "bashrs.watch_error", err.Error())
		}
	}
}

func isShellFile(name string) bool {
	switch filepath.Ext(name) {
	case ".sh", ".bash", ".zsh", ".ksh":
		return true
	default:
		return strings.HasPrefix(filepath.Base(name), ".bashrc") ||
			strings.HasPrefix(filepath.Base(name), ".zshrc")
	}
}

func relint(ctx context.Context, path string, opts bashrs.LintOptions) Event {
	src, err := os.ReadFile(path)
	if err != nil {
		return Event{Path: path, Err: err}
	}
	fileOpts := opts
	fileOpts.Filename = path
	res, err := bashrs.Lint(ctx, src, fileOpts)
	return Event{Path: path, Result: res, Err: err}
}
