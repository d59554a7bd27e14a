// Command bashrs is the CLI front end over the pkg/bashrs library API,
// shaped after cmd/taskguild/main.go's kingpin command tree: one
// subcommand per operation, flags parsed up front into package-level
// vars, each command dispatched from a single switch in main.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/internal/config"
	"github.com/paiml/bashrs-sub019/internal/httpapi"
	"github.com/paiml/bashrs-sub019/internal/reportsink"
	"github.com/paiml/bashrs-sub019/internal/watch"
	"github.com/paiml/bashrs-sub019/pkg/bashrs"
	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// cliEnv is loaded before the flag vars below so --fail-severity's
// Default can reference it directly; Go initializes package-level vars
// in dependency order, so this is safe regardless of declaration order
// within the file.
var cliEnv = mustLoadEnv()

func mustLoadEnv() *config.Env {
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("loading environment: %v", err)
	}
	return env
}

var (
	app = kingpin.New("bashrs", "Bash linter and purifier")

	lintCmd       = app.Command("lint", "Lint one or more shell scripts")
	lintFiles     = lintCmd.Arg("file", "Script path").Required().Strings()
	lintFormat    = lintCmd.Flag("format", "Output format: human, json, yaml, sarif").Default("human").String()
	lintRulesIn   = lintCmd.Flag("enable", "Only run these rule codes").Strings()
	lintRulesOut  = lintCmd.Flag("disable", "Skip these rule codes").Strings()
	lintFailLevel = lintCmd.Flag("fail-severity", "Minimum severity that fails the run: info, note, warning, error").Default(cliEnv.FailSeverity).String()

	purifyCmd       = app.Command("purify", "Rewrite a shell script into a deterministic, idempotent form")
	purifyFiles     = purifyCmd.Arg("file", "Script path").Required().Strings()
	purifyWrite     = purifyCmd.Flag("write", "Overwrite the file in place instead of printing to stdout").Bool()
	purifyVersion   = purifyCmd.Flag("version-symbol", "Parameter name that $RANDOM and timestamp expansions are rewritten to read").Default("VERSION").String()
	purifyIdentity  = purifyCmd.Flag("identity-tag", "Replacement token for $$/$PPID").Default("00000").String()
	purifyShowDiffs = purifyCmd.Flag("explain", "Print the transformations applied").Bool()

	parseCmd    = app.Command("parse", "Parse a script and print its AST")
	parseFile   = parseCmd.Arg("file", "Script path").Required().String()
	parseFormat = parseCmd.Flag("format", "Output format: ast, shell").Default("ast").String()

	watchCmd = app.Command("watch", "Watch a directory and re-lint on change")
	watchDir = watchCmd.Arg("dir", "Directory to watch").Required().String()

	serveCmd  = app.Command("serve", "Run the lint/purify HTTP service")
	serveAddr = serveCmd.Flag("addr", "Address to bind to").Default(":8080").String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	slog.SetDefault(slog.New(clog.NewAttributesHandler(
		clog.NewTextHandler(os.Stderr, clog.WithLevel(cliEnv.SlogLevel())))))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink, err := cliEnv.NewStorage(ctx)
	if err != nil {
		log.Fatalf("building report sink: %v", err)
	}

	var runErr error
	switch command {
	case lintCmd.FullCommand():
		var code int
		code, runErr = runLint(ctx, os.Stdout, sink)
		if runErr == nil {
			os.Exit(code)
		}
	case purifyCmd.FullCommand():
		runErr = runPurify(ctx, os.Stdout, sink)
	case parseCmd.FullCommand():
		runErr = runParse(ctx, os.Stdout)
	case watchCmd.FullCommand():
		runErr = runWatch(ctx, os.Stdout)
	case serveCmd.FullCommand():
		runErr = runServe(ctx, sink)
	}
	if runErr != nil {
		log.Fatalf("bashrs: %v", runErr)
	}
}

// runLint lints every file given on the command line and returns the
// exit code spec §6 defines (0 clean, 1 warnings at/above fail
// severity, 2 errors), the worst outcome across all files. Each file's
// JSON rendering is best-effort persisted through sink, keyed by RunID,
// for CI provenance.
func runLint(ctx context.Context, w io.Writer, sink reportsink.Storage) (int, error) {
	failSeverity, err := parseSeverity(*lintFailLevel)
	if err != nil {
		return 0, err
	}

	worst := diag.Info
	for _, path := range *lintFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		res, err := bashrs.Lint(ctx, src, bashrs.LintOptions{
			Filename:      path,
			RulesEnabled:  *lintRulesIn,
			RulesDisabled: *lintRulesOut,
			FailSeverity:  failSeverity,
		})
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		if res.Summary.Max > worst {
			worst = res.Summary.Max
		}
		persistReport(ctx, sink, path, res.RunID, res)
		if err := renderLint(w, path, res); err != nil {
			return 0, err
		}
	}

	overall := bashrs.LintResult{Summary: diag.Summary{Max: worst}}
	return overall.FailExitCode(failSeverity), nil
}

// persistReport best-effort writes v's JSON rendering to sink, keyed by
// runID/path.json. A nil sink or a write failure never fails the run;
// CI provenance is a convenience, not part of the lint/purify contract.
func persistReport(ctx context.Context, sink reportsink.Storage, path, runID string, v any) {
	if sink == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "bashrs: report marshal failed", "err", err.Error())
		return
	}
	key := reportsink.Key(runID, path, "json")
	if err := sink.Put(ctx, key, data); err != nil {
		slog.WarnContext(ctx, "bashrs: report persist failed", "key", key, "err", err.Error())
	}
}

func renderLint(w io.Writer, path string, res *bashrs.LintResult) error {
	switch *lintFormat {
	case "json":
		out, err := res.ToJSON(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := res.ToYAML(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "sarif":
		out, err := res.ToSARIF(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		_, err := fmt.Fprint(w, coloredHuman(path, res))
		return err
	}
}

func runPurify(ctx context.Context, w io.Writer, sink reportsink.Storage) error {
	for _, path := range *purifyFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		res, err := bashrs.Purify(ctx, src, bashrs.PurifyOptions{
			Filename:      path,
			VersionSymbol: *purifyVersion,
			IdentityTag:   *purifyIdentity,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		persistReport(ctx, sink, path, res.RunID, res)

		if *purifyShowDiffs {
			for _, t := range res.Transformations {
				fmt.Fprintf(w, "--- %s: %s\n", path, t.Category)
				fmt.Fprintln(w, t.Diff)
			}
		}

		if *purifyWrite {
			if err := os.WriteFile(path, res.Output, 0o644); err != nil {
				return err
			}
			continue
		}
		if _, err := w.Write(res.Output); err != nil {
			return err
		}
	}
	return nil
}

func runParse(ctx context.Context, w io.Writer) error {
	src, err := os.ReadFile(*parseFile)
	if err != nil {
		return err
	}
	if *parseFormat == "shell" {
		out, err := bashrs.Emit(ctx, src, *parseFile, bashrs.EmitBash)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, out)
		return err
	}
	ast, err := bashrs.Parse(ctx, src, *parseFile)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%#v\n", ast)
	return err
}

func runWatch(ctx context.Context, w io.Writer) error {
	fmt.Fprintf(w, "watching %s (ctrl-c to stop)\n", *watchDir)
	return watch.Watch(ctx, *watchDir, bashrs.LintOptions{}, func(ev watch.Event) {
		if ev.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", ev.Path, ev.Err)
			return
		}
		fmt.Fprint(w, coloredHuman(ev.Path, ev.Result))
	})
}

func runServe(ctx context.Context, sink reportsink.Storage) error {
	srv := httpapi.NewRouter(sink)
	httpSrv := &http.Server{Addr: *serveAddr, Handler: srv, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("bashrs serving on %s\n", *serveAddr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseSeverity(s string) (diag.Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return diag.Info, nil
	case "note":
		return diag.Note, nil
	case "warning":
		return diag.Warning, nil
	case "error":
		return diag.Error, nil
	default:
		return diag.Info, fmt.Errorf("unknown severity %q", s)
	}
}
