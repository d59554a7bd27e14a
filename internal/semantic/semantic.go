// Package semantic implements the one-pass semantic analyzer from spec
// §4.5: variable scopes, an effect classification per statement, and the
// shell-dialect fingerprint that the purifier's shebang normalization and
// the emitter's POSIX-target check consult.
package semantic

import (
	"context"
	"log/slog"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/paiml/bashrs-sub019/internal/astutil"
	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/pkg/diag"
	"github.com/paiml/bashrs-sub019/pkg/sourcemap"
)

// ScopeKind is the kind of a Scope.
type ScopeKind int

const (
	GlobalScope ScopeKind = iota
	FunctionScope
	SubshellScope
)

// Symbol records what the analyzer learned about one identifier within a
// scope.
type Symbol struct {
	Name         string
	DeclaredAt   diag.Span
	Exported     bool
	ReadOnly     bool
	LastAssigned *diag.Span
	ReadSites    []diag.Span
}

// Scope is a symbol table for one lexical region: the file's global
// scope, a function body, or a subshell.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	Symbols map[string]*Symbol
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, Symbols: make(map[string]*Symbol)}
}

// lookup walks outward through enclosing scopes — a function body can
// read a variable assigned in the global scope, but not the reverse.
func (s *Scope) lookup(name string) (*Symbol, *Scope) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Symbols[name]; ok {
			return sym, cur
		}
	}
	return nil, nil
}

// Effect classifies the side effect of one statement.
type Effect int

const (
	PureCompute Effect = iota
	FileWrite
	FileRead
	Network
	ProcessSpawn
	EnvMutation
	UnknownEffect
)

var effectByCommand = map[string]Effect{
	"mkdir": FileWrite, "rm": FileWrite, "mv": FileWrite, "cp": FileWrite,
	"touch": FileWrite, "ln": FileWrite, "tee": FileWrite, "chmod": FileWrite,
	"chown": FileWrite, "truncate": FileWrite, "rmdir": FileWrite,
	"cat": FileRead, "head": FileRead, "tail": FileRead, "less": FileRead,
	"curl": Network, "wget": Network, "ssh": Network, "scp": Network, "rsync": Network, "nc": Network,
	"export": EnvMutation, "unset": EnvMutation, "readonly": EnvMutation, "declare": EnvMutation,
	"eval": ProcessSpawn, "exec": ProcessSpawn, "source": ProcessSpawn, ".": ProcessSpawn,
}

// DialectFingerprint records evidence for bash-only, zsh-only, and
// POSIX-only feature usage, per spec §4.5.
type DialectFingerprint struct {
	BashOnly []diag.Span
	ZshOnly  []diag.Span
}

// Result is the output of Analyze: the symbol tables, per-statement
// effects, and the dialect fingerprint.
type Result struct {
	Global     *Scope
	Effects    map[*syntax.Stmt]Effect
	Fingerprint DialectFingerprint
}

// EffectOf returns the effect recorded for s, or UnknownEffect if s was
// not visited.
func (r *Result) EffectOf(s *syntax.Stmt) Effect {
	if r == nil {
		return UnknownEffect
	}
	if e, ok := r.Effects[s]; ok {
		return e
	}
	return UnknownEffect
}

// analyzer carries the per-run state threaded through the single pass.
type analyzer struct {
	fileID string
	sm     *sourcemap.Map
	result *Result
}

// Analyze performs the single semantic pass over file. It never fails:
// unresolved variables are marked external rather than reported as
// errors (spec §4.5).
func Analyze(ctx context.Context, fileID string, sm *sourcemap.Map, file *syntax.File) *Result {
	clog.AddAttribute(ctx, clog.StageAttributeKey, "semantic")
	start := time.Now()
	slog.DebugContext(ctx, "semantic: start", clog.StageAttributeKey, "semantic", clog.FileAttributeKey, fileID)

	a := &analyzer{
		fileID: fileID,
		sm:     sm,
		result: &Result{
			Global:  newScope(GlobalScope, nil),
			Effects: make(map[*syntax.Stmt]Effect),
		},
	}
	for _, stmt := range file.Stmts {
		a.stmt(stmt, a.result.Global)
	}

	slog.DebugContext(ctx, "semantic: done",
		clog.StageAttributeKey, "semantic", clog.FileAttributeKey, fileID,
		"elapsed", time.Since(start), "symbols", len(a.result.Global.Symbols))
	return a.result
}

func (a *analyzer) span(node syntax.Node) diag.Span {
	return astutil.SpanOf(a.fileID, a.sm, node)
}

func (a *analyzer) stmt(s *syntax.Stmt, scope *Scope) {
	if s == nil {
		return
	}
	a.result.Effects[s] = a.classifyEffect(s)
	// Leading `FOO=bar cmd` assignments live on the Stmt itself, not on
	// whatever Command it wraps.
	for _, asn := range s.Assigns {
		a.assign(asn, scope, false)
	}
	a.command(s.Cmd, scope)
}

func (a *analyzer) stmts(list []*syntax.Stmt, scope *Scope) {
	for _, st := range list {
		a.stmt(st, scope)
	}
}

func (a *analyzer) command(cmd syntax.Command, scope *Scope) {
	switch x := cmd.(type) {
	case *syntax.CallExpr:
		for i := range x.Args {
			if i == 0 {
				continue // the command name itself is not a variable read
			}
			a.recordReads(&x.Args[i], scope)
		}
	case *syntax.DeclClause:
		exported := x.Variant == "export"
		readonly := x.Variant == "readonly"
		local := x.Variant == "local"
		for _, asn := range x.Assigns {
			a.declAssign(asn, scope, exported, readonly, local)
		}
	case *syntax.BinaryCmd:
		a.stmt(x.X, scope)
		a.stmt(x.Y, scope)
	case *syntax.Block:
		a.stmts(x.Stmts, scope)
	case *syntax.Subshell:
		sub := newScope(SubshellScope, scope)
		a.stmts(x.Stmts, sub)
	case *syntax.IfClause:
		a.stmts(x.CondStmts, scope)
		a.stmts(x.ThenStmts, scope)
		for _, elf := range x.Elifs {
			a.stmts(elf.CondStmts, scope)
			a.stmts(elf.ThenStmts, scope)
		}
		a.stmts(x.ElseStmts, scope)
	case *syntax.WhileClause:
		a.stmts(x.CondStmts, scope)
		a.stmts(x.DoStmts, scope)
	case *syntax.UntilClause:
		a.stmts(x.CondStmts, scope)
		a.stmts(x.DoStmts, scope)
	case *syntax.ForClause:
		if wi, ok := x.Loop.(*syntax.WordIter); ok {
			a.declareLoopVar(&wi.Name, scope)
			for i := range wi.List {
				a.recordReads(&wi.List[i], scope)
			}
		}
		a.stmts(x.DoStmts, scope)
	case *syntax.CaseClause:
		a.recordReads(&x.Word, scope)
		for _, pl := range x.List {
			a.stmts(pl.Stmts, scope)
		}
	case *syntax.FuncDecl:
		fnScope := newScope(FunctionScope, scope)
		a.stmt(x.Body, fnScope)
	}
	a.fingerprint(cmd)
}

func (a *analyzer) declareLoopVar(name *syntax.Lit, scope *Scope) {
	if name == nil {
		return
	}
	sp := a.span(name)
	scope.Symbols[name.Value] = &Symbol{Name: name.Value, DeclaredAt: sp, LastAssigned: &sp}
}

func (a *analyzer) assign(asn *syntax.Assign, scope *Scope, exported bool) {
	if asn.Name == nil {
		return
	}
	sp := a.span(asn)
	sym, _ := scope.lookup(asn.Name.Value)
	if sym == nil {
		sym = &Symbol{Name: asn.Name.Value, DeclaredAt: sp}
		scope.Symbols[asn.Name.Value] = sym
	}
	sym.LastAssigned = &sp
	if exported {
		sym.Exported = true
	}
	if len(asn.Value.Parts) > 0 {
		a.recordReads(&asn.Value, scope)
	}
}

func (a *analyzer) declAssign(asn *syntax.Assign, scope *Scope, exported, readonly, local bool) {
	if local && asn.Name != nil && scope.Kind == FunctionScope {
		// `local` restricts visibility to the function scope: home the
		// symbol on scope itself before assigning, so the assignment never
		// lands on an outer variable of the same name.
		if _, ok := scope.Symbols[asn.Name.Value]; !ok {
			scope.Symbols[asn.Name.Value] = &Symbol{Name: asn.Name.Value, DeclaredAt: a.span(asn)}
		}
	}
	a.assign(asn, scope, exported)
	if asn.Name == nil {
		return
	}
	sym, _ := scope.lookup(asn.Name.Value)
	if sym == nil {
		return
	}
	if readonly {
		sym.ReadOnly = true
	}
}

// recordReads walks w for ParamExp variable references and records a
// read site against the owning scope's symbol table (or marks the name
// external if it resolves to nothing bashrs assigned).
func (a *analyzer) recordReads(w *syntax.Word, scope *Scope) {
	if w == nil {
		return
	}
	var walk func(parts []syntax.WordPart)
	walk = func(parts []syntax.WordPart) {
		for _, part := range parts {
			switch p := part.(type) {
			case *syntax.ParamExp:
				if p.Param != nil {
					a.recordRead(p.Param.Value, a.span(p), scope)
				}
				if p.Repl != nil {
					walk(p.Repl.Orig.Parts)
					if p.Repl.With != nil {
						walk(p.Repl.With.Parts)
					}
				}
			case *syntax.DblQuoted:
				walk(p.Parts)
			case *syntax.CmdSubst:
				for _, st := range p.Stmts {
					a.stmt(st, scope)
				}
			case *syntax.ArithmExp:
				// Arithmetic operands are words too; walked separately
				// by the classifier where precision matters for rules.
			}
		}
	}
	walk(w.Parts)
}

func (a *analyzer) recordRead(name string, sp diag.Span, scope *Scope) {
	if isSpecialVar(name) {
		return
	}
	sym, _ := scope.lookup(name)
	if sym == nil {
		// Unresolved: record as an external symbol in the global scope
		// so SC2154 can see it was read but never assigned, without
		// ever treating this as an error (spec §4.5).
		sym = &Symbol{Name: name}
		a.result.Global.Symbols[name] = sym
	}
	sym.ReadSites = append(sym.ReadSites, sp)
}

func isSpecialVar(name string) bool {
	switch name {
	case "?", "!", "$", "#", "@", "*", "0", "_", "RANDOM", "SECONDS", "BASHPID",
		"PPID", "LINENO", "IFS", "PATH", "HOME", "USER", "PWD", "OLDPWD", "SHELL",
		"UID", "EUID", "HOSTNAME", "OSTYPE", "BASH_VERSION", "ZSH_VERSION":
		return true
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return true
	}
	return false
}

func (a *analyzer) classifyEffect(s *syntax.Stmt) Effect {
	call, ok := s.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		if len(s.Redirs) > 0 {
			return FileWrite
		}
		return PureCompute
	}
	name := astutil.WordTextLit(&call.Args[0])
	if e, ok := effectByCommand[name]; ok {
		return e
	}
	if len(s.Redirs) > 0 {
		return FileWrite
	}
	return UnknownEffect
}

// fingerprint records evidence of bash-only or zsh-only syntax, used by
// the emitter's POSIX-target check and the purifier's
// shebang-normalization transform.
func (a *analyzer) fingerprint(cmd syntax.Command) {
	switch x := cmd.(type) {
	case *syntax.TestClause:
		a.result.Fingerprint.BashOnly = append(a.result.Fingerprint.BashOnly, a.span(x))
	case *syntax.DeclClause:
		a.result.Fingerprint.BashOnly = append(a.result.Fingerprint.BashOnly, a.span(x))
	case *syntax.CallExpr:
		for i := range x.Args {
			w := &x.Args[i]
			for _, part := range w.Parts {
				if _, ok := part.(*syntax.ProcSubst); ok {
					a.result.Fingerprint.BashOnly = append(a.result.Fingerprint.BashOnly, a.span(w))
				}
				if pe, ok := part.(*syntax.ParamExp); ok && pe.Excl {
					a.result.Fingerprint.BashOnly = append(a.result.Fingerprint.BashOnly, a.span(w))
				}
			}
		}
		if len(x.Args) > 0 {
			switch astutil.WordTextLit(&x.Args[0]) {
			case "mapfile", "readarray":
				a.result.Fingerprint.BashOnly = append(a.result.Fingerprint.BashOnly, a.span(x))
			case "setopt", "unsetopt", "autoload":
				a.result.Fingerprint.ZshOnly = append(a.result.Fingerprint.ZshOnly, a.span(x))
			}
		}
	}
}

// IsPOSIXOnly reports whether the fingerprint shows no bash-only and no
// zsh-only evidence, the condition the purifier's shebang-normalization
// transform requires before downgrading `#!/bin/bash` to `#!/bin/sh`.
func (f DialectFingerprint) IsPOSIXOnly() bool {
	return len(f.BashOnly) == 0 && len(f.ZshOnly) == 0
}
