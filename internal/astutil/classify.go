package astutil

import "mvdan.cc/sh/v3/syntax"

// WordContext classifies the syntactic position a Word was found in,
// which is exactly the information spec §4.7's SC2086 contract needs to
// decide whether an unquoted expansion is splitting-sensitive.
type WordContext int

const (
	Unknown WordContext = iota
	// CommandArg is an argument word of a simple command — the only
	// context in which an unquoted expansion is actually at risk of
	// word-splitting/globbing the way SC2086 cares about.
	CommandArg
	// CommandName is a simple command's own name word.
	CommandName
	// AssignRHS is the value word of an assignment (a Stmt's leading
	// Assigns, or DeclClause.Assigns).
	AssignRHS
	// CasePattern is a pattern word of a case item.
	CasePattern
	// RedirectTarget is a redirection's target word.
	RedirectTarget
	// ArithOperand is a word used directly as an arithmetic operand
	// inside `(( ))`, a C-style for-loop header, or an array index —
	// none of these split on IFS.
	ArithOperand
	// TestOperand is an operand word of a `[[ ]]` test expression,
	// which bash parses without word-splitting.
	TestOperand
)

// Classification is the result of walking a file: a lookup from word
// identity to the context it was found in.
type Classification struct {
	ctx map[*syntax.Word]WordContext
}

// ContextOf returns the recorded context for w, or Unknown if w was not
// visited (e.g. it belongs to a file that hasn't been classified, or a
// construct Classify does not yet model).
func (c *Classification) ContextOf(w *syntax.Word) WordContext {
	if c == nil || w == nil {
		return Unknown
	}
	return c.ctx[w]
}

// Classify walks f once and records the syntactic context of every word
// it contains. Rules query the result instead of re-walking the tree
// themselves.
func Classify(f *syntax.File) *Classification {
	c := &Classification{ctx: make(map[*syntax.Word]WordContext)}
	for _, stmt := range f.Stmts {
		c.stmt(stmt)
	}
	return c
}

func (c *Classification) set(w *syntax.Word, ctx WordContext) {
	if w == nil {
		return
	}
	if _, ok := c.ctx[w]; !ok {
		c.ctx[w] = ctx
	}
}

func (c *Classification) stmtList(stmts []*syntax.Stmt) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

func (c *Classification) stmt(s *syntax.Stmt) {
	if s == nil {
		return
	}
	for _, r := range s.Redirs {
		c.set(&r.Word, RedirectTarget)
		if len(r.Hdoc.Parts) > 0 {
			c.set(&r.Hdoc, RedirectTarget)
		}
	}
	for _, a := range s.Assigns {
		c.assign(a)
	}
	c.command(s.Cmd)
}

func (c *Classification) command(cmd syntax.Command) {
	switch x := cmd.(type) {
	case *syntax.CallExpr:
		for i := range x.Args {
			if i == 0 {
				c.set(&x.Args[i], CommandName)
			} else {
				c.set(&x.Args[i], CommandArg)
			}
		}
	case *syntax.DeclClause:
		for _, a := range x.Assigns {
			c.assign(a)
		}
	case *syntax.BinaryCmd:
		c.stmt(x.X)
		c.stmt(x.Y)
	case *syntax.Block:
		c.stmtList(x.Stmts)
	case *syntax.Subshell:
		c.stmtList(x.Stmts)
	case *syntax.IfClause:
		c.stmtList(x.CondStmts)
		c.stmtList(x.ThenStmts)
		for _, elf := range x.Elifs {
			c.stmtList(elf.CondStmts)
			c.stmtList(elf.ThenStmts)
		}
		c.stmtList(x.ElseStmts)
	case *syntax.WhileClause:
		c.stmtList(x.CondStmts)
		c.stmtList(x.DoStmts)
	case *syntax.UntilClause:
		c.stmtList(x.CondStmts)
		c.stmtList(x.DoStmts)
	case *syntax.ForClause:
		switch loop := x.Loop.(type) {
		case *syntax.WordIter:
			for i := range loop.List {
				c.set(&loop.List[i], CommandArg)
			}
		case *syntax.CStyleLoop:
			c.arithExpr(loop.Init)
			c.arithExpr(loop.Cond)
			c.arithExpr(loop.Post)
		}
		c.stmtList(x.DoStmts)
	case *syntax.CaseClause:
		// The selector word is expanded but never field-split or
		// glob-expanded, so it gets no context of its own here.
		for _, item := range x.List {
			for i := range item.Patterns {
				c.set(&item.Patterns[i], CasePattern)
			}
			c.stmtList(item.Stmts)
		}
	case *syntax.FuncDecl:
		c.stmt(x.Body)
	case *syntax.TestClause:
		c.testExpr(x.X)
	case *syntax.ArithmCmd:
		c.arithExpr(x.X)
	case *syntax.LetClause:
		for _, e := range x.Exprs {
			c.arithExpr(e)
		}
	case *syntax.TimeClause:
		c.stmt(x.Stmt)
	case *syntax.CoprocClause:
		c.stmt(x.Stmt)
	}
}

func (c *Classification) assign(a *syntax.Assign) {
	if a == nil {
		return
	}
	if len(a.Value.Parts) > 0 {
		c.set(&a.Value, AssignRHS)
	}
}

func (c *Classification) arithExpr(e syntax.ArithmExpr) {
	switch x := e.(type) {
	case nil:
		return
	case *syntax.Word:
		c.arithWord(x)
	case *syntax.BinaryArithm:
		c.arithExpr(x.X)
		c.arithExpr(x.Y)
	case *syntax.UnaryArithm:
		c.arithExpr(x.X)
	case *syntax.ParenArithm:
		c.arithExpr(x.X)
	}
}

// arithWord marks w itself as an arithmetic operand: IFS splitting never
// applies inside `(( ))`.
func (c *Classification) arithWord(w *syntax.Word) {
	c.set(w, ArithOperand)
}

func (c *Classification) testExpr(e syntax.TestExpr) {
	switch x := e.(type) {
	case nil:
		return
	case *syntax.Word:
		c.set(x, TestOperand)
	case *syntax.BinaryTest:
		c.testExpr(x.X)
		c.testExpr(x.Y)
	case *syntax.UnaryTest:
		c.testExpr(x.X)
	case *syntax.ParenTest:
		c.testExpr(x.X)
	}
}
