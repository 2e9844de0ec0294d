// Package dsl implements the question matching language used by answer
// tables: words and quoted phrases combined with & (and), | (or), ~ (not),
// < (before) and parentheses.
package dsl

import (
	"errors"
	"strings"

	"github.com/EnamSon/gformfiller/pkg/logging"
)

var dslLog *logging.Logger

func init() {
	var err error
	dslLog, err = logging.NewLogger("dsl")
	if err != nil {
		dslLog.Warnf("Failed to initialize dsl logger, using stderr fallback: %v", err)
	}
}

// Result is the outcome of matching a text against an expression.
type Result int

const (
	NoMatch Result = iota
	Matched
	// Indeterminate means the expression could not be compiled or evaluated.
	// Callers treat it as NoMatch for control flow.
	Indeterminate
)

func (r Result) String() string {
	switch r {
	case Matched:
		return "true"
	case NoMatch:
		return "false"
	default:
		return "indeterminate"
	}
}

// Bool reports whether r is Matched.
func (r Result) Bool() bool { return r == Matched }

// Expr is a compiled expression. It is immutable and safe for concurrent use.
type Expr struct {
	source     string
	root       Node
	ignoreCase bool
}

// Compile parses expr. With ignoreCase the expression is lowercased before
// lexing and texts are lowercased before evaluation. An empty expression
// compiles to one that matches everything.
func Compile(expr string, ignoreCase bool) (*Expr, error) {
	e := &Expr{source: expr, ignoreCase: ignoreCase}
	if expr == "" {
		return e, nil
	}
	if ignoreCase {
		expr = strings.ToLower(expr)
	}
	root, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	e.root = root
	return e, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, ignoreCase bool) *Expr {
	e, err := Compile(expr, ignoreCase)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the expression text as given to Compile.
func (e *Expr) Source() string { return e.source }

// Root returns the syntax tree, nil for the empty expression.
func (e *Expr) Root() Node { return e.root }

// Eval evaluates the expression against text.
func (e *Expr) Eval(text string) (bool, error) {
	if e.root == nil {
		return true, nil
	}
	if e.ignoreCase {
		text = strings.ToLower(text)
	}
	return Eval(e.root, text)
}

// Match is Eval with evaluation errors reported as false.
func (e *Expr) Match(text string) bool {
	ok, err := e.Eval(text)
	if err != nil {
		dslLog.Errorf("evaluating %q: %v", e.source, err)
		return false
	}
	return ok
}

// Match evaluates expr against text, ignoring case.
func Match(text, expr string) Result {
	return MatchCase(text, expr, true)
}

// MatchCase evaluates expr against text. Syntax and evaluation errors are
// logged and reported as Indeterminate, never returned.
func MatchCase(text, expr string, ignoreCase bool) Result {
	e, err := Compile(expr, ignoreCase)
	if err != nil {
		var syn *SyntaxError
		if errors.As(err, &syn) {
			dslLog.Warnf("syntax error in %q (text %q): %s at %d", expr, snippet(text), syn.Msg, syn.Pos)
		} else {
			dslLog.Errorf("compiling %q: %v", expr, err)
		}
		return Indeterminate
	}
	ok, err := e.Eval(text)
	if err != nil {
		dslLog.Errorf("evaluating %q against %q: %v", expr, snippet(text), err)
		return Indeterminate
	}
	if ok {
		return Matched
	}
	return NoMatch
}

func snippet(text string) string {
	const max = 50
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}
