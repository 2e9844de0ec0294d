package dsl

import (
	"fmt"
	"strconv"
)

// Node is an immutable expression tree node.
type Node interface {
	fmt.Stringer
	node()
}

// Word is an unquoted term, possibly containing escaped characters.
type Word struct{ Value string }

// Phrase is a quoted term.
type Phrase struct{ Value string }

type And struct{ Left, Right Node }

type Or struct{ Left, Right Node }

type Not struct{ Operand Node }

// Before holds when Right occurs strictly after the first occurrence of Left.
type Before struct{ Left, Right Node }

func (Word) node()   {}
func (Phrase) node() {}
func (And) node()    {}
func (Or) node()     {}
func (Not) node()    {}
func (Before) node() {}

func (n Word) String() string   { return "Word(" + strconv.Quote(n.Value) + ")" }
func (n Phrase) String() string { return "Phrase(" + strconv.Quote(n.Value) + ")" }
func (n And) String() string    { return fmt.Sprintf("And(%s, %s)", n.Left, n.Right) }
func (n Or) String() string     { return fmt.Sprintf("Or(%s, %s)", n.Left, n.Right) }
func (n Not) String() string    { return fmt.Sprintf("Not(%s)", n.Operand) }
func (n Before) String() string { return fmt.Sprintf("Before(%s, %s)", n.Left, n.Right) }
