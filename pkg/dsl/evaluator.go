package dsl

import (
	"fmt"
	"strings"
)

// Eval reports whether text satisfies node. Empty text never matches.
func Eval(node Node, text string) (bool, error) {
	if text == "" {
		return false, nil
	}
	return eval(node, text)
}

func eval(node Node, text string) (bool, error) {
	switch n := node.(type) {
	case Word:
		return strings.Contains(text, n.Value), nil
	case Phrase:
		return strings.Contains(text, n.Value), nil
	case And:
		ok, err := eval(n.Left, text)
		if err != nil || !ok {
			return false, err
		}
		return eval(n.Right, text)
	case Or:
		ok, err := eval(n.Left, text)
		if err != nil || ok {
			return ok, err
		}
		return eval(n.Right, text)
	case Not:
		ok, err := eval(n.Operand, text)
		return !ok, err
	case Before:
		left := indexFrom(n.Left, text, 0)
		if left < 0 {
			return false, nil
		}
		return indexFrom(n.Right, text, left+1) >= 0, nil
	default:
		return false, fmt.Errorf("dsl: unknown node type %T", node)
	}
}

// indexFrom returns the earliest byte offset >= start at which node can be
// located in text, or -1.
//
// Or and And search both branches independently from start. A nested Before
// returns the offset of its right side. Not has no position and is never
// found, so any Before containing a Not on the searched path fails (~a < b
// never matches).
func indexFrom(node Node, text string, start int) int {
	if start >= len(text) {
		return -1
	}
	switch n := node.(type) {
	case Word:
		return find(text, n.Value, start)
	case Phrase:
		return find(text, n.Value, start)
	case Or:
		l, r := indexFrom(n.Left, text, start), indexFrom(n.Right, text, start)
		switch {
		case l < 0:
			return r
		case r < 0:
			return l
		default:
			return min(l, r)
		}
	case And:
		l, r := indexFrom(n.Left, text, start), indexFrom(n.Right, text, start)
		if l < 0 || r < 0 {
			return -1
		}
		return min(l, r)
	case Before:
		l := indexFrom(n.Left, text, start)
		if l < 0 {
			return -1
		}
		return indexFrom(n.Right, text, l+1)
	default:
		return -1
	}
}

func find(text, sub string, start int) int {
	i := strings.Index(text[start:], sub)
	if i < 0 {
		return -1
	}
	return start + i
}
