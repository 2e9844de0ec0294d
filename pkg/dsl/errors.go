package dsl

import "fmt"

// SyntaxError reports a lexing or parsing failure. Context holds a short
// window of the source around Pos with a caret on the following line.
type SyntaxError struct {
	Msg     string
	Pos     int
	Context string
}

func (e *SyntaxError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("dsl: %s at position %d", e.Msg, e.Pos)
	}
	return fmt.Sprintf("dsl: %s at position %d\n%s", e.Msg, e.Pos, e.Context)
}

const contextWindow = 10

func errorContext(src []rune, pos int) string {
	start := pos - contextWindow
	if start < 0 {
		start = 0
	}
	end := pos + contextWindow
	if end > len(src) {
		end = len(src)
	}
	if start > end {
		start = end
	}
	pad := make([]rune, pos-start)
	for i := range pad {
		pad[i] = ' '
	}
	return string(src[start:end]) + "\n" + string(pad) + "^"
}
