package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A | B & C", `Or(Word("A"), And(Word("B"), Word("C")))`},
		{"A & B < C", `And(Word("A"), Before(Word("B"), Word("C")))`},
		{"A < B < C", `Before(Before(Word("A"), Word("B")), Word("C"))`},
		{"A | B | C", `Or(Or(Word("A"), Word("B")), Word("C"))`},
		{"~A & B", `And(Not(Word("A")), Word("B"))`},
		{"~~A", `Not(Not(Word("A")))`},
		{"(A | B) & C", `And(Or(Word("A"), Word("B")), Word("C"))`},
		{"~(A < B)", `Not(Before(Word("A"), Word("B")))`},
		{`"first name" | email`, `Or(Phrase("first name"), Word("email"))`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			node, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"A &",
		"& A",
		"A B",
		"(A | B",
		"A)",
		"()",
		"~",
		"A < ",
		`"unterminated`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			node, err := Parse(in)
			assert.Nil(t, node)
			var syn *SyntaxError
			assert.True(t, errors.As(err, &syn), "want SyntaxError, got %v", err)
		})
	}
}

func TestParseDanglingOperatorPosition(t *testing.T) {
	_, err := Parse("A &")
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 3, syn.Pos)
	assert.Contains(t, syn.Error(), "position 3")
}
