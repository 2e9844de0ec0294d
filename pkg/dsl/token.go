package dsl

import "fmt"

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenWord
	TokenPhrase
	TokenAnd
	TokenOr
	TokenNot
	TokenBefore
	TokenLParen
	TokenRParen
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:    "EOF",
	TokenWord:   "WORD",
	TokenPhrase: "PHRASE",
	TokenAnd:    "AND",
	TokenOr:     "OR",
	TokenNot:    "NOT",
	TokenBefore: "BEFORE",
	TokenLParen: "LPAREN",
	TokenRParen: "RPAREN",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexeme of an expression. Pos and Len are rune offsets into
// the source expression.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   int
	Len   int
}

func (t Token) String() string {
	if t.Kind == TokenWord || t.Kind == TokenPhrase {
		return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Value, t.Pos)
	}
	return fmt.Sprintf("%s@%d", t.Kind, t.Pos)
}
