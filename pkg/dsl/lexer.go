package dsl

import (
	"fmt"
	"unicode"
)

const operatorChars = "&|~<()"

func isOperator(r rune) bool {
	for _, op := range operatorChars {
		if r == op {
			return true
		}
	}
	return false
}

type lexer struct {
	src []rune
	pos int
}

// Tokenize splits expr into tokens, always ending with a TokenEOF.
//
// A backslash outside quotes makes the next character literal, so
// `first\ name` is one word. Inside single or double quotes only \n, \t,
// \\ and the escaped quote character are translated; any other escaped
// character is kept as is.
func Tokenize(expr string) ([]Token, error) {
	l := &lexer{src: []rune(expr)}
	return l.tokenize()
}

func (l *lexer) errorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Msg:     fmt.Sprintf(format, args...),
		Pos:     l.pos,
		Context: errorContext(l.src, l.pos),
	}
}

func (l *lexer) tokenize() ([]Token, error) {
	var tokens []Token
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case unicode.IsSpace(r):
			l.pos++
		case r == '&':
			tokens = append(tokens, l.single(TokenAnd))
		case r == '|':
			tokens = append(tokens, l.single(TokenOr))
		case r == '~':
			tokens = append(tokens, l.single(TokenNot))
		case r == '<':
			tokens = append(tokens, l.single(TokenBefore))
		case r == '(':
			tokens = append(tokens, l.single(TokenLParen))
		case r == ')':
			tokens = append(tokens, l.single(TokenRParen))
		case r == '"' || r == '\'':
			tok, err := l.readPhrase(r)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		default:
			tok, err := l.readWord()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		}
	}
	return append(tokens, Token{Kind: TokenEOF, Pos: l.pos}), nil
}

func (l *lexer) single(kind TokenKind) Token {
	tok := Token{Kind: kind, Value: string(l.src[l.pos]), Pos: l.pos, Len: 1}
	l.pos++
	return tok
}

func (l *lexer) readWord() (Token, error) {
	start := l.pos
	var buf []rune
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if r == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return Token{}, l.errorf("unexpected end of input after backslash")
			}
			buf = append(buf, l.src[l.pos])
			l.pos++
			continue
		}
		if isOperator(r) || unicode.IsSpace(r) {
			break
		}
		buf = append(buf, r)
		l.pos++
	}
	if len(buf) == 0 {
		return Token{}, l.errorf("expected word")
	}
	return Token{Kind: TokenWord, Value: string(buf), Pos: start, Len: l.pos - start}, nil
}

func (l *lexer) readPhrase(quote rune) (Token, error) {
	start := l.pos
	l.pos++
	var buf []rune
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch r {
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return Token{}, l.errorf("unexpected end of input in quoted string")
			}
			switch esc := l.src[l.pos]; esc {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			default:
				buf = append(buf, esc)
			}
			l.pos++
		case quote:
			l.pos++
			return Token{Kind: TokenPhrase, Value: string(buf), Pos: start, Len: l.pos - start}, nil
		default:
			buf = append(buf, r)
			l.pos++
		}
	}
	return Token{}, l.errorf("unterminated quoted string (expected %c)", quote)
}
