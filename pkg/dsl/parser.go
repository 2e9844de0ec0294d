package dsl

import "fmt"

// Grammar, lowest precedence first:
//
//	expression := andTerm ('|' andTerm)*
//	andTerm    := beforeTerm ('&' beforeTerm)*
//	beforeTerm := factor ('<' factor)*
//	factor     := '~' factor | '(' expression ')' | atom
//	atom       := WORD | PHRASE
type parser struct {
	src    []rune
	tokens []Token
	pos    int
}

// Parse tokenizes and parses expr into a single tree. The whole input must
// be consumed.
func Parse(expr string) (Node, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}
	return ParseTokens(expr, tokens)
}

// ParseTokens parses an already tokenized expression. src is only used for
// error context.
func ParseTokens(src string, tokens []Token) (Node, error) {
	p := &parser{src: []rune(src), tokens: tokens}
	if p.current().Kind == TokenEOF {
		return nil, p.errorf("empty expression")
	}
	node, err := p.expression()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Kind != TokenEOF {
		return nil, p.errorf("unexpected %s after end of expression", tok.Kind)
	}
	return node, nil
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Kind: TokenEOF, Pos: len(p.src)}
}

func (p *parser) advance() { p.pos++ }

func (p *parser) errorf(format string, args ...interface{}) *SyntaxError {
	pos := p.current().Pos
	return &SyntaxError{
		Msg:     fmt.Sprintf(format, args...),
		Pos:     pos,
		Context: errorContext(p.src, pos),
	}
}

func (p *parser) expect(kind TokenKind) error {
	if tok := p.current(); tok.Kind != kind {
		return p.errorf("expected %s, got %s", kind, tok.Kind)
	}
	p.advance()
	return nil
}

func (p *parser) expression() (Node, error) {
	node, err := p.andTerm()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == TokenOr {
		p.advance()
		right, err := p.andTerm()
		if err != nil {
			return nil, err
		}
		node = Or{Left: node, Right: right}
	}
	return node, nil
}

func (p *parser) andTerm() (Node, error) {
	node, err := p.beforeTerm()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == TokenAnd {
		p.advance()
		right, err := p.beforeTerm()
		if err != nil {
			return nil, err
		}
		node = And{Left: node, Right: right}
	}
	return node, nil
}

func (p *parser) beforeTerm() (Node, error) {
	node, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == TokenBefore {
		p.advance()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		node = Before{Left: node, Right: right}
	}
	return node, nil
}

func (p *parser) factor() (Node, error) {
	switch p.current().Kind {
	case TokenNot:
		p.advance()
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	case TokenLParen:
		p.advance()
		node, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return node, nil
	default:
		return p.atom()
	}
}

func (p *parser) atom() (Node, error) {
	tok := p.current()
	switch tok.Kind {
	case TokenWord:
		p.advance()
		return Word{Value: tok.Value}, nil
	case TokenPhrase:
		p.advance()
		return Phrase{Value: tok.Value}, nil
	default:
		return nil, p.errorf("unexpected %s, expected a word or quoted phrase", tok.Kind)
	}
}
