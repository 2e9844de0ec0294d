// Package tokenizer counts and trims text in model tokens.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding used by current OpenAI chat models.
const DefaultEncoding = "cl100k_base"

// charsPerToken is the estimate used when no encoding is available.
const charsPerToken = 4

type encoding interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Tokenizer counts tokens with a tiktoken encoding. A nil *Tokenizer is
// valid and estimates from the character count.
type Tokenizer struct {
	enc encoding
}

// New loads the default encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.enc == nil {
		return (len([]rune(text)) + charsPerToken - 1) / charsPerToken
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate returns the longest prefix of text that fits in max tokens.
// A max of zero or less disables truncation.
func (t *Tokenizer) Truncate(text string, max int) string {
	if max <= 0 || t.CountTokens(text) <= max {
		return text
	}
	if t == nil || t.enc == nil {
		r := []rune(text)
		return string(r[:max*charsPerToken])
	}
	return t.enc.Decode(t.enc.Encode(text, nil, nil)[:max])
}
