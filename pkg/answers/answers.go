// Package answers asks an LLM for the answers of a page of form questions.
//
// All questions of a page are sent in one request. The model replies with
// one answer per question, in question order, separated by a blank line.
// Unknown answers come back as NoAnswer and must be skipped by the caller.
package answers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EnamSon/gformfiller/pkg/llm"
	"github.com/EnamSon/gformfiller/pkg/llm/tokenizer"
	"github.com/EnamSon/gformfiller/pkg/logging"
	"github.com/EnamSon/gformfiller/pkg/responses"
	"github.com/EnamSon/gformfiller/pkg/types"
)

// NoAnswer is returned by the model for questions the context cannot answer.
const NoAnswer = "gformfiller_NA"

// Separator splits consecutive answers in a model reply.
const Separator = "\n\n"

var answersLog *logging.Logger

func init() {
	var err error
	answersLog, err = logging.NewLogger("answers")
	if err != nil {
		answersLog.Warnf("failed to initialize answers logger: %v", err)
	}
}

// ErrNoQuestions is returned when GenerateAnswers receives an empty batch.
var ErrNoQuestions = errors.New("no questions to answer")

// Question is the view of a form question sent to the model.
type Question struct {
	Text    string
	Kind    responses.Kind
	Options []string
}

// Provider generates ordered answers for a batch of questions.
type Provider interface {
	GenerateAnswers(ctx context.Context, questions []Question, userContext string) ([]string, error)
}

// LLMProvider implements Provider on top of an llm.Provider.
type LLMProvider struct {
	llm              llm.Provider
	tok              *tokenizer.Tokenizer
	maxContextTokens int
}

// Option configures an LLMProvider.
type Option func(*LLMProvider)

// WithMaxContextTokens caps the user context sent to the model.
// Zero disables the cap.
func WithMaxContextTokens(n int) Option {
	return func(p *LLMProvider) {
		p.maxContextTokens = n
	}
}

// WithTokenizer sets the tokenizer used to enforce the context cap.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(p *LLMProvider) {
		p.tok = t
	}
}

// NewLLMProvider wraps an LLM provider. When a context cap is set and no
// tokenizer was given, the default encoding is loaded; if that fails the
// cap falls back to a character estimate.
func NewLLMProvider(provider llm.Provider, opts ...Option) *LLMProvider {
	p := &LLMProvider{llm: provider}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxContextTokens > 0 && p.tok == nil {
		tok, err := tokenizer.New()
		if err != nil {
			answersLog.Warnf("tokenizer unavailable, estimating context size: %v", err)
		}
		p.tok = tok
	}
	return p
}

// GenerateAnswers sends the page questions with the user context and
// returns the answers split in question order.
func (p *LLMProvider) GenerateAnswers(ctx context.Context, questions []Question, userContext string) ([]string, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	if p.maxContextTokens > 0 {
		if n := p.tok.CountTokens(userContext); n > p.maxContextTokens {
			answersLog.Warnf("user context has %d tokens, truncating to %d", n, p.maxContextTokens)
			userContext = p.tok.Truncate(userContext, p.maxContextTokens)
		}
	}

	messages := []*types.Message{
		types.NewSystemMessage(SystemPrompt(questions)),
		types.NewUserMessage(UserPrompt(userContext)),
	}

	answersLog.Infof("requesting %d answers from %s", len(questions), p.llm.GetModel())
	reply, err := p.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	out := SplitAnswers(reply.Content)
	if len(out) != len(questions) {
		answersLog.Warnf("expected %d answers, model returned %d", len(questions), len(out))
	}
	return out, nil
}

// SplitAnswers splits a model reply into trimmed answers. Empty answers
// are kept so positions stay aligned with the questions.
func SplitAnswers(raw string) []string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, Separator)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// IsNoAnswer reports whether an answer should be skipped.
func IsNoAnswer(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer == "" || answer == NoAnswer
}
