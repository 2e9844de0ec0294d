// Package responses classifies Google Form questions and applies answers to
// them through a browser session.
package responses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/dsl"
	"github.com/EnamSon/gformfiller/pkg/locators"
	"github.com/EnamSon/gformfiller/pkg/logging"
)

var responsesLog *logging.Logger

func init() {
	var err error
	responsesLog, err = logging.NewLogger("responses")
	if err != nil {
		responsesLog.Warnf("Failed to initialize responses logger, using stderr fallback: %v", err)
	}
}

// Handler applies answers to one classified question.
type Handler interface {
	Kind() Kind
	// Label is the question text used for matching.
	Label() string
	// Options lists the choice labels, nil for free-form fields.
	Options() []string
	// Apply writes answer to the field. For choice fields answer is a
	// matching expression evaluated against each option label.
	Apply(ctx context.Context, answer string) error
}

// Timeouts bounds the waits of the handlers.
type Timeouts struct {
	Picker     time.Duration
	FileInput  time.Duration
	Upload     time.Duration
	OptionWait time.Duration
}

// DefaultTimeouts returns the waits used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Picker:     5 * time.Second,
		FileInput:  5 * time.Second,
		Upload:     30 * time.Second,
		OptionWait: 2 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Picker <= 0 {
		t.Picker = d.Picker
	}
	if t.FileInput <= 0 {
		t.FileInput = d.FileInput
	}
	if t.Upload <= 0 {
		t.Upload = d.Upload
	}
	if t.OptionWait <= 0 {
		t.OptionWait = d.OptionWait
	}
	return t
}

// Deps are the collaborators handed to every handler.
type Deps struct {
	Session  browser.Session
	Timeouts Timeouts
	// Capture takes a labeled diagnostic screenshot. It must not fail.
	Capture func(label string)
}

type base struct {
	deps      Deps
	kind      Kind
	container browser.Element
	label     string
}

func (b *base) Kind() Kind        { return b.kind }
func (b *base) Label() string     { return b.label }
func (b *base) Options() []string { return nil }

// fail records a diagnostic screenshot and returns err.
func (b *base) fail(err error) error {
	responsesLog.Warnf("%s %q: %v", b.kind, b.label, err)
	if b.deps.Capture != nil {
		b.deps.Capture("FAIL_FILL_" + b.kind.Label())
	}
	return err
}

func (b *base) invalid(answer, reason string) error {
	return b.fail(&InvalidAnswerError{Kind: b.kind, Answer: answer, Reason: reason})
}

// compile parses a choice expression once per Apply.
func (b *base) compile(answer string) (*dsl.Expr, error) {
	expr, err := dsl.Compile(answer, true)
	if err != nil {
		return nil, b.invalid(answer, err.Error())
	}
	return expr, nil
}

// findOptional looks up xpath under el, reporting absence without error.
func findOptional(el browser.Element, l locators.Locator) (browser.Element, bool, error) {
	found, err := el.FindOne(l.XPath)
	if errors.Is(err, browser.ErrElementNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return found, true, nil
}

func optionLabels(options []browser.Element) []string {
	var labels []string
	for _, o := range options {
		label, err := o.Attribute("aria-label")
		if err == nil && label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

func questionLabel(container browser.Element) string {
	if heading, ok, err := findOptional(container, locators.Heading); err == nil && ok {
		if text, err := heading.Text(); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	text, err := container.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
