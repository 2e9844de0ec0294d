package responses

import (
	"errors"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/locators"
)

// probeFunc inspects a validated question. It returns a nil Handler when the
// question does not have the handler's shape; an error means the browser
// could not be queried.
type probeFunc func(b base) (Handler, error)

type entry struct {
	kind  Kind
	probe probeFunc
}

// registry is ordered from the most specific shape to the most generic one:
// a time field is two number inputs and a date field is a typed input, both
// of which a text probe could otherwise claim.
var registry = []entry{
	{KindFileUpload, probeFileUpload},
	{KindTime, probeTime},
	{KindDate, probeDate},
	{KindCheckbox, probeCheckbox},
	{KindRadio, probeRadio},
	{KindListbox, probeListbox},
	{KindText, probeText},
}

// Identify validates container as a question and returns the handler of
// the first kind whose probe recognises it.
func Identify(deps Deps, container browser.Element) (Handler, error) {
	if err := validateQuestion(container); err != nil {
		return nil, err
	}
	deps.Timeouts = deps.Timeouts.withDefaults()
	label := questionLabel(container)

	for _, e := range registry {
		h, err := e.probe(base{deps: deps, kind: e.kind, container: container, label: label})
		if err != nil {
			responsesLog.Warnf("probing %q as %s: %v", label, e.kind, err)
			continue
		}
		if h != nil {
			responsesLog.Debugf("question %q identified as %s", label, e.kind)
			return h, nil
		}
	}
	return nil, ErrUnknownFieldType
}

func validateQuestion(container browser.Element) error {
	role, err := container.Attribute("role")
	if err != nil {
		return err
	}
	if role != "listitem" {
		return ErrNotAQuestion
	}
	descriptions, err := container.FindAll(locators.Description.XPath)
	if err != nil {
		return err
	}
	if len(descriptions) == 0 {
		return ErrNotAQuestion
	}
	return nil
}

// IsClassificationMiss reports whether err only means the container is not
// a fillable question.
func IsClassificationMiss(err error) bool {
	return errors.Is(err, ErrNotAQuestion) || errors.Is(err, ErrUnknownFieldType)
}
