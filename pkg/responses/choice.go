package responses

import (
	"context"
	"fmt"
	"strings"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/locators"
)

// checkboxHandler drives a multi-select question: every option whose label
// matches ends up checked and every other option unchecked.
type checkboxHandler struct {
	base
	options []browser.Element
}

func probeCheckbox(b base) (Handler, error) {
	options, err := b.container.FindAll(locators.Checkbox.XPath)
	if err != nil || len(options) == 0 {
		return nil, err
	}
	return &checkboxHandler{base: b, options: options}, nil
}

func (h *checkboxHandler) Options() []string { return optionLabels(h.options) }

func (h *checkboxHandler) Apply(ctx context.Context, answer string) error {
	expr, err := h.compile(answer)
	if err != nil {
		return err
	}
	if len(h.options) == 0 {
		return h.fail(ErrNoMatchingOption)
	}
	for _, option := range h.options {
		if err := ctx.Err(); err != nil {
			return err
		}
		label, err := option.Attribute("aria-label")
		if err != nil || label == "" {
			responsesLog.Warnf("checkbox in %q has no label, skipped", h.label)
			continue
		}
		checked, err := option.IsSelected()
		if err != nil {
			responsesLog.Warnf("checkbox %q state unreadable: %v", label, err)
			continue
		}
		want := expr.Match(label)
		if want == checked {
			continue
		}
		if err := option.Click(); err != nil {
			responsesLog.Errorf("checkbox %q click failed: %v", label, err)
			continue
		}
		responsesLog.Infof("checkbox %q set to %t", label, want)
	}
	return nil
}

// radioHandler selects the first option whose label matches.
type radioHandler struct {
	base
	options []browser.Element
}

func probeRadio(b base) (Handler, error) {
	options, err := b.container.FindAll(locators.Radio.XPath)
	if err != nil || len(options) == 0 {
		return nil, err
	}
	return &radioHandler{base: b, options: options}, nil
}

func (h *radioHandler) Options() []string { return optionLabels(h.options) }

func (h *radioHandler) Apply(ctx context.Context, answer string) error {
	expr, err := h.compile(answer)
	if err != nil {
		return err
	}
	for _, option := range h.options {
		if err := ctx.Err(); err != nil {
			return err
		}
		label, err := option.Attribute("aria-label")
		if err != nil || label == "" {
			continue
		}
		if !expr.Match(label) {
			continue
		}
		selected, err := option.IsSelected()
		if err != nil {
			return h.fail(fmt.Errorf("radio %q state: %w", label, err))
		}
		if selected {
			responsesLog.Debugf("radio %q already selected", label)
			return nil
		}
		if err := option.Click(); err != nil {
			return h.fail(fmt.Errorf("radio %q click: %w", label, err))
		}
		responsesLog.Infof("radio %q selected for %q", label, h.label)
		return nil
	}
	return h.fail(fmt.Errorf("%w: %q", ErrNoMatchingOption, answer))
}

// listboxHandler opens a dropdown and picks the first matching option.
type listboxHandler struct {
	base
	control browser.Element
}

func probeListbox(b base) (Handler, error) {
	control, ok, err := findOptional(b.container, locators.Listbox)
	if err != nil || !ok {
		return nil, err
	}
	return &listboxHandler{base: b, control: control}, nil
}

func (h *listboxHandler) Options() []string {
	options, err := h.container.FindAll(locators.ListboxOption.XPath)
	if err != nil {
		return nil
	}
	var labels []string
	for _, o := range options {
		if text, err := o.Text(); err == nil && strings.TrimSpace(text) != "" {
			labels = append(labels, strings.TrimSpace(text))
		}
	}
	return labels
}

func (h *listboxHandler) Apply(ctx context.Context, answer string) error {
	expr, err := h.compile(answer)
	if err != nil {
		return err
	}
	if err := h.control.Click(); err != nil {
		return h.fail(fmt.Errorf("open listbox: %w", err))
	}
	if _, err := h.container.WaitFor(ctx, locators.ListboxOption.XPath, h.deps.Timeouts.OptionWait); err != nil {
		return h.fail(&ElementNotFoundError{What: "listbox options", Err: err})
	}
	options, err := h.container.FindAll(locators.ListboxOption.XPath)
	if err != nil {
		return h.fail(err)
	}
	for _, option := range options {
		text, err := option.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if !expr.Match(text) {
			continue
		}
		if err := option.Hover(); err != nil {
			return h.fail(fmt.Errorf("listbox option %q hover: %w", text, err))
		}
		if err := option.Click(); err != nil {
			return h.fail(fmt.Errorf("listbox option %q click: %w", text, err))
		}
		responsesLog.Infof("listbox %q set to %q", h.label, text)
		return nil
	}
	return h.fail(fmt.Errorf("%w: %q", ErrNoMatchingOption, answer))
}
