package responses

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/locators"
)

// textHandler fills short answer and paragraph fields with the literal answer.
type textHandler struct {
	base
	input browser.Element
}

func probeText(b base) (Handler, error) {
	input, ok, err := findOptional(b.container, locators.TextInput)
	if err != nil || !ok {
		return nil, err
	}
	return &textHandler{base: b, input: input}, nil
}

func (h *textHandler) Apply(ctx context.Context, answer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := replaceValue(h.input, answer); err != nil {
		return h.fail(err)
	}
	responsesLog.Infof("text %q set", h.label)
	return nil
}

func replaceValue(input browser.Element, value string) error {
	if err := input.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := input.Type(value); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	return nil
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type dateHandler struct {
	base
	input browser.Element
}

func probeDate(b base) (Handler, error) {
	input, ok, err := findOptional(b.container, locators.DateInput)
	if err != nil || !ok {
		return nil, err
	}
	return &dateHandler{base: b, input: input}, nil
}

func (h *dateHandler) Apply(ctx context.Context, answer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !datePattern.MatchString(answer) {
		return h.invalid(answer, "date must be in YYYY-MM-DD format")
	}
	if err := replaceValue(h.input, answer); err != nil {
		return h.fail(err)
	}
	responsesLog.Infof("date %q set to %s", h.label, answer)
	return nil
}

type timeHandler struct {
	base
	hour   browser.Element
	minute browser.Element
}

func probeTime(b base) (Handler, error) {
	hour, ok, err := findOptional(b.container, locators.TimeHour)
	if err != nil || !ok {
		return nil, err
	}
	minute, ok, err := findOptional(b.container, locators.TimeMinute)
	if err != nil || !ok {
		return nil, err
	}
	return &timeHandler{base: b, hour: hour, minute: minute}, nil
}

// parseClock splits HH:MM into zero padded components.
func parseClock(answer string) (string, string, error) {
	parts := strings.Split(answer, ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected HH:MM")
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", "", fmt.Errorf("hour must be an integer")
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", fmt.Errorf("minute must be an integer")
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", "", fmt.Errorf("time out of range (00-23:00-59)")
	}
	return fmt.Sprintf("%02d", hour), fmt.Sprintf("%02d", minute), nil
}

func (h *timeHandler) Apply(ctx context.Context, answer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hh, mm, err := parseClock(answer)
	if err != nil {
		return h.invalid(answer, err.Error())
	}
	if err := replaceValue(h.hour, hh); err != nil {
		return h.fail(fmt.Errorf("hour: %w", err))
	}
	if err := replaceValue(h.minute, mm); err != nil {
		return h.fail(fmt.Errorf("minute: %w", err))
	}
	responsesLog.Infof("time %q set to %s:%s", h.label, hh, mm)
	return nil
}
