package responses

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/locators"
)

// fileUploadHandler attaches a local file through the Google picker, which
// is rendered inside an iframe.
type fileUploadHandler struct {
	base
	list   browser.Element
	button browser.Element
}

func probeFileUpload(b base) (Handler, error) {
	list, ok, err := findOptional(b.container, locators.List)
	if err != nil || !ok {
		return nil, err
	}
	button, ok, err := findOptional(b.container, locators.Button)
	if err != nil || !ok {
		return nil, err
	}
	return &fileUploadHandler{base: b, list: list, button: button}, nil
}

func (h *fileUploadHandler) attached() (bool, error) {
	files, err := h.list.FindAll(locators.Any.XPath)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

func (h *fileUploadHandler) Apply(ctx context.Context, answer string) error {
	if done, err := h.attached(); err != nil {
		return h.fail(err)
	} else if done {
		responsesLog.Infof("file already attached to %q", h.label)
		return nil
	}

	path := strings.TrimSpace(answer)
	if path == "" {
		return h.invalid(answer, "empty file path")
	}
	if _, err := os.Stat(path); err != nil {
		return h.invalid(answer, fmt.Sprintf("file not found locally: %v", err))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return h.invalid(answer, err.Error())
	}

	if h.deps.Session == nil {
		return h.fail(errors.New("file upload needs a browser session"))
	}
	if err := h.upload(ctx, abs); err != nil {
		h.resetContext()
		return h.fail(err)
	}
	responsesLog.Infof("file %s uploaded to %q", abs, h.label)
	return nil
}

func (h *fileUploadHandler) upload(ctx context.Context, path string) error {
	s := h.deps.Session
	h.resetContext()

	if err := h.button.Click(); err != nil {
		return fmt.Errorf("open picker: %w", err)
	}
	picker, err := s.WaitFor(ctx, locators.Picker.XPath, h.deps.Timeouts.Picker)
	if err != nil {
		return &ElementNotFoundError{What: "file picker frame", Err: err}
	}
	if err := s.SwitchToFrame(picker); err != nil {
		return fmt.Errorf("enter picker: %w", err)
	}
	pickerButton, err := s.FindOne(locators.Button.XPath)
	if err != nil {
		return &ElementNotFoundError{What: "file picker button", Err: err}
	}
	if err := pickerButton.Click(); err != nil {
		return fmt.Errorf("click picker button: %w", err)
	}
	input, err := s.WaitFor(ctx, locators.FileInput.XPath, h.deps.Timeouts.FileInput)
	if err != nil {
		return &ElementNotFoundError{What: "native file input", Err: err}
	}
	if err := input.SetFiles(path); err != nil {
		return fmt.Errorf("set file: %w", err)
	}
	if err := s.SwitchToDefault(); err != nil {
		return err
	}
	if _, err := h.list.WaitFor(ctx, locators.Any.XPath, h.deps.Timeouts.Upload); err != nil {
		return &ElementNotFoundError{What: "upload completion", Err: err}
	}
	return nil
}

// resetContext returns to the main document and removes stale picker frames.
func (h *fileUploadHandler) resetContext() {
	s := h.deps.Session
	if err := s.SwitchToDefault(); err != nil {
		responsesLog.Warnf("switch to default content: %v", err)
		return
	}
	if err := s.Evaluate(locators.RemoveFramesScript); err != nil {
		responsesLog.Warnf("remove frames: %v", err)
	}
}
