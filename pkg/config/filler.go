package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/EnamSon/gformfiller/pkg/form"
)

const (
	// SectionIDFiller is the identifier for the form filling section
	SectionIDFiller = "filler"

	defaultPageSettle = 1 * time.Second
	defaultRetryDelay = 1 * time.Second
)

// FillerSection holds how forms are filled.
type FillerSection struct {
	MaxAttempts int
	RetryDelay  time.Duration
	PageSettle  time.Duration
	MaxPages    int
	// Submit is the default for jobs that do not say.
	Submit   bool
	MergePDF bool
	mu       sync.RWMutex
}

// NewFillerSection creates a filler section with default settings.
func NewFillerSection() *FillerSection {
	s := &FillerSection{}
	s.Reset()
	return s
}

func (s *FillerSection) ID() string    { return SectionIDFiller }
func (s *FillerSection) Title() string { return "Form Filling" }

func (s *FillerSection) Description() string {
	return "Configure answer retries, page settle delay, default submission and PDF merging."
}

// Data returns the current configuration data.
func (s *FillerSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"max_attempts": s.MaxAttempts,
		"retry_delay":  s.RetryDelay.String(),
		"page_settle":  s.PageSettle.String(),
		"max_pages":    s.MaxPages,
		"submit":       s.Submit,
		"merge_pdf":    s.MergePDF,
	}
}

// SetData updates the configuration from the provided data.
func (s *FillerSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "max_attempts":
			s.MaxAttempts, err = intValue(key, value)
		case "retry_delay":
			s.RetryDelay, err = durationValue(key, value)
		case "page_settle":
			s.PageSettle, err = durationValue(key, value)
		case "max_pages":
			s.MaxPages, err = intValue(key, value)
		case "submit":
			s.Submit, err = boolValue(key, value)
		case "merge_pdf":
			s.MergePDF, err = boolValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *FillerSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", s.MaxPages)
	}
	if s.RetryDelay < 0 || s.PageSettle < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *FillerSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MaxAttempts = form.DefaultMaxAttempts
	s.RetryDelay = defaultRetryDelay
	s.PageSettle = defaultPageSettle
	s.MaxPages = form.DefaultMaxPages
	s.Submit = false
	s.MergePDF = true
}

// FormConfig returns the run template; answers and directories are left
// to the caller.
func (s *FillerSection) FormConfig() form.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return form.Config{
		Submit:      s.Submit,
		MaxAttempts: s.MaxAttempts,
		RetryDelay:  s.RetryDelay,
		PageSettle:  s.PageSettle,
		MaxPages:    s.MaxPages,
		MergePDF:    s.MergePDF,
	}
}

// SubmitByDefault reports whether jobs submit when not told otherwise.
func (s *FillerSection) SubmitByDefault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Submit
}
