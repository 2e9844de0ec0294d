package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/responses"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"
)

// BrowserSection holds how sessions are opened and how long elements are
// waited for.
type BrowserSection struct {
	Headless         bool
	ViewportWidth    int
	ViewportHeight   int
	PageLoadTimeout  time.Duration
	PickerTimeout    time.Duration
	FileInputTimeout time.Duration
	UploadTimeout    time.Duration
	OptionWait       time.Duration
	MaxSessions      int
	mu               sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

func (s *BrowserSection) ID() string    { return SectionIDBrowser }
func (s *BrowserSection) Title() string { return "Browser Settings" }

func (s *BrowserSection) Description() string {
	return "Configure the automated browser: headless mode, window size, concurrent sessions and element wait timeouts."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"headless":           s.Headless,
		"viewport_width":     s.ViewportWidth,
		"viewport_height":    s.ViewportHeight,
		"page_load_timeout":  s.PageLoadTimeout.String(),
		"picker_timeout":     s.PickerTimeout.String(),
		"file_input_timeout": s.FileInputTimeout.String(),
		"upload_timeout":     s.UploadTimeout.String(),
		"option_wait":        s.OptionWait.String(),
		"max_sessions":       s.MaxSessions,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "headless":
			s.Headless, err = boolValue(key, value)
		case "viewport_width":
			s.ViewportWidth, err = intValue(key, value)
		case "viewport_height":
			s.ViewportHeight, err = intValue(key, value)
		case "page_load_timeout":
			s.PageLoadTimeout, err = durationValue(key, value)
		case "picker_timeout":
			s.PickerTimeout, err = durationValue(key, value)
		case "file_input_timeout":
			s.FileInputTimeout, err = durationValue(key, value)
		case "upload_timeout":
			s.UploadTimeout, err = durationValue(key, value)
		case "option_wait":
			s.OptionWait, err = durationValue(key, value)
		case "max_sessions":
			s.MaxSessions, err = intValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", s.MaxSessions)
	}
	for name, d := range map[string]time.Duration{
		"page_load_timeout":  s.PageLoadTimeout,
		"picker_timeout":     s.PickerTimeout,
		"file_input_timeout": s.FileInputTimeout,
		"upload_timeout":     s.UploadTimeout,
		"option_wait":        s.OptionWait,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := responses.DefaultTimeouts()
	s.Headless = true
	s.ViewportWidth = browser.DefaultViewportWidth
	s.ViewportHeight = browser.DefaultViewportHeight
	s.PageLoadTimeout = browser.DefaultTimeout
	s.PickerTimeout = t.Picker
	s.FileInputTimeout = t.FileInput
	s.UploadTimeout = t.Upload
	s.OptionWait = t.OptionWait
	s.MaxSessions = browser.DefaultMaxSessions
}

// OpenOptions returns the session options without a profile directory.
func (s *BrowserSection) OpenOptions() browser.OpenOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return browser.OpenOptions{
		Headless: s.Headless,
		Viewport: &browser.Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight},
		Timeout:  s.PageLoadTimeout,
	}
}

// Timeouts returns the handler wait timeouts.
func (s *BrowserSection) Timeouts() responses.Timeouts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return responses.Timeouts{
		Picker:     s.PickerTimeout,
		FileInput:  s.FileInputTimeout,
		Upload:     s.UploadTimeout,
		OptionWait: s.OptionWait,
	}
}

// GetMaxSessions returns how many browser sessions may run at once.
func (s *BrowserSection) GetMaxSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxSessions
}
