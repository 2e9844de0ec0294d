package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/EnamSon/gformfiller/pkg/scheduler"
)

const (
	// SectionIDScheduler is the identifier for the scheduler section
	SectionIDScheduler = "scheduler"
)

// SchedulerSection holds the profile assignment loop settings.
type SchedulerSection struct {
	Backoff time.Duration
	Pacing  time.Duration
	// Include and Exclude are glob patterns over profile names.
	Include []string
	Exclude []string
	mu      sync.RWMutex
}

// NewSchedulerSection creates a scheduler section with default settings.
func NewSchedulerSection() *SchedulerSection {
	s := &SchedulerSection{}
	s.Reset()
	return s
}

func (s *SchedulerSection) ID() string    { return SectionIDScheduler }
func (s *SchedulerSection) Title() string { return "Scheduler" }

func (s *SchedulerSection) Description() string {
	return "Configure how often busy profiles are polled and which profiles the scheduler may use."
}

// Data returns the current configuration data.
func (s *SchedulerSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"backoff": s.Backoff.String(),
		"pacing":  s.Pacing.String(),
		"include": append([]string{}, s.Include...),
		"exclude": append([]string{}, s.Exclude...),
	}
}

// SetData updates the configuration from the provided data.
func (s *SchedulerSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "backoff":
			s.Backoff, err = durationValue(key, value)
		case "pacing":
			s.Pacing, err = durationValue(key, value)
		case "include":
			s.Include, err = stringsValue(key, value)
		case "exclude":
			s.Exclude, err = stringsValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *SchedulerSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Backoff <= 0 || s.Pacing <= 0 {
		return fmt.Errorf("backoff and pacing must be positive")
	}
	for _, pattern := range append(append([]string{}, s.Include...), s.Exclude...) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid profile pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *SchedulerSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backoff = scheduler.DefaultBackoff
	s.Pacing = scheduler.DefaultPacing
	s.Include = nil
	s.Exclude = nil
}

// SchedulerConfig returns the loop timings.
func (s *SchedulerSection) SchedulerConfig() scheduler.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scheduler.Config{Backoff: s.Backoff, Pacing: s.Pacing}
}

// Patterns returns copies of the include and exclude patterns.
func (s *SchedulerSection) Patterns() (include, exclude []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.Include...), append([]string(nil), s.Exclude...)
}
