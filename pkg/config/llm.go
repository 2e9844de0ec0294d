package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"
)

// LLMSection manages the answer generation provider settings.
type LLMSection struct {
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	// MaxContextTokens caps the user context sent with a page; 0 disables it.
	MaxContextTokens int
	mu               sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	s := &LLMSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Configure the OpenAI-compatible provider used to answer questions when a job asks for AI answers."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"model":              s.Model,
		"base_url":           s.BaseURL,
		"api_key":            s.APIKey,
		"temperature":        s.Temperature,
		"max_context_tokens": s.MaxContextTokens,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model, ok := data["model"].(string); ok {
		s.Model = model
	}

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}

	if apiKey, ok := data["api_key"].(string); ok {
		s.APIKey = apiKey
	}

	if v, ok := data["temperature"]; ok {
		t, isNum := v.(float64)
		if !isNum {
			return fmt.Errorf("invalid value type for temperature: expected number, got %T", v)
		}
		s.Temperature = t
	}

	if v, ok := data["max_context_tokens"]; ok {
		n, err := intValue("max_context_tokens", v)
		if err != nil {
			return err
		}
		s.MaxContextTokens = n
	}

	return nil
}

// Validate validates the current configuration. The API key may come from
// the environment, so it is not required here.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", s.Temperature)
	}
	if s.MaxContextTokens < 0 {
		return fmt.Errorf("max_context_tokens must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = ""
	s.BaseURL = ""
	s.APIKey = ""
	s.Temperature = 0
	s.MaxContextTokens = 0
}

// GetModel returns the configured model name.
func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

// SetModel sets the model name.
func (s *LLMSection) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = model
}

// GetBaseURL returns the configured base URL.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// SetBaseURL sets the base URL.
func (s *LLMSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// GetAPIKey returns the configured API key.
func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// SetAPIKey sets the API key.
func (s *LLMSection) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = apiKey
}

// GetTemperature returns the sampling temperature.
func (s *LLMSection) GetTemperature() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Temperature
}

// GetMaxContextTokens returns the user context cap, 0 when unlimited.
func (s *LLMSection) GetMaxContextTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxContextTokens
}
