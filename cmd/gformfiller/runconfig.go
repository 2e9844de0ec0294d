package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RunConfig describes a job to add, read from a YAML file.
type RunConfig struct {
	// Workspace is used when --workspace is not given.
	Workspace string `yaml:"workspace"`

	URL     string `yaml:"url"`
	Profile string `yaml:"profile"`

	// Answers is the path of the answer table, relative to this file.
	Answers string `yaml:"answers"`

	UseAI         bool   `yaml:"use_ai"`
	AIContext     string `yaml:"ai_context"`
	AIContextFile string `yaml:"ai_context_file"`

	// Submit defaults to the filler.submit setting when absent.
	Submit *bool `yaml:"submit"`

	path string
}

// LoadRunConfig reads and validates a run configuration.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config: %w", err)
	}

	cfg := &RunConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *RunConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL, got %q", c.URL)
	}

	if c.UseAI {
		if c.AIContext != "" && c.AIContextFile != "" {
			return errors.New("ai_context and ai_context_file are mutually exclusive")
		}
		if c.AIContext == "" && c.AIContextFile == "" {
			return errors.New("use_ai requires ai_context or ai_context_file")
		}
	} else if c.Answers == "" {
		return errors.New("answers is required unless use_ai is set")
	}
	return nil
}

// resolve makes p relative to the directory of the config file.
func (c *RunConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.path), p)
}

// AnswersPath returns the resolved answer table path.
func (c *RunConfig) AnswersPath() string {
	return c.resolve(c.Answers)
}

// UserContext returns the AI context, reading it from its file when set.
func (c *RunConfig) UserContext() (string, error) {
	if c.AIContextFile == "" {
		return c.AIContext, nil
	}
	data, err := os.ReadFile(c.resolve(c.AIContextFile))
	if err != nil {
		return "", fmt.Errorf("failed to read ai_context_file: %w", err)
	}
	return string(data), nil
}

// SubmitOr returns Submit, or def when it is not set.
func (c *RunConfig) SubmitOr(def bool) bool {
	if c.Submit == nil {
		return def
	}
	return *c.Submit
}
