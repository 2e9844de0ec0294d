package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRunConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "context.txt", "Name: Jane Doe")
	path := writeFile(t, dir, "run.yaml", `
url: https://docs.google.com/forms/d/e/abc/viewform
profile: work
answers: answers.yaml
submit: true
`)

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Profile)
	assert.Equal(t, filepath.Join(dir, "answers.yaml"), cfg.AnswersPath())
	assert.True(t, cfg.SubmitOr(false))

	t.Run("ai context from file", func(t *testing.T) {
		path := writeFile(t, dir, "ai.yaml", `
url: https://docs.google.com/forms/d/e/abc/viewform
use_ai: true
ai_context_file: context.txt
`)
		cfg, err := LoadRunConfig(path)
		require.NoError(t, err)
		ctx, err := cfg.UserContext()
		require.NoError(t, err)
		assert.Equal(t, "Name: Jane Doe", ctx)
		assert.False(t, cfg.SubmitOr(false))
		assert.True(t, cfg.SubmitOr(true))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRunConfig(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadRunConfig(writeFile(t, dir, "bad.yaml", "url: [unclosed"))
		assert.Error(t, err)
	})
}

func TestRunConfig_Validate(t *testing.T) {
	const formURL = "https://docs.google.com/forms/d/e/abc/viewform"

	tests := []struct {
		name    string
		cfg     RunConfig
		wantErr string
	}{
		{name: "answers", cfg: RunConfig{URL: formURL, Answers: "a.yaml"}},
		{name: "ai inline", cfg: RunConfig{URL: formURL, UseAI: true, AIContext: "me"}},
		{name: "missing url", cfg: RunConfig{Answers: "a.yaml"}, wantErr: "url is required"},
		{name: "relative url", cfg: RunConfig{URL: "/forms/abc", Answers: "a.yaml"}, wantErr: "absolute http(s) URL"},
		{name: "ftp url", cfg: RunConfig{URL: "ftp://example.com/x", Answers: "a.yaml"}, wantErr: "absolute http(s) URL"},
		{name: "no answers", cfg: RunConfig{URL: formURL}, wantErr: "answers is required"},
		{name: "ai without context", cfg: RunConfig{URL: formURL, UseAI: true}, wantErr: "requires ai_context"},
		{
			name:    "ai with both contexts",
			cfg:     RunConfig{URL: formURL, UseAI: true, AIContext: "me", AIContextFile: "me.txt"},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
