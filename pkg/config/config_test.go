package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/EnamSon/gformfiller/pkg/logging"
)

func TestInitialize(t *testing.T) {
	t.Run("registers every section", func(t *testing.T) {
		resetGlobal(t)
		if err := Initialize(filepath.Join(t.TempDir(), "config.json"), ""); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if !IsInitialized() {
			t.Fatal("Global manager should be initialized")
		}

		want := []string{SectionIDBrowser, SectionIDFiller, SectionIDLLM, SectionIDScheduler}
		sections := Global().GetSections()
		if len(sections) != len(want) {
			t.Fatalf("Expected %d sections, got %d", len(want), len(sections))
		}
		for i, id := range want {
			if sections[i].ID() != id {
				t.Errorf("sections[%d] = %s, want %s", i, sections[i].ID(), id)
			}
		}
	})

	t.Run("loads existing configuration", func(t *testing.T) {
		resetGlobal(t)
		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := Initialize(configPath, ""); err != nil {
			t.Fatalf("First initialize failed: %v", err)
		}

		GetLLM().SetModel("gpt-4o")
		if err := GetScheduler().SetData(map[string]interface{}{"backoff": "9s"}); err != nil {
			t.Fatalf("SetData failed: %v", err)
		}
		if err := Global().SaveAll(); err != nil {
			t.Fatalf("SaveAll failed: %v", err)
		}

		resetGlobal(t)
		if err := Initialize(configPath, ""); err != nil {
			t.Fatalf("Re-initialize failed: %v", err)
		}
		if got := GetLLM().GetModel(); got != "gpt-4o" {
			t.Errorf("Expected model gpt-4o, got %q", got)
		}
		if got := GetScheduler().SchedulerConfig().Backoff; got != 9*time.Second {
			t.Errorf("Expected backoff 9s, got %v", got)
		}
	})

	t.Run("layers the workspace file over the home file", func(t *testing.T) {
		resetGlobal(t)
		home := t.TempDir()
		t.Setenv(logging.HomeEnv, home)
		workspace := t.TempDir()
		writeConfig(t, filepath.Join(home, DefaultFileName), `{"version":"1.0","sections":{"llm":{"model":"gpt-4o"},"filler":{"max_attempts":2}}}`)
		writeConfig(t, filepath.Join(workspace, DefaultFileName), `{"version":"1.0","sections":{"filler":{"max_attempts":4}}}`)

		if err := Initialize("", workspace); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if got := GetLLM().GetModel(); got != "gpt-4o" {
			t.Errorf("Expected model from home, got %q", got)
		}
		if got := GetFiller().FormConfig().MaxAttempts; got != 4 {
			t.Errorf("Expected max_attempts 4 from the workspace, got %d", got)
		}

		GetLLM().SetModel("gpt-4o-mini")
		if err := Global().SaveAll(); err != nil {
			t.Fatalf("SaveAll failed: %v", err)
		}
		homeRaw, err := os.ReadFile(filepath.Join(home, DefaultFileName))
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if strings.Contains(string(homeRaw), "gpt-4o-mini") {
			t.Error("Workspace settings leaked into the home file")
		}
	})

	t.Run("rejects invalid stored values", func(t *testing.T) {
		resetGlobal(t)
		configPath := filepath.Join(t.TempDir(), "config.json")
		content := `{"version":"1.0","sections":{"browser":{"headless":"yes"}}}`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if err := Initialize(configPath, ""); err == nil {
			t.Error("Expected error for non-bool headless")
		}
		if IsInitialized() {
			t.Error("Failed Initialize should not install a manager")
		}
	})
}

func TestGlobal_PanicsWhenUninitialized(t *testing.T) {
	resetGlobal(t)
	defer func() {
		if recover() == nil {
			t.Error("Global should panic before Initialize")
		}
	}()
	Global()
}

func TestGetters_Uninitialized(t *testing.T) {
	resetGlobal(t)
	if GetBrowser() != nil {
		t.Error("GetBrowser should be nil")
	}
	if GetFiller() != nil {
		t.Error("GetFiller should be nil")
	}
	if GetLLM() != nil {
		t.Error("GetLLM should be nil")
	}
	if GetScheduler() != nil {
		t.Error("GetScheduler should be nil")
	}
}

func TestGlobalConfig_ThreadSafety(t *testing.T) {
	resetGlobal(t)
	if err := Initialize(filepath.Join(t.TempDir(), "config.json"), ""); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				GetBrowser().OpenOptions()
				GetFiller().FormConfig()
				GetLLM().GetModel()
				GetScheduler().Patterns()
			}
		}()
	}
	wg.Wait()
}
