package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup. configPath overrides
// the file lookup; otherwise settings come from the workspace root layered
// over the gformfiller home (see ResolvePaths).
func Initialize(configPath, workspace string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	paths, err := ResolvePaths(configPath, workspace)
	if err != nil {
		return err
	}
	store, err := NewFileStore(paths)
	if err != nil {
		return err
	}

	manager := NewManager(store)

	sections := []Section{
		NewBrowserSection(),
		NewFillerSection(),
		NewLLMSection(),
		NewSchedulerSection(),
	}
	for _, section := range sections {
		if err := manager.RegisterSection(section); err != nil {
			return err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

func globalSection[T Section](id string) T {
	var zero T
	if !IsInitialized() {
		return zero
	}

	section, ok := Global().GetSection(id)
	if !ok {
		return zero
	}

	typed, ok := section.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetBrowser returns the browser section from global config.
// Returns nil if config is not initialized.
func GetBrowser() *BrowserSection {
	return globalSection[*BrowserSection](SectionIDBrowser)
}

// GetFiller returns the form filling section from global config.
// Returns nil if config is not initialized.
func GetFiller() *FillerSection {
	return globalSection[*FillerSection](SectionIDFiller)
}

// GetLLM returns the LLM settings section from global config.
// Returns nil if config is not initialized.
func GetLLM() *LLMSection {
	return globalSection[*LLMSection](SectionIDLLM)
}

// GetScheduler returns the scheduler section from global config.
// Returns nil if config is not initialized.
func GetScheduler() *SchedulerSection {
	return globalSection[*SchedulerSection](SectionIDScheduler)
}
