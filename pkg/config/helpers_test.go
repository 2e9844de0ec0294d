package config

import "testing"

// resetGlobal clears the global manager for the duration of a test.
func resetGlobal(t *testing.T) {
	t.Helper()
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})
}
