package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetState points the package at a fresh home directory for one test.
func resetState(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	t.Setenv(LevelEnv, "")

	logDir = ""
	initErr = nil
	initOnce = sync.Once{}
	sessionID = ""
	sessionIDOnce = sync.Once{}
	return home
}

func TestNewLogger(t *testing.T) {
	home := resetState(t)

	logger, err := NewLogger("dsl")
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "dsl", logger.component)
	assert.NotEmpty(t, logger.SessionID())
	assert.Equal(t, filepath.Join(home, "logs"), filepath.Dir(logger.LogPath()))
	assert.True(t, strings.HasSuffix(logger.LogPath(), "-gformfiller.log"))
	_, err = os.Stat(logger.LogPath())
	assert.NoError(t, err)
}

func TestLoggerFormatting(t *testing.T) {
	resetState(t)

	logger, err := NewLogger("scheduler")
	require.NoError(t, err)

	logger.Debugf("debug %d", 1)
	logger.Infof("info %s", "two")
	logger.Warnf("warn")
	logger.Errorf("error %v", true)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	content := string(data)

	for _, want := range []string{
		"[scheduler] [DEBUG] debug 1",
		"[scheduler] [INFO] info two",
		"[scheduler] [WARN] warn",
		"[scheduler] [ERROR] error true",
	} {
		assert.Contains(t, content, want)
	}
}

func TestLevelFiltering(t *testing.T) {
	resetState(t)
	t.Setenv(LevelEnv, "warn")

	logger, err := NewLogger("form")
	require.NoError(t, err)
	logger.Infof("hidden")
	logger.Warnf("shown")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestComponentsShareSessionFile(t *testing.T) {
	resetState(t)

	a, err := NewLogger("a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewLogger("b")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.LogPath(), b.LogPath())
	assert.Equal(t, a.SessionID(), GetSessionID())
}

func TestConcurrentWrites(t *testing.T) {
	resetState(t)

	logger, err := NewLogger("jobs")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Infof("worker %d line %d", n, j)
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	assert.Equal(t, 200, strings.Count(string(data), "\n"))
}

func TestCloseIsIdempotent(t *testing.T) {
	resetState(t)

	logger, err := NewLogger("x")
	require.NoError(t, err)
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"bogus", LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
