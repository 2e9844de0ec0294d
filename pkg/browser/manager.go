package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// SessionManager owns the Playwright driver and the sessions opened through
// it. It implements Opener.
type SessionManager struct {
	mu          sync.Mutex
	sessions    map[string]*PlaywrightSession
	playwright  *playwright.Playwright
	maxSessions int
	initialized bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*PlaywrightSession),
		maxSessions: DefaultMaxSessions,
	}
}

// Initialize installs the Chromium driver if needed and starts Playwright.
// It must be called before Open.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Open launches a persistent Chromium context rooted at opts.ProfileDir.
func (m *SessionManager) Open(ctx context.Context, opts OpenOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ProfileDir == "" {
		return nil, fmt.Errorf("profile directory is required")
	}
	opts.applyDefaults()

	dir, err := filepath.Abs(opts.ProfileDir)
	if err != nil {
		return nil, fmt.Errorf("resolve profile directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}
	if _, exists := m.sessions[dir]; exists {
		return nil, fmt.Errorf("a session is already open for %s", dir)
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}

	bctx, err := m.playwright.Chromium.LaunchPersistentContext(dir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = bctx.NewPage(); err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(millis(opts.Timeout))

	session := &PlaywrightSession{
		profileDir: dir,
		context:    bctx,
		page:       page,
		timeout:    opts.Timeout,
	}
	session.onClose = func() { m.forget(dir) }
	m.sessions[dir] = session
	return session, nil
}

func (m *SessionManager) forget(dir string) {
	m.mu.Lock()
	delete(m.sessions, dir)
	m.mu.Unlock()
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// Active returns the number of open sessions.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes all sessions and stops Playwright.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	sessions := make([]*PlaywrightSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}
