package browser

import "time"

// Default values for sessions
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900
	DefaultMaxSessions    = 8
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// OpenOptions configures a new session.
type OpenOptions struct {
	// ProfileDir is the persistent user data directory (cookies, logins).
	ProfileDir string

	Headless bool

	// Viewport defaults to DefaultViewportWidth x DefaultViewportHeight.
	Viewport *Viewport

	// Timeout is the default timeout for page operations and navigation.
	Timeout time.Duration
}

func (o *OpenOptions) applyDefaults() {
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
