// Package browser defines the remote browser capability used to drive forms
// and provides its Playwright implementation.
//
// Locators are XPath expressions. Lookups on a Session are scoped to the
// current frame, which is the main document until SwitchToFrame is called.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned when a locator matches nothing, including
// when a bounded wait expires.
var ErrElementNotFound = errors.New("browser: element not found")

// Element is a handle to one DOM element.
type Element interface {
	Click() error
	// Clear empties a text-like input.
	Clear() error
	// Type appends text to a text-like input.
	Type(text string) error
	// Attribute returns the attribute value, "" when absent.
	Attribute(name string) (string, error)
	// Text returns the rendered text of the element.
	Text() (string, error)
	// IsSelected reports the checked state of a checkbox or radio, reading
	// aria-checked first and falling back to the native checked state.
	IsSelected() (bool, error)
	// Hover moves the pointer over the element.
	Hover() error
	FindOne(xpath string) (Element, error)
	FindAll(xpath string) ([]Element, error)
	WaitFor(ctx context.Context, xpath string, timeout time.Duration) (Element, error)
	// SetFiles attaches local files to a file input.
	SetFiles(paths ...string) error
}

// Session is one open browser tab bound to a profile.
type Session interface {
	Navigate(ctx context.Context, url string) error
	FindOne(xpath string) (Element, error)
	FindAll(xpath string) ([]Element, error)
	WaitFor(ctx context.Context, xpath string, timeout time.Duration) (Element, error)
	// SwitchToFrame scopes later lookups to the document of an iframe element.
	SwitchToFrame(frame Element) error
	SwitchToDefault() error
	// Evaluate runs a script in the current frame.
	Evaluate(script string) error
	Screenshot(path string) error
	PrintToPDF(path string) error
	// Content returns the serialized HTML of the main document.
	Content() (string, error)
	Close() error
}

// Opener opens sessions for profiles. Implementations must allow at most
// one open session per profile directory.
type Opener interface {
	Open(ctx context.Context, opts OpenOptions) (Session, error)
}
