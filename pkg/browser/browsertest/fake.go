// Package browsertest provides an in-memory browser.Session for tests.
//
// Elements answer locator queries from explicit registrations: an element
// returns for FindAll(xpath) exactly the children added under that xpath.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/EnamSon/gformfiller/pkg/browser"
)

// Element is a fake DOM element.
type Element struct {
	mu sync.Mutex

	Name     string
	attrs    map[string]string
	text     string
	value    string
	selected bool
	toggles  bool
	selects  bool
	children map[string][]*Element
	files    []string
	clicks   int
	hovers   int

	// OnClick runs after every successful click, outside the element lock.
	OnClick func(e *Element)
	// OnFiles runs after SetFiles, outside the element lock.
	OnFiles func(paths []string)
	// ClickErr, when set, fails every click.
	ClickErr error
}

var _ browser.Element = (*Element)(nil)

// NewElement returns an empty element named for diagnostics.
func NewElement(name string) *Element {
	return &Element{
		Name:     name,
		attrs:    make(map[string]string),
		children: make(map[string][]*Element),
	}
}

// Checkbox returns an element whose clicks toggle its checked state.
func Checkbox(label string, checked bool) *Element {
	e := NewElement("checkbox:" + label)
	e.attrs["aria-label"] = label
	e.selected = checked
	e.toggles = true
	return e
}

// Radio returns an element whose clicks select it.
func Radio(label string, selected bool) *Element {
	e := NewElement("radio:" + label)
	e.attrs["aria-label"] = label
	e.selected = selected
	e.selects = true
	return e
}

// WithText sets the rendered text.
func (e *Element) WithText(text string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	return e
}

// WithAttr sets an attribute.
func (e *Element) WithAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

// Add registers children returned for xpath.
func (e *Element) Add(xpath string, children ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[xpath] = append(e.children[xpath], children...)
	return e
}

// Remove drops every child registered under xpath.
func (e *Element) Remove(xpath string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.children, xpath)
}

// Clicks returns the number of successful clicks.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Hovers returns the number of hovers.
func (e *Element) Hovers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hovers
}

// Value returns the typed text.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Files returns the attached files.
func (e *Element) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.files...)
}

// Selected returns the checked state without going through the interface.
func (e *Element) Selected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

func (e *Element) Click() error {
	e.mu.Lock()
	if e.ClickErr != nil {
		err := e.ClickErr
		e.mu.Unlock()
		return err
	}
	e.clicks++
	switch {
	case e.toggles:
		e.selected = !e.selected
	case e.selects:
		e.selected = true
	}
	onClick := e.OnClick
	e.mu.Unlock()
	if onClick != nil {
		onClick(e)
	}
	return nil
}

func (e *Element) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = ""
	return nil
}

func (e *Element) Type(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value += text
	return nil
}

func (e *Element) Attribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "aria-checked" && e.toggles {
		return strconv.FormatBool(e.selected), nil
	}
	return e.attrs[name], nil
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *Element) IsSelected() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected, nil
}

func (e *Element) Hover() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hovers++
	return nil
}

func (e *Element) FindOne(xpath string) (browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if found := e.children[xpath]; len(found) > 0 {
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %s in %s", browser.ErrElementNotFound, xpath, e.Name)
}

func (e *Element) FindAll(xpath string) ([]browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	found := e.children[xpath]
	out := make([]browser.Element, len(found))
	for i, c := range found {
		out[i] = c
	}
	return out, nil
}

func (e *Element) WaitFor(ctx context.Context, xpath string, timeout time.Duration) (browser.Element, error) {
	return waitFor(ctx, timeout, func() (browser.Element, error) { return e.FindOne(xpath) })
}

func (e *Element) SetFiles(paths ...string) error {
	e.mu.Lock()
	e.files = append(e.files, paths...)
	hook := e.OnFiles
	e.mu.Unlock()
	if hook != nil {
		hook(paths)
	}
	return nil
}

const pollInterval = 5 * time.Millisecond

func waitFor(ctx context.Context, timeout time.Duration, find func() (browser.Element, error)) (browser.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		el, err := find()
		if err == nil || !errors.Is(err, browser.ErrElementNotFound) {
			return el, err
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Session is a fake browser.Session made of pages. Each page is a root
// Element; lookups resolve against the current page or the frame selected
// with SwitchToFrame.
type Session struct {
	mu      sync.Mutex
	pages   []*Element
	current int
	frame   *Element

	navigated   []string
	scripts     []string
	screenshots []string
	pdfs        []string
	closed      bool

	// HTML is returned by Content.
	HTML string
	// PDFErr, when set, fails PrintToPDF.
	PDFErr error
	// ScreenshotErr, when set, fails Screenshot.
	ScreenshotErr error
	// OnEvaluate runs for every script passed to Evaluate.
	OnEvaluate func(script string)
}

var _ browser.Session = (*Session)(nil)

// NewSession returns a session with the given pages; the first is current.
func NewSession(pages ...*Element) *Session {
	if len(pages) == 0 {
		pages = []*Element{NewElement("page0")}
	}
	return &Session{pages: pages, HTML: "<html><body></body></html>"}
}

// Page returns page i.
func (s *Session) Page(i int) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[i]
}

// GoTo makes page i current.
func (s *Session) GoTo(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = i
	s.frame = nil
}

// Current returns the index of the current page.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) root() *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame != nil {
		return s.frame
	}
	return s.pages[s.current]
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, url)
	s.current = 0
	s.frame = nil
	return nil
}

func (s *Session) FindOne(xpath string) (browser.Element, error) {
	return s.root().FindOne(xpath)
}

func (s *Session) FindAll(xpath string) ([]browser.Element, error) {
	return s.root().FindAll(xpath)
}

func (s *Session) WaitFor(ctx context.Context, xpath string, timeout time.Duration) (browser.Element, error) {
	return waitFor(ctx, timeout, func() (browser.Element, error) { return s.FindOne(xpath) })
}

func (s *Session) SwitchToFrame(frame browser.Element) error {
	el, ok := frame.(*Element)
	if !ok {
		return fmt.Errorf("switch to frame: unsupported element %T", frame)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = el
	return nil
}

func (s *Session) SwitchToDefault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = nil
	return nil
}

// InFrame reports whether lookups are scoped to a frame.
func (s *Session) InFrame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame != nil
}

func (s *Session) Evaluate(script string) error {
	s.mu.Lock()
	s.scripts = append(s.scripts, script)
	hook := s.OnEvaluate
	s.mu.Unlock()
	if hook != nil {
		hook(script)
	}
	return nil
}

func (s *Session) Screenshot(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScreenshotErr != nil {
		return s.ScreenshotErr
	}
	s.screenshots = append(s.screenshots, path)
	return writeFile(path, "PNG")
}

func (s *Session) PrintToPDF(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PDFErr != nil {
		return s.PDFErr
	}
	s.pdfs = append(s.pdfs, path)
	return writeFile(path, "%PDF-1.4 fake")
}

func (s *Session) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HTML, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Navigated returns the URLs passed to Navigate.
func (s *Session) Navigated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

// Scripts returns the scripts passed to Evaluate.
func (s *Session) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Screenshots returns the paths of captured screenshots.
func (s *Session) Screenshots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.screenshots...)
}

// PDFs returns the paths of printed PDFs.
func (s *Session) PDFs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pdfs...)
}

func writeFile(path, content string) error {
	if path == "" || !filepath.IsAbs(path) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Opener hands out sessions from a constructor and records which profile
// directories were opened.
type Opener struct {
	mu     sync.Mutex
	New    func(opts browser.OpenOptions) (browser.Session, error)
	opened []browser.OpenOptions
}

func (o *Opener) Open(ctx context.Context, opts browser.OpenOptions) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.opened = append(o.opened, opts)
	o.mu.Unlock()
	if o.New == nil {
		return NewSession(), nil
	}
	return o.New(opts)
}

// Opened returns the options of every Open call.
func (o *Opener) Opened() []browser.OpenOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]browser.OpenOptions(nil), o.opened...)
}
