package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

func xpath(locator string) string {
	return "xpath=" + locator
}

// PlaywrightSession is a Session backed by a persistent Chromium context.
type PlaywrightSession struct {
	mu         sync.Mutex
	profileDir string
	context    playwright.BrowserContext
	page       playwright.Page
	frame      playwright.Frame
	timeout    time.Duration
	onClose    func()
	closeOnce  sync.Once
}

func (s *PlaywrightSession) current() playwright.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame != nil {
		return s.frame
	}
	return s.page.MainFrame()
}

// ProfileDir returns the user data directory the session was opened with.
func (s *PlaywrightSession) ProfileDir() string { return s.profileDir }

// Navigate loads url and waits for the load event.
func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.SwitchToDefault(); err != nil {
		return err
	}
	timeout := millis(s.timeout)
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < s.timeout {
			timeout = millis(left)
		}
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(timeout),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *PlaywrightSession) FindOne(locator string) (Element, error) {
	handle, err := s.current().QuerySelector(xpath(locator))
	return wrapHandle(locator, handle, err)
}

func (s *PlaywrightSession) FindAll(locator string) ([]Element, error) {
	handles, err := s.current().QuerySelectorAll(xpath(locator))
	return wrapHandles(locator, handles, err)
}

func (s *PlaywrightSession) WaitFor(ctx context.Context, locator string, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handle, err := s.current().WaitForSelector(xpath(locator), playwright.FrameWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(timeout)),
	})
	return wrapWait(locator, handle, err)
}

func (s *PlaywrightSession) SwitchToFrame(frame Element) error {
	el, ok := frame.(*playwrightElement)
	if !ok {
		return fmt.Errorf("switch to frame: unsupported element %T", frame)
	}
	content, err := el.handle.ContentFrame()
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	if content == nil {
		return fmt.Errorf("switch to frame: element is not a frame")
	}
	s.mu.Lock()
	s.frame = content
	s.mu.Unlock()
	return nil
}

func (s *PlaywrightSession) SwitchToDefault() error {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
	return nil
}

func (s *PlaywrightSession) Evaluate(script string) error {
	if _, err := s.current().Evaluate(script); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (s *PlaywrightSession) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

// PrintToPDF renders the page. Only headless Chromium supports printing.
func (s *PlaywrightSession) PrintToPDF(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	_, err := s.page.PDF(playwright.PagePdfOptions{
		Path:            playwright.String(path),
		PrintBackground: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("print to pdf: %w", err)
	}
	return nil
}

func (s *PlaywrightSession) Content() (string, error) {
	return s.page.Content()
}

// Close closes the browser context. Safe to call multiple times.
func (s *PlaywrightSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.context.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return err
}

type playwrightElement struct {
	locator string
	handle  playwright.ElementHandle
}

func wrapHandle(locator string, handle playwright.ElementHandle, err error) (Element, error) {
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", locator, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, locator)
	}
	return &playwrightElement{locator: locator, handle: handle}, nil
}

func wrapHandles(locator string, handles []playwright.ElementHandle, err error) ([]Element, error) {
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", locator, err)
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &playwrightElement{locator: locator, handle: h})
	}
	return out, nil
}

func wrapWait(locator string, handle playwright.ElementHandle, err error) (Element, error) {
	if errors.Is(err, playwright.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s (timeout)", ErrElementNotFound, locator)
	}
	return wrapHandle(locator, handle, err)
}

func (e *playwrightElement) Click() error {
	return e.handle.Click()
}

func (e *playwrightElement) Clear() error {
	return e.handle.Fill("")
}

func (e *playwrightElement) Type(text string) error {
	return e.handle.Type(text)
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *playwrightElement) Text() (string, error) {
	return e.handle.InnerText()
}

func (e *playwrightElement) IsSelected() (bool, error) {
	aria, err := e.handle.GetAttribute("aria-checked")
	if err != nil {
		return false, err
	}
	if aria != "" {
		return aria == "true", nil
	}
	return e.handle.IsChecked()
}

func (e *playwrightElement) Hover() error {
	return e.handle.Hover()
}

func (e *playwrightElement) FindOne(locator string) (Element, error) {
	handle, err := e.handle.QuerySelector(xpath(locator))
	return wrapHandle(locator, handle, err)
}

func (e *playwrightElement) FindAll(locator string) ([]Element, error) {
	handles, err := e.handle.QuerySelectorAll(xpath(locator))
	return wrapHandles(locator, handles, err)
}

func (e *playwrightElement) WaitFor(ctx context.Context, locator string, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handle, err := e.handle.WaitForSelector(xpath(locator), playwright.ElementHandleWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(timeout)),
	})
	return wrapWait(locator, handle, err)
}

func (e *playwrightElement) SetFiles(paths ...string) error {
	return e.handle.SetInputFiles(paths)
}
