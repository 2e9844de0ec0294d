// Package form drives one Google Form from its first page to submission.
//
// A Filler walks the form page by page. On each page it identifies the
// question blocks, resolves their answers from an AnswerTable or an AI
// provider, applies them through the responses handlers, prints the page,
// then moves to the next page. When the last page is reached it submits
// the form if asked to.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/EnamSon/gformfiller/pkg/answers"
	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/locators"
	"github.com/EnamSon/gformfiller/pkg/logging"
	"github.com/EnamSon/gformfiller/pkg/responses"
)

var formLog *logging.Logger

func init() {
	var err error
	formLog, err = logging.NewLogger("form")
	if err != nil {
		formLog.Warnf("failed to initialize form logger: %v", err)
	}
}

const (
	// DefaultMaxAttempts applies each answer once.
	DefaultMaxAttempts = 1
	// DefaultMaxPages bounds a run on forms whose next button loops.
	DefaultMaxPages = 100
)

// ErrPageLimit is returned when a form keeps advancing past MaxPages.
var ErrPageLimit = errors.New("page limit reached")

// Config controls one form run.
type Config struct {
	// Answers is used when AI is nil.
	Answers AnswerTable
	// AI, when set, answers every page from UserContext.
	AI          answers.Provider
	UserContext string

	// Submit clicks the submit button on the last page.
	Submit bool

	// MaxAttempts is the number of times an answer is applied before the
	// question is counted as failed.
	MaxAttempts int
	RetryDelay  time.Duration
	// PageSettle is waited after filling a page and after changing page.
	PageSettle time.Duration
	MaxPages   int

	// ScreenshotsDir receives diagnostic screenshots; empty disables them.
	ScreenshotsDir string
	// PDFDir receives page snapshots; empty disables them.
	PDFDir string
	// MergePDF combines the page snapshots into one file at the end.
	MergePDF bool

	Timeouts responses.Timeouts
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	return c
}

// PageReport counts the outcome of one page.
type PageReport struct {
	Page      int
	Questions int
	Filled    int
	Failed    int
}

// Result summarises a run.
type Result struct {
	State     State
	Page      int
	Pages     []PageReport
	Submitted bool
	PDFs      []string
	Merged    string
}

// Filled returns the number of questions filled across pages.
func (r Result) Filled() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Filled
	}
	return n
}

// Failed returns the number of questions that could not be filled.
func (r Result) Failed() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Failed
	}
	return n
}

// Filler runs the page state machine over a browser session. A Filler is
// used for a single Run.
type Filler struct {
	session browser.Session
	cfg     Config
	now     func() time.Time

	mu     sync.Mutex
	state  State
	page   int
	result Result
}

// New returns a Filler for the form currently loaded in session.
func New(session browser.Session, cfg Config) *Filler {
	return &Filler{
		session: session,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// State returns the current state.
func (f *Filler) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Page returns the zero-based index of the current page.
func (f *Filler) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

func (f *Filler) setState(s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	formLog.Debugf("page %d: %s -> %s", f.page, f.state, s)
	f.state = s
}

// Run fills the form until it reaches Done or Halted.
//
// A controlled failure (submit requested but impossible) ends in Halted
// with a nil error. Any other failure ends in Halted with the error
// returned and a FAIL_CRITICAL screenshot taken.
func (f *Filler) Run(ctx context.Context) (Result, error) {
	err := f.run(ctx)
	if err != nil {
		formLog.Errorf("run aborted on page %d: %v", f.Page(), err)
		f.capture("FAIL_CRITICAL")
		f.setState(Halted)
	}
	if f.cfg.MergePDF {
		f.mergeSnapshots()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.result.State = f.state
	f.result.Page = f.page
	return f.result, err
}

func (f *Filler) run(ctx context.Context) error {
	for {
		f.setState(FillingPage)
		report, err := f.FillPage(ctx)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.result.Pages = append(f.result.Pages, report)
		f.mu.Unlock()

		if err := sleep(ctx, f.cfg.PageSettle); err != nil {
			return err
		}
		f.snapshot(fmt.Sprintf("Page_%d_Filled", f.Page()+1))

		f.setState(Advancing)
		advanced, err := f.Next(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			break
		}
		f.mu.Lock()
		f.page++
		page := f.page
		f.mu.Unlock()
		if page >= f.cfg.MaxPages {
			return fmt.Errorf("%w: %d", ErrPageLimit, f.cfg.MaxPages)
		}
		if err := sleep(ctx, f.cfg.PageSettle); err != nil {
			return err
		}
	}

	if !f.cfg.Submit {
		formLog.Infof("last page reached, submission not requested")
		f.setState(Done)
		return nil
	}

	f.setState(Submitting)
	submitted, err := f.SubmitForm(ctx)
	if err != nil {
		return err
	}
	if !submitted {
		f.capture("FAIL_HALTED")
		f.setState(Halted)
		return nil
	}
	f.mu.Lock()
	f.result.Submitted = true
	f.mu.Unlock()
	f.setState(Done)
	return nil
}

// FillPage identifies and fills every question of the current page.
// Question failures are counted, not returned.
func (f *Filler) FillPage(ctx context.Context) (PageReport, error) {
	report := PageReport{Page: f.Page()}

	handlers, err := f.questions()
	if err != nil {
		return report, err
	}
	report.Questions = len(handlers)
	formLog.Infof("page %d: %d questions", report.Page, len(handlers))

	if f.cfg.AI != nil {
		err = f.fillWithAI(ctx, handlers, &report)
	} else {
		err = f.fillWithTable(ctx, handlers, &report)
	}
	if err != nil {
		return report, err
	}
	formLog.Infof("page %d: filled %d, failed %d", report.Page, report.Filled, report.Failed)
	return report, nil
}

func (f *Filler) questions() ([]responses.Handler, error) {
	containers, err := f.session.FindAll(locators.Question.XPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	deps := responses.Deps{
		Session:  f.session,
		Timeouts: f.cfg.Timeouts,
		Capture:  f.capture,
	}
	handlers := make([]responses.Handler, 0, len(containers))
	for _, c := range containers {
		h, err := responses.Identify(deps, c)
		if err != nil {
			if !responses.IsClassificationMiss(err) {
				formLog.Warnf("skipping question: %v", err)
			}
			continue
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

func (f *Filler) fillWithTable(ctx context.Context, handlers []responses.Handler, report *PageReport) error {
	for _, h := range handlers {
		entry, ok := f.cfg.Answers.Lookup(h.Kind(), h.Label())
		if !ok {
			formLog.Debugf("no %s entry matches %q", h.Kind(), h.Label())
			continue
		}
		if err := f.apply(ctx, h, entry.Answer, report); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillWithAI(ctx context.Context, handlers []responses.Handler, report *PageReport) error {
	if len(handlers) == 0 {
		return nil
	}
	questions := make([]answers.Question, len(handlers))
	for i, h := range handlers {
		questions[i] = answers.Question{Text: h.Label(), Kind: h.Kind(), Options: h.Options()}
	}

	replies, err := f.cfg.AI.GenerateAnswers(ctx, questions, f.cfg.UserContext)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		formLog.Errorf("page %d: AI provider failed: %v", report.Page, err)
		f.capture("AI_FAILURE")
		report.Failed += len(handlers)
		return nil
	}

	for i, h := range handlers {
		if i >= len(replies) {
			formLog.Warnf("page %d: no answer for %q", report.Page, h.Label())
			report.Failed++
			continue
		}
		if answers.IsNoAnswer(replies[i]) {
			formLog.Debugf("page %d: no answer available for %q", report.Page, h.Label())
			continue
		}
		if err := f.apply(ctx, h, replies[i], report); err != nil {
			return err
		}
	}
	return nil
}

// apply runs h.Apply up to MaxAttempts times. Only context errors are
// returned; other failures are counted in report.
func (f *Filler) apply(ctx context.Context, h responses.Handler, answer string, report *PageReport) error {
	var err error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		err = h.Apply(ctx, answer)
		if err == nil {
			report.Filled++
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !responses.IsRetryable(err) || attempt == f.cfg.MaxAttempts {
			break
		}
		formLog.Warnf("%s %q attempt %d failed: %v", h.Kind(), h.Label(), attempt, err)
		if err := sleep(ctx, f.cfg.RetryDelay); err != nil {
			return err
		}
	}
	formLog.Errorf("%s %q failed: %v", h.Kind(), h.Label(), err)
	report.Failed++
	return nil
}

// Next clicks the next-page control. It reports false without error on
// the last page, when no control exists, or when the click fails.
func (f *Filler) Next(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, final, err := f.find(locators.Submit)
	if err != nil {
		return false, err
	}
	if final {
		formLog.Infof("page %d is the last page", f.Page())
		return false, nil
	}

	next, ok, err := f.find(locators.NextFor(f.Page()))
	if err != nil {
		return false, err
	}
	if !ok {
		formLog.Infof("page %d has no next button", f.Page())
		return false, nil
	}
	if err := next.Click(); err != nil {
		formLog.Errorf("page %d: next button click failed: %v", f.Page(), err)
		f.capture("FAIL_NEXT_BUTTON")
		return false, nil
	}
	return true, nil
}

// SubmitForm clicks the submit control once.
func (f *Filler) SubmitForm(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	btn, ok, err := f.find(locators.Submit)
	if err != nil {
		return false, err
	}
	if !ok {
		formLog.Errorf("submit button not found")
		f.capture("FAIL_SUBMIT_NOT_FOUND")
		return false, nil
	}
	if err := btn.Click(); err != nil {
		formLog.Errorf("submit click failed: %v", err)
		f.capture("FAIL_SUBMIT_NOT_FOUND")
		return false, nil
	}
	if err := sleep(ctx, f.cfg.PageSettle); err != nil {
		return false, err
	}
	formLog.Infof("form submitted")
	f.capture("SUCCESS_SUBMIT")
	f.snapshot("Page_after_submission")
	return true, nil
}

func (f *Filler) find(l locators.Locator) (browser.Element, bool, error) {
	el, err := f.session.FindOne(l.XPath)
	if errors.Is(err, browser.ErrElementNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up %s: %w", l, err)
	}
	return el, true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
