package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/EnamSon/gformfiller/pkg/answers"
	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/form"
	"github.com/EnamSon/gformfiller/pkg/profiles"
)

// Action log categories.
const (
	CategoryJob     = "job"
	CategoryProfile = "profile"
)

// Runner executes one job on the profile assigned to it.
type Runner struct {
	Store     Store
	Profiles  *profiles.Dir
	Opener    browser.Opener
	Workspace Workspace

	// Browser is the template for opening sessions; ProfileDir is set per job.
	Browser browser.OpenOptions
	// Form is the template for runs; answers, AI, submit and artifact
	// directories are set per job.
	Form form.Config
	// AI answers jobs with UseAI set. Such jobs fail with status error
	// when it is nil.
	AI answers.Provider
}

// RunJob runs a job to a terminal status and reports whether it completed.
// It refuses to run when the job's profile is already locked. The profile
// lock is always released before RunJob returns, including after a panic.
func (r *Runner) RunJob(ctx context.Context, id string) (ok bool) {
	job, err := r.Store.Get(ctx, id)
	if err != nil {
		jobsLog.Errorf("run %s: %v", id, err)
		return false
	}
	if job.Profile == "" {
		r.finish(ctx, job, StatusError, errors.New("no profile assigned"))
		return false
	}

	if err := r.Profiles.TryLock(job.Profile, job.ID); err != nil {
		if errors.Is(err, profiles.ErrLocked) {
			jobsLog.Warnf("run %s: profile %s is busy", job.ID, job.Profile)
			r.log(ctx, "job_refused", CategoryProfile, job.Profile, "profile locked, job "+job.ID)
			return false
		}
		r.finish(ctx, job, StatusError, err)
		return false
	}
	defer func() {
		if err := r.Profiles.Remove(job.Profile); err != nil {
			jobsLog.Errorf("run %s: %v", job.ID, err)
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			jobsLog.Errorf("run %s: panic: %v", job.ID, p)
			r.finish(context.WithoutCancel(ctx), job, StatusError, fmt.Errorf("panic: %v", p))
			ok = false
		}
	}()

	if err := r.Store.SetStatus(ctx, job.ID, StatusRunning, ""); err != nil {
		jobsLog.Errorf("run %s: %v", job.ID, err)
		return false
	}
	r.log(ctx, "job_started", CategoryJob, job.ID, fmt.Sprintf("profile=%s url=%s", job.Profile, job.URL))

	status, err := r.execute(ctx, job)
	r.finish(context.WithoutCancel(ctx), job, status, err)
	return status == StatusCompleted
}

func (r *Runner) execute(ctx context.Context, job *Job) (Status, error) {
	if job.UseAI && r.AI == nil {
		return StatusError, errors.New("AI answers requested but no provider is configured")
	}
	if err := r.Workspace.Prepare(job.ID); err != nil {
		return StatusError, err
	}

	opts := r.Browser
	opts.ProfileDir = r.Profiles.Path(job.Profile)
	session, err := r.Opener.Open(ctx, opts)
	if err != nil {
		return StatusError, fmt.Errorf("failed to open browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			jobsLog.Warnf("run %s: closing browser: %v", job.ID, err)
		}
	}()

	if err := session.Navigate(ctx, job.URL); err != nil {
		return StatusError, fmt.Errorf("failed to load %s: %w", job.URL, err)
	}

	cfg := r.Form
	cfg.Answers = job.Answers
	cfg.Submit = job.Submit
	cfg.ScreenshotsDir = r.Workspace.ScreenshotsDir(job.ID)
	cfg.PDFDir = r.Workspace.PDFDir(job.ID)
	if job.UseAI {
		cfg.AI = r.AI
		cfg.UserContext = job.AIContext
	}

	res, err := form.New(session, cfg).Run(ctx)
	jobsLog.Infof("run %s: %s after %d pages, %d filled, %d failed",
		job.ID, res.State, len(res.Pages), res.Filled(), res.Failed())
	if err != nil {
		return StatusError, err
	}
	if res.State != form.Done {
		return StatusFailed, errors.New("form halted before completion")
	}
	return StatusCompleted, nil
}

func (r *Runner) finish(ctx context.Context, job *Job, status Status, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := r.Store.SetStatus(ctx, job.ID, status, msg); err != nil {
		jobsLog.Errorf("run %s: recording status %s: %v", job.ID, status, err)
	}
	if cause != nil {
		jobsLog.Errorf("job %s %s: %s", job.ID, status, msg)
	} else {
		jobsLog.Infof("job %s %s", job.ID, status)
	}
	r.log(ctx, "job_"+string(status), CategoryJob, job.ID, msg)
}

func (r *Runner) log(ctx context.Context, action, category, target, details string) {
	if err := r.Store.Log(ctx, Action{Action: action, Category: category, Target: target, Details: details}); err != nil {
		jobsLog.Warnf("action log: %v", err)
	}
}
