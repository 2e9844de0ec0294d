package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/EnamSon/gformfiller/pkg/answers"
	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/config"
	"github.com/EnamSon/gformfiller/pkg/jobs"
	"github.com/EnamSon/gformfiller/pkg/profiles"
	"github.com/EnamSon/gformfiller/pkg/scheduler"
)

// engine bundles what running jobs needs: the store, the profiles, the
// browser driver and a runner configured from the settings file.
type engine struct {
	store    *jobs.SQLiteStore
	profiles *profiles.Dir
	sessions *browser.SessionManager
	runner   *jobs.Runner
}

func newEngine(c *cli.Context) (*engine, error) {
	ws, store, dir, err := openWorkspace(c, "")
	if err != nil {
		return nil, err
	}

	bs := config.GetBrowser()
	formCfg := config.GetFiller().FormConfig()
	formCfg.Timeouts = bs.Timeouts()

	sessions := browser.NewSessionManager()
	sessions.SetMaxSessions(bs.GetMaxSessions())

	return &engine{
		store:    store,
		profiles: dir,
		sessions: sessions,
		runner: &jobs.Runner{
			Store:     store,
			Profiles:  dir,
			Opener:    sessions,
			Workspace: ws,
			Browser:   bs.OpenOptions(),
			Form:      formCfg,
		},
	}, nil
}

// start builds the AI provider when a job needs it and starts the browser
// driver.
func (e *engine) start(c *cli.Context, needAI bool) error {
	if needAI {
		ai, err := aiProvider(c)
		if err != nil {
			return err
		}
		e.runner.AI = ai
	}
	return e.sessions.Initialize()
}

func (e *engine) Close() {
	if err := e.sessions.Shutdown(); err != nil {
		cliLog.Warnf("browser shutdown: %v", err)
	}
	if err := e.store.Close(); err != nil {
		cliLog.Warnf("closing job store: %v", err)
	}
}

func (e *engine) pool() (*profiles.Pool, error) {
	include, exclude := config.GetScheduler().Patterns()
	return profiles.NewPool(e.profiles,
		profiles.WithInclude(include...),
		profiles.WithExclude(exclude...),
	)
}

func aiProvider(c *cli.Context) (answers.Provider, error) {
	provider, err := config.BuildProvider(c.String("model"), c.String("base-url"), c.String("api-key"))
	if err != nil {
		return nil, err
	}
	var opts []answers.Option
	if n := config.GetLLM().GetMaxContextTokens(); n > 0 {
		opts = append(opts, answers.WithMaxContextTokens(n))
	}
	return answers.NewLLMProvider(provider, opts...), nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run one job now",
		ArgsUsage: "<job-id>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "profile", Usage: "profile to use instead of the assigned or first free one"},
		}, llmFlags()...),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("run needs a job id")
	}
	id := c.Args().First()

	e, err := newEngine(c)
	if err != nil {
		return err
	}
	defer e.Close()

	job, err := e.store.Get(c.Context, id)
	if err != nil {
		return err
	}

	profile := c.String("profile")
	if profile == "" {
		profile = job.Profile
	}
	if profile == "" {
		pool, err := e.pool()
		if err != nil {
			return err
		}
		name, ok, err := pool.FirstFree()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no free profile; add one with 'gformfiller profiles add <name>'")
		}
		profile = name
	}
	if profile != job.Profile {
		if err := e.store.Assign(c.Context, id, profile, ""); err != nil {
			return err
		}
	}

	if err := e.start(c, job.UseAI); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Running %s on profile %s\n", id, profile)
	ok := e.runner.RunJob(c.Context, id)

	job, err = e.store.Get(context.WithoutCancel(c.Context), id)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, jobTable([]*jobs.Job{job}))
	if !ok {
		if job.Status == jobs.StatusPending {
			return fmt.Errorf("job %s was not run: profile %s is busy", id, profile)
		}
		return fmt.Errorf("job %s ended %s", id, job.Status)
	}
	return nil
}

func enqueueCommand() *cli.Command {
	return &cli.Command{
		Name:      "enqueue",
		Usage:     "run a batch of jobs across the free profiles",
		ArgsUsage: "[job-id...]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "form URL for every job of the batch (default: each job's own URL)"},
			&cli.BoolFlag{Name: "pending", Usage: "enqueue every pending job when no ids are given"},
		}, llmFlags()...),
		Action: enqueueAction,
	}
}

func enqueueAction(c *cli.Context) error {
	e, err := newEngine(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ids := c.Args().Slice()
	if len(ids) == 0 {
		if !c.Bool("pending") {
			return errors.New("enqueue needs job ids or --pending")
		}
		pending, err := e.store.List(c.Context, jobs.StatusPending)
		if err != nil {
			return err
		}
		for _, j := range pending {
			ids = append(ids, j.ID)
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(c.App.Writer, mutedStyle.Render("Nothing to enqueue"))
		return nil
	}

	needAI := false
	for _, id := range ids {
		job, err := e.store.Get(c.Context, id)
		if err != nil {
			return err
		}
		needAI = needAI || job.UseAI
	}

	pool, err := e.pool()
	if err != nil {
		return err
	}
	if err := e.start(c, needAI); err != nil {
		return err
	}

	sched := scheduler.New(e.store, pool, e.runner, config.GetScheduler().SchedulerConfig())
	fmt.Fprintf(c.App.Writer, "Enqueued %d jobs\n", len(ids))
	batchErr := sched.EnqueueBatch(c.Context, ids, c.String("url"))
	sched.Wait()

	ctx := context.WithoutCancel(c.Context)
	var done []*jobs.Job
	for _, id := range ids {
		job, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		done = append(done, job)
	}
	fmt.Fprintln(c.App.Writer, jobTable(done))

	if batchErr != nil {
		return fmt.Errorf("batch stopped after %d of %d jobs: %w", len(sched.Started()), len(ids), batchErr)
	}
	return nil
}
