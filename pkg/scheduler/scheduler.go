// Package scheduler hands free browser profiles to queued jobs.
//
// EnqueueBatch sorts the jobs oldest first and runs a loop that claims the
// first unlocked profile for the oldest waiting job, starts the job in its
// own goroutine, and waits a pacing delay before the next assignment. When
// every profile is locked the loop sleeps for the backoff interval and
// scans again. Profile locks are the only coordination signal; the loop
// never looks at job outcomes.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EnamSon/gformfiller/pkg/jobs"
	"github.com/EnamSon/gformfiller/pkg/logging"
)

var schedulerLog *logging.Logger

func init() {
	var err error
	schedulerLog, err = logging.NewLogger("scheduler")
	if err != nil {
		schedulerLog.Warnf("failed to initialize scheduler logger: %v", err)
	}
}

const (
	DefaultBackoff = 5 * time.Second
	DefaultPacing  = 2 * time.Second
)

// maxAssignAttempts bounds consecutive store failures for the job at the
// head of the queue before the batch gives up.
const maxAssignAttempts = 3

// Pool finds a free profile.
type Pool interface {
	FirstFree() (name string, ok bool, err error)
}

// Runner executes one job to completion.
type Runner interface {
	RunJob(ctx context.Context, id string) bool
}

// Store is the part of the job store the scheduler needs.
type Store interface {
	Get(ctx context.Context, id string) (*jobs.Job, error)
	Assign(ctx context.Context, id, profile, url string) error
}

// Config tunes the loop.
type Config struct {
	// Backoff is waited when no profile is free.
	Backoff time.Duration
	// Pacing is waited after each launch so the started job can lock its
	// profile before the next scan.
	Pacing time.Duration
}

// Scheduler assigns profiles to jobs.
type Scheduler struct {
	store  Store
	pool   Pool
	runner Runner
	cfg    Config

	mu      sync.Mutex
	group   *errgroup.Group
	started map[string]string
}

// New returns a Scheduler. Zero durations in cfg get the defaults.
func New(store Store, pool Pool, runner Runner, cfg Config) *Scheduler {
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Pacing <= 0 {
		cfg.Pacing = DefaultPacing
	}
	return &Scheduler{
		store:   store,
		pool:    pool,
		runner:  runner,
		cfg:     cfg,
		group:   &errgroup.Group{},
		started: make(map[string]string),
	}
}

// EnqueueBatch assigns every job to a profile and starts it, in creation
// order, sharing url as the target form. It returns once all jobs were
// started or ctx is done; started jobs keep running and Wait blocks until
// they end. Unknown job ids are skipped. A job whose assignment fails stays
// at the head of the queue and is retried after the backoff; repeated
// failures end the batch with an error.
func (s *Scheduler) EnqueueBatch(ctx context.Context, ids []string, url string) error {
	queue, err := s.load(ctx, ids)
	if err != nil {
		return err
	}
	schedulerLog.Infof("batch of %d jobs queued for %s", len(queue), url)

	failures := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			schedulerLog.Warnf("batch stopped with %d jobs waiting: %v", len(queue), err)
			return err
		}

		profile, ok, err := s.pool.FirstFree()
		if err != nil {
			return fmt.Errorf("failed to scan profiles: %w", err)
		}
		if !ok {
			schedulerLog.Debugf("no free profile, %d jobs waiting", len(queue))
			if err := sleep(ctx, s.cfg.Backoff); err != nil {
				schedulerLog.Warnf("batch stopped with %d jobs waiting: %v", len(queue), err)
				return err
			}
			continue
		}

		job := queue[0]
		if err := s.store.Assign(ctx, job.ID, profile, url); err != nil {
			failures++
			schedulerLog.Errorf("assigning %s to %s (attempt %d/%d): %v", job.ID, profile, failures, maxAssignAttempts, err)
			if failures >= maxAssignAttempts {
				return fmt.Errorf("failed to assign job %s after %d attempts: %w", job.ID, failures, err)
			}
			if err := sleep(ctx, s.cfg.Backoff); err != nil {
				schedulerLog.Warnf("batch stopped with %d jobs waiting: %v", len(queue), err)
				return err
			}
			continue
		}
		failures = 0
		queue = queue[1:]
		s.launch(ctx, job.ID, profile)

		if len(queue) > 0 {
			if err := sleep(ctx, s.cfg.Pacing); err != nil {
				schedulerLog.Warnf("batch stopped with %d jobs waiting: %v", len(queue), err)
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) load(ctx context.Context, ids []string) ([]*jobs.Job, error) {
	queue := make([]*jobs.Job, 0, len(ids))
	for _, id := range ids {
		j, err := s.store.Get(ctx, id)
		if err != nil {
			schedulerLog.Warnf("skipping job %s: %v", id, err)
			continue
		}
		queue = append(queue, j)
	}
	sort.SliceStable(queue, func(a, b int) bool {
		return queue[a].CreatedAt.Before(queue[b].CreatedAt)
	})
	return queue, nil
}

// launch starts the job without waiting for it. The job gets a context
// that is not cancelled with the batch so a stopped loop does not abort
// running forms.
func (s *Scheduler) launch(ctx context.Context, id, profile string) {
	s.mu.Lock()
	s.started[id] = profile
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	schedulerLog.Infof("job %s launched on profile %s", id, profile)
	s.group.Go(func() error {
		ok := s.runner.RunJob(runCtx, id)
		schedulerLog.Infof("job %s on profile %s finished, success=%t", id, profile, ok)
		return nil
	})
}

// Started returns the profile each launched job was assigned.
func (s *Scheduler) Started() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.started))
	for k, v := range s.started {
		out[k] = v
	}
	return out
}

// Wait blocks until every launched job has returned.
func (s *Scheduler) Wait() {
	_ = s.group.Wait()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
