package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnamSon/gformfiller/pkg/jobs"
)

// fakePool is a fixed list of profiles with an in-memory lock set.
type fakePool struct {
	mu     sync.Mutex
	names  []string
	locked map[string]bool
	scans  int
}

func newFakePool(names ...string) *fakePool {
	return &fakePool{names: names, locked: make(map[string]bool)}
}

func (p *fakePool) FirstFree() (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scans++
	for _, n := range p.names {
		if !p.locked[n] {
			return n, true, nil
		}
	}
	return "", false, nil
}

func (p *fakePool) setLocked(name string, locked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked[name] = locked
}

func (p *fakePool) scanCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scans
}

// fakeStore claims the profile in the pool on Assign, the way a started
// job locks it.
type fakeStore struct {
	mu       sync.Mutex
	pool     *fakePool
	jobs     map[string]*jobs.Job
	assigned []string
	// assignErrs are returned by the next Assign calls, in order.
	assignErrs []error
	attempts   int
}

func newFakeStore(pool *fakePool, js ...*jobs.Job) *fakeStore {
	s := &fakeStore{pool: pool, jobs: make(map[string]*jobs.Job)}
	for _, j := range js {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *fakeStore) Get(ctx context.Context, id string) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", jobs.ErrNotFound, id)
	}
	cp := *j
	return &cp, nil
}

func (s *fakeStore) Assign(ctx context.Context, id, profile, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if len(s.assignErrs) > 0 {
		err := s.assignErrs[0]
		s.assignErrs = s.assignErrs[1:]
		if err != nil {
			return err
		}
	}
	j := s.jobs[id]
	j.Profile = profile
	j.URL = url
	s.assigned = append(s.assigned, id+"@"+profile)
	s.pool.setLocked(profile, true)
	return nil
}

func (s *fakeStore) assignments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.assigned...)
}

// fakeRunner blocks every job until release is closed, then frees its
// profile.
type fakeRunner struct {
	store   *fakeStore
	release chan struct{}

	mu  sync.Mutex
	ran []string
}

func (r *fakeRunner) RunJob(ctx context.Context, id string) bool {
	<-r.release
	j, _ := r.store.Get(ctx, id)
	r.mu.Lock()
	r.ran = append(r.ran, id)
	r.mu.Unlock()
	r.store.pool.setLocked(j.Profile, false)
	return true
}

func job(id string, created time.Time) *jobs.Job {
	return &jobs.Job{ID: id, CreatedAt: created, Status: jobs.StatusPending}
}

func fastConfig() Config {
	return Config{Backoff: 20 * time.Millisecond, Pacing: time.Millisecond}
}

func TestOldestJobGetsFirstFreeProfile(t *testing.T) {
	now := time.Now()
	pool := newFakePool("P1", "P2")
	pool.setLocked("P1", true)
	store := newFakeStore(pool, job("J2", now), job("J1", now.Add(-time.Minute)))
	runner := &fakeRunner{store: store, release: make(chan struct{})}
	s := New(store, pool, runner, fastConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := s.EnqueueBatch(ctx, []string{"J2", "J1"}, "https://form")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// J1 took P2; J2 is still waiting because both profiles are locked.
	assert.Equal(t, []string{"J1@P2"}, store.assignments())
	assert.Equal(t, map[string]string{"J1": "P2"}, s.Started())

	close(runner.release)
	s.Wait()
	j1, err := store.Get(context.Background(), "J1")
	require.NoError(t, err)
	assert.Equal(t, "https://form", j1.URL)
}

func TestBatchRunsEveryJobAsProfilesFree(t *testing.T) {
	now := time.Now()
	pool := newFakePool("P1")
	store := newFakeStore(pool,
		job("J3", now.Add(2*time.Second)),
		job("J1", now),
		job("J2", now.Add(time.Second)),
	)
	runner := &fakeRunner{store: store, release: make(chan struct{})}
	close(runner.release)
	s := New(store, pool, runner, fastConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.EnqueueBatch(ctx, []string{"J3", "J1", "J2", "missing"}, "https://form"))
	s.Wait()

	assert.Equal(t, []string{"J1@P1", "J2@P1", "J3@P1"}, store.assignments())
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.ElementsMatch(t, []string{"J1", "J2", "J3"}, runner.ran)
}

func TestNoFreeProfileBacksOff(t *testing.T) {
	pool := newFakePool("P1", "P2")
	pool.setLocked("P1", true)
	pool.setLocked("P2", true)
	store := newFakeStore(pool, job("J1", time.Now()))
	runner := &fakeRunner{store: store, release: make(chan struct{})}
	s := New(store, pool, runner, Config{Backoff: 50 * time.Millisecond, Pacing: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 175*time.Millisecond)
	defer cancel()
	err := s.EnqueueBatch(ctx, []string{"J1"}, "https://form")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Empty(t, store.assignments())
	scans := pool.scanCount()
	assert.GreaterOrEqual(t, scans, 2)
	assert.LessOrEqual(t, scans, 5)
	s.Wait()
}

func TestCancelledBatchAssignsNothing(t *testing.T) {
	pool := newFakePool("P1")
	store := newFakeStore(pool, job("J1", time.Now()))
	s := New(store, pool, &fakeRunner{store: store, release: make(chan struct{})}, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.EnqueueBatch(ctx, []string{"J1"}, "https://form")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.assignments())
	assert.Equal(t, 0, pool.scanCount())
}

func TestDefaults(t *testing.T) {
	s := New(nil, nil, nil, Config{})
	assert.Equal(t, DefaultBackoff, s.cfg.Backoff)
	assert.Equal(t, DefaultPacing, s.cfg.Pacing)
}

func TestAssignFailureKeepsJobQueued(t *testing.T) {
	now := time.Now()
	pool := newFakePool("P1", "P2")
	store := newFakeStore(pool, job("J1", now), job("J2", now.Add(time.Second)))
	store.assignErrs = []error{fmt.Errorf("database is locked")}
	runner := &fakeRunner{store: store, release: make(chan struct{})}
	close(runner.release)
	s := New(store, pool, runner, fastConfig())

	require.NoError(t, s.EnqueueBatch(context.Background(), []string{"J1", "J2"}, "https://form"))
	s.Wait()

	assert.Equal(t, 3, store.attempts)
	assignments := store.assignments()
	require.Len(t, assignments, 2)
	assert.Contains(t, assignments[0], "J1@")
	assert.Contains(t, assignments[1], "J2@")
	assert.ElementsMatch(t, []string{"J1", "J2"}, runner.ran)
}

func TestAssignFailureStopsBatchAfterRetries(t *testing.T) {
	pool := newFakePool("P1")
	store := newFakeStore(pool, job("J1", time.Now()))
	for i := 0; i < maxAssignAttempts; i++ {
		store.assignErrs = append(store.assignErrs, fmt.Errorf("disk I/O error"))
	}
	runner := &fakeRunner{store: store, release: make(chan struct{})}
	s := New(store, pool, runner, fastConfig())

	err := s.EnqueueBatch(context.Background(), []string{"J1"}, "https://form")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "J1")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, maxAssignAttempts, store.attempts)
	assert.Empty(t, s.Started())
}
