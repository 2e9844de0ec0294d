package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnamSon/gformfiller/pkg/form"
	"github.com/EnamSon/gformfiller/pkg/responses"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "db", DefaultDBName))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newJob(t *testing.T, store *SQLiteStore, created time.Time) *Job {
	t.Helper()
	j := New("https://docs.google.com/forms/d/e/abc/viewform")
	j.CreatedAt = created
	j.Answers = form.AnswerTable{responses.KindText: {{Expr: "zeta", Answer: "z"}, {Expr: "alpha", Answer: "a"}}}
	require.NoError(t, store.Create(context.Background(), j))
	return j
}

func TestCreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 123, time.UTC)

	j := New("https://example.com/form")
	j.CreatedAt = created
	j.Submit = true
	j.UseAI = true
	j.AIContext = "I am John"
	j.Answers = form.AnswerTable{responses.KindText: {{Expr: "zeta", Answer: "z"}, {Expr: "alpha", Answer: "a"}}}
	require.NoError(t, store.Create(ctx, j))

	got, err := store.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, got.Submit)
	assert.True(t, got.UseAI)
	assert.Equal(t, "I am John", got.AIContext)
	assert.Equal(t, j.Answers, got.Answers)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersByCreation(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	newer := newJob(t, store, base.Add(time.Minute))
	older := newJob(t, store, base)
	newest := newJob(t, store, base.Add(time.Hour))

	jobs, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{older.ID, newer.ID, newest.ID}, []string{jobs[0].ID, jobs[1].ID, jobs[2].ID})

	require.NoError(t, store.SetStatus(context.Background(), newer.ID, StatusRunning, ""))
	running, err := store.List(context.Background(), StatusRunning)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, newer.ID, running[0].ID)
}

func TestAssign(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	j := newJob(t, store, time.Now())

	require.NoError(t, store.Assign(ctx, j.ID, "P2", "https://example.com/other"))
	got, err := store.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "P2", got.Profile)
	assert.Equal(t, "https://example.com/other", got.URL)

	require.NoError(t, store.Assign(ctx, j.ID, "P3", ""))
	got, err = store.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "P3", got.Profile)
	assert.Equal(t, "https://example.com/other", got.URL)

	assert.ErrorIs(t, store.Assign(ctx, "missing", "P1", ""), ErrNotFound)
}

func TestSetStatusRecordsNotifications(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	j := newJob(t, store, time.Now())

	require.NoError(t, store.SetStatus(ctx, j.ID, StatusRunning, ""))
	require.NoError(t, store.SetStatus(ctx, j.ID, StatusFailed, "submit button not found"))

	got, err := store.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "submit button not found", got.LastError)

	notes, err := store.Notifications(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, StatusFailed, notes[0].Status)

	assert.ErrorIs(t, store.SetStatus(ctx, "missing", StatusError, ""), ErrNotFound)
	all, err := store.Notifications(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestActions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Log(ctx, Action{Action: "job_started", Category: CategoryJob, Target: "j1"}))
	require.NoError(t, store.Log(ctx, Action{Action: "job_refused", Category: CategoryProfile, Target: "P1"}))
	require.NoError(t, store.Log(ctx, Action{Action: "job_completed", Category: CategoryJob, Target: "j1", Details: "ok"}))

	all, err := store.Actions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "job_completed", all[0].Action)
	assert.False(t, all[0].Timestamp.IsZero())

	jobsOnly, err := store.Actions(ctx, CategoryJob, 1)
	require.NoError(t, err)
	require.Len(t, jobsOnly, 1)
	assert.Equal(t, "ok", jobsOnly[0].Details)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusError} {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("done")
	assert.Error(t, err)

	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusRunning.Terminal())
}

func TestWorkspace(t *testing.T) {
	w := Workspace{Root: t.TempDir()}
	require.NoError(t, w.Prepare("job-1"))
	assert.DirExists(t, w.PDFDir("job-1"))
	assert.DirExists(t, w.ScreenshotsDir("job-1"))
	assert.DirExists(t, w.FilesDir("job-1"))
	assert.Equal(t, filepath.Join(w.Root, "fillers", "job-1", "record", "pdfs"), w.PDFDir("job-1"))
	assert.Equal(t, filepath.Join(w.Root, "gformfiller.db"), w.DBPath())
}
