package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/EnamSon/gformfiller/pkg/form"
)

// DefaultDBName is the database file name inside a workspace.
const DefaultDBName = "gformfiller.db"

// timeLayout is fixed width so that text order is chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// SQLiteStore keeps jobs, the action log and notifications in SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer avoids SQLITE_BUSY between concurrent jobs.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new job.
func (s *SQLiteStore) Create(ctx context.Context, j *Job) error {
	if j.ID == "" {
		return errors.New("job id is required")
	}
	if j.Status == "" {
		j.Status = StatusPending
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = s.now()
	}
	j.UpdatedAt = j.CreatedAt
	answers, err := json.Marshal(j.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, created_at, updated_at, url, profile, status, submit, use_ai, ai_context, answers, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, formatTime(j.CreatedAt), formatTime(j.UpdatedAt), j.URL, j.Profile, string(j.Status),
		j.Submit, j.UseAI, j.AIContext, string(answers), j.LastError)
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", j.ID, err)
	}
	return nil
}

const jobColumns = `id, created_at, updated_at, url, profile, status, submit, use_ai, ai_context, answers, last_error`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scanner) (*Job, error) {
	var (
		j                  Job
		created, updated   string
		status, answersRaw string
	)
	if err := row.Scan(&j.ID, &created, &updated, &j.URL, &j.Profile, &status,
		&j.Submit, &j.UseAI, &j.AIContext, &answersRaw, &j.LastError); err != nil {
		return nil, err
	}
	var err error
	if j.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("job %s: bad created_at: %w", j.ID, err)
	}
	if j.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("job %s: bad updated_at: %w", j.ID, err)
	}
	j.Status = Status(status)
	answers, err := form.ParseAnswerTable([]byte(answersRaw))
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	j.Answers = answers
	return &j, nil
}

// Get returns a job by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return j, nil
}

// List returns jobs oldest first, optionally filtered by status.
func (s *SQLiteStore) List(ctx context.Context, status Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Assign implements Store.
func (s *SQLiteStore) Assign(ctx context.Context, id, profile, url string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET profile = ?, url = CASE WHEN ? = '' THEN url ELSE ? END, updated_at = ?
		WHERE id = ?`,
		profile, url, url, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to assign job %s: %w", id, err)
	}
	return expectOne(res, id)
}

// SetStatus implements Store.
func (s *SQLiteStore) SetStatus(ctx context.Context, id string, status Status, lastError string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(s.now())
	res, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), lastError, now, id)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	if status.Terminal() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notifications (job_id, status, created_at) VALUES (?, ?, ?)`,
			id, string(status), now); err != nil {
			return fmt.Errorf("failed to record notification for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status of %s: %w", id, err)
	}
	return nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Log implements Store.
func (s *SQLiteStore) Log(ctx context.Context, a Action) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_logs (timestamp, action, category, target, details) VALUES (?, ?, ?, ?, ?)`,
		formatTime(a.Timestamp), a.Action, a.Category, a.Target, a.Details)
	if err != nil {
		return fmt.Errorf("failed to write action log: %w", err)
	}
	return nil
}

// Actions returns the most recent action log entries, newest first.
// A category filter of "" returns every category.
func (s *SQLiteStore) Actions(ctx context.Context, category string, limit int) ([]Action, error) {
	var where []string
	var args []interface{}
	if category != "" {
		where = append(where, "category = ?")
		args = append(args, category)
	}
	query := `SELECT id, timestamp, action, category, target, details FROM system_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read action log: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var ts string
		if err := rows.Scan(&a.ID, &ts, &a.Action, &a.Category, &a.Target, &a.Details); err != nil {
			return nil, err
		}
		if a.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Notifications returns the notifications of a job, oldest first. An
// empty jobID returns every notification.
func (s *SQLiteStore) Notifications(ctx context.Context, jobID string) ([]Notification, error) {
	query := `SELECT id, job_id, status, created_at FROM notifications`
	var args []interface{}
	if jobID != "" {
		query += ` WHERE job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var status, ts string
		if err := rows.Scan(&n.ID, &n.JobID, &status, &ts); err != nil {
			return nil, err
		}
		n.Status = Status(status)
		if n.CreatedAt, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
