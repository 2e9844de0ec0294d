// Package jobs stores form filling jobs and runs them on a browser profile.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/EnamSon/gformfiller/pkg/form"
	"github.com/EnamSon/gformfiller/pkg/logging"
)

var jobsLog *logging.Logger

func init() {
	var err error
	jobsLog, err = logging.NewLogger("jobs")
	if err != nil {
		jobsLog.Warnf("failed to initialize jobs logger: %v", err)
	}
}

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusFailed is a controlled non-success, such as a missing submit
	// button.
	StatusFailed Status = "failed"
	// StatusError is an unexpected failure during the run.
	StatusError Status = "error"
)

// Terminal reports whether the status ends a job.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusError
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusError:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Job is one form filling run.
type Job struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	URL       string
	Profile   string
	Status    Status
	Submit    bool

	// UseAI answers the form from AIContext instead of Answers.
	UseAI     bool
	AIContext string
	Answers   form.AnswerTable

	LastError string
}

// New returns a pending job with a fresh id.
func New(url string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		URL:       url,
		Status:    StatusPending,
		Answers:   form.AnswerTable{},
	}
}

// Action is an entry of the action log.
type Action struct {
	ID        int64
	Timestamp time.Time
	Action    string
	Category  string
	Target    string
	Details   string
}

// Notification records that a job reached a terminal status.
type Notification struct {
	ID        int64
	JobID     string
	Status    Status
	CreatedAt time.Time
}

// Store is the job persistence used by the runner and the scheduler.
type Store interface {
	Get(ctx context.Context, id string) (*Job, error)
	// Assign stamps a job with the profile it runs on and its target URL.
	// An empty url keeps the current one.
	Assign(ctx context.Context, id, profile, url string) error
	// SetStatus updates the status. Terminal statuses also record a
	// notification.
	SetStatus(ctx context.Context, id string, status Status, lastError string) error
	Log(ctx context.Context, a Action) error
}
