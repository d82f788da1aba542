package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeExtractContent TaskType = "extract_content"
	TaskTypeProcessFeed    TaskType = "process_feed"
	TaskTypeRefilterFeed   TaskType = "refilter_feed"
	TaskTypeSyncSource     TaskType = "sync_source"
)

func (t TaskType) String() string {
	return string(t)
}

const (
	DefaultMaxRetries = 3
	maxRetryDelay     = 30 * time.Second
)

// TaskInterface is what the scheduler queues. Retry bookkeeping lives on the
// embedded Task so concrete tasks only implement Execute.
type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetFeedName() string
	Attempts() int
	Retry() (time.Duration, bool)
	Start()
	Elapsed() time.Duration
}

type Task struct {
	id         string
	taskType   TaskType
	feedName   string
	retries    int
	maxRetries int
	startedAt  time.Time
}

type TaskOption func(*Task)

// WithMaxRetries caps how many times a failed task is queued again.
func WithMaxRetries(n int) TaskOption {
	return func(t *Task) {
		t.maxRetries = max(n, 0)
	}
}

func NewTask(taskType TaskType, feedName string, opts ...TaskOption) Task {
	t := Task{
		id:         uuid.NewString(),
		taskType:   taskType,
		feedName:   feedName,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t *Task) GetID() string       { return t.id }
func (t *Task) GetType() TaskType   { return t.taskType }
func (t *Task) GetFeedName() string { return t.feedName }

// Attempts counts executions that have been scheduled so far, the first one
// included.
func (t *Task) Attempts() int {
	return t.retries + 1
}

// Retry books another attempt and returns how long to wait before it. It
// reports false once the retry budget is spent.
func (t *Task) Retry() (time.Duration, bool) {
	if t.retries >= t.maxRetries {
		return 0, false
	}
	t.retries++
	return backoff(t.retries), true
}

func (t *Task) Start() {
	t.startedAt = time.Now()
}

func (t *Task) Elapsed() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	return time.Since(t.startedAt)
}

// backoff doubles from one second per retry, capped at 30s.
func backoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	if retry > 6 {
		return maxRetryDelay
	}
	return min(time.Duration(1<<uint(retry-1))*time.Second, maxRetryDelay)
}
