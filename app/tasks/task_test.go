package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		0:  time.Second,
		1:  time.Second,
		2:  2 * time.Second,
		3:  4 * time.Second,
		5:  16 * time.Second,
		6:  30 * time.Second,
		40: 30 * time.Second,
	}

	for retry, want := range cases {
		assert.Equal(t, want, backoff(retry), "retry %d", retry)
	}
}

func TestTaskRetryBudget(t *testing.T) {
	task := NewTask(TaskTypeProcessFeed, "news")
	assert.Equal(t, 1, task.Attempts())

	var delays []time.Duration
	for {
		delay, ok := task.Retry()
		if !ok {
			break
		}
		delays = append(delays, delay)
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
	assert.Equal(t, DefaultMaxRetries+1, task.Attempts())

	_, ok := task.Retry()
	assert.False(t, ok)
	assert.Equal(t, DefaultMaxRetries+1, task.Attempts())
}

func TestTaskWithMaxRetries(t *testing.T) {
	none := NewTask(TaskTypeSyncSource, "news", WithMaxRetries(0))
	_, ok := none.Retry()
	assert.False(t, ok)

	negative := NewTask(TaskTypeSyncSource, "news", WithMaxRetries(-2))
	_, ok = negative.Retry()
	assert.False(t, ok)

	once := NewTask(TaskTypeRefilterFeed, "news", WithMaxRetries(1))
	delay, ok := once.Retry()
	assert.True(t, ok)
	assert.Equal(t, time.Second, delay)
	_, ok = once.Retry()
	assert.False(t, ok)
}

func TestTaskIdentity(t *testing.T) {
	a := NewTask(TaskTypeExtractContent, "news")
	b := NewTask(TaskTypeExtractContent, "news")

	assert.NotEqual(t, a.GetID(), b.GetID())
	assert.Equal(t, "extract_content", a.GetType().String())
	assert.Equal(t, "news", a.GetFeedName())
}

func TestTaskElapsed(t *testing.T) {
	task := NewTask(TaskTypeProcessFeed, "news")
	assert.Zero(t, task.Elapsed())

	task.Start()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, task.Elapsed(), 5*time.Millisecond)
}
