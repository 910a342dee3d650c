package queue

import (
	"context"
	"math"
	"time"
)

//go:generate mockgen -source=queue.go -destination=mock_queue.go -package=queue

type BackoffType string

const (
	BackoffExponential BackoffType = "exponential"
	BackoffFixed       BackoffType = "fixed"
)

type Backoff struct {
	Type       BackoffType
	Delay      time.Duration
	Multiplier float64
}

// DelayFor returns how long a job waits before its next attempt, given how many attempts
// have already been made (including the one that just failed).
func (b Backoff) DelayFor(attemptsMade int) time.Duration {
	if attemptsMade < 1 {
		attemptsMade = 1
	}
	if b.Type != BackoffExponential {
		return b.Delay
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	return time.Duration(float64(b.Delay) * math.Pow(multiplier, float64(attemptsMade-1)))
}

type JobOptions struct {
	// Attempts is the total number of executions before the job is marked failed.
	Attempts int
	Backoff  Backoff
}

type Job struct {
	ID           string
	Data         []byte
	Attempts     int
	AttemptsMade int
	Backoff      Backoff
	CreatedAt    time.Time
}

type JobCounts struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Failed    int64 `json:"failed"`
	Completed int64 `json:"completed"`
}

// Pending is the backlog not yet picked up by any worker.
func (c JobCounts) Pending() int64 {
	return c.Waiting + c.Delayed
}

// Handler processes one job. A nil result acknowledges the job, an error schedules a retry.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	// Add enqueues a job under jobID. When a job with the same id is still waiting, delayed or
	// active, nothing is enqueued and added is false; this is not an error.
	Add(ctx context.Context, jobID string, data []byte, opts JobOptions) (added bool, err error)
	// Process consumes jobs with the given number of concurrent executors until ctx is done.
	// In-flight jobs run to completion after ctx is cancelled.
	Process(ctx context.Context, concurrency int, handler Handler) error
	GetJobCounts(ctx context.Context) (JobCounts, error)
	Close() error
}
