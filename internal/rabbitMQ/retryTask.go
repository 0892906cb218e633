package rabbitMQ

import (
	"math/rand"
	"time"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// RetryTask is one transient delivery failure waiting to be retried.
// The payload travels with the task; the subscription is re-resolved
// from the registry at retry time, since the client may have
// unsubscribed in the meantime.
type RetryTask struct {
	ID       string                     `json:"id"`
	Endpoint string                     `json:"endpoint"`
	Payload  entity.NotificationPayload `json:"payload"`
	Attempt  int                        `json:"attempt"`
}

// RetryPolicy decides whether and when a failed delivery is retried.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 5 * time.Second
	}
	return &RetryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// ShouldRetry reports whether the task has attempts left and, if so,
// the delay before the next one.
func (p *RetryPolicy) ShouldRetry(task *RetryTask) (bool, time.Duration) {
	if task.Attempt >= p.maxAttempts {
		return false, 0
	}
	return true, p.Backoff(task.Attempt)
}

// Backoff is exponential in the attempt number with up to 50% jitter
// either way.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return p.baseDelay
	}

	backoff := p.baseDelay * time.Duration(1<<uint(attempt-1))

	jitter := time.Duration(rand.Int63n(int64(backoff / 2)))
	if rand.Intn(2) == 0 {
		backoff += jitter
	} else {
		backoff -= jitter
	}
	return backoff
}
