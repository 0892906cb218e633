package worker

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/rabbitMQ"
	"github.com/ds124wfegd/pushService/internal/service"
)

// RetryWorker drains the retry queue and re-attempts transient
// delivery failures with exponential backoff.
type RetryWorker struct {
	push   service.PushUseCase
	queue  rabbitMQ.Queue
	policy *rabbitMQ.RetryPolicy
}

func NewRetryWorker(push service.PushUseCase, queue rabbitMQ.Queue, policy *rabbitMQ.RetryPolicy) *RetryWorker {
	return &RetryWorker{
		push:   push,
		queue:  queue,
		policy: policy,
	}
}

func (w *RetryWorker) Start(ctx context.Context) error {
	logrus.Info("Delivery retry worker started")
	return w.queue.Consume(ctx, func(task *rabbitMQ.RetryTask) error {
		return w.process(ctx, task)
	})
}

func (w *RetryWorker) process(ctx context.Context, task *rabbitMQ.RetryTask) error {
	result, err := w.push.Redeliver(ctx, task.Endpoint, &task.Payload)
	if err != nil {
		return err
	}
	if result == nil {
		logrus.Debugf("Retry task %s dropped, endpoint unsubscribed", task.ID)
		return nil
	}

	switch result.Outcome {
	case entity.OutcomeDelivered:
		logrus.Infof("Retry %d for %s delivered", task.Attempt, task.Endpoint)
	case entity.OutcomeTransient:
		task.Attempt++
		if ok, delay := w.policy.ShouldRetry(task); ok {
			if err := w.queue.PublishWithDelay(ctx, task, delay); err != nil {
				logrus.Errorf("Failed to requeue retry task %s: %v", task.ID, err)
			}
		} else {
			logrus.Warnf("Giving up on %s after %d attempts", task.Endpoint, task.Attempt)
		}
	default:
		// Gone is already cleaned up by the use case; Rejected means a
		// configuration problem retrying cannot fix.
		logrus.Warnf("Retry for %s ended with outcome %s", task.Endpoint, result.Outcome)
	}
	return nil
}
