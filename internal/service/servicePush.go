package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/internal/database"
	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/rabbitMQ"
)

type pushUseCase struct {
	repo       database.SubscriptionRepository
	dispatcher PushDispatcher
	queue      rabbitMQ.Queue
	retry      *rabbitMQ.RetryPolicy
}

// NewPushUseCase builds the send orchestrator. queue may be nil, in
// which case transient failures are reported but not retried.
func NewPushUseCase(repo database.SubscriptionRepository, dispatcher PushDispatcher, queue rabbitMQ.Queue, retry *rabbitMQ.RetryPolicy) PushUseCase {
	if retry == nil {
		retry = rabbitMQ.NewRetryPolicy(0, 0)
	}
	return &pushUseCase{
		repo:       repo,
		dispatcher: dispatcher,
		queue:      queue,
		retry:      retry,
	}
}

func (uc *pushUseCase) Broadcast(ctx context.Context, message string) (*entity.SendReport, error) {
	payload := &entity.NotificationPayload{Body: message}
	payload.ApplyDefaults()

	targets, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	results, err := uc.dispatcher.Deliver(ctx, targets, payload)
	if err != nil {
		return nil, err
	}

	// Delivery outcomes drive registry cleanup and retry scheduling;
	// neither failure mode blocks the report.
	for _, result := range results {
		switch result.Outcome {
		case entity.OutcomeGone:
			if err := uc.repo.Delete(ctx, result.Endpoint); err != nil {
				logrus.Errorf("Failed to remove dead subscription %s: %v", result.Endpoint, err)
			}
		case entity.OutcomeTransient:
			uc.scheduleRetry(ctx, result.Endpoint, payload)
		}
	}

	return entity.NewSendReport(results), nil
}

func (uc *pushUseCase) Redeliver(ctx context.Context, endpoint string, payload *entity.NotificationPayload) (*entity.DeliveryResult, error) {
	target, err := uc.repo.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	if target == nil {
		// Unsubscribed since the failure; nothing to retry.
		return nil, nil
	}

	result, err := uc.dispatcher.DeliverTo(ctx, target, payload)
	if err != nil {
		return nil, err
	}

	if result.Outcome == entity.OutcomeGone {
		if err := uc.repo.Delete(ctx, endpoint); err != nil {
			logrus.Errorf("Failed to remove dead subscription %s: %v", endpoint, err)
		}
	}
	return &result, nil
}

func (uc *pushUseCase) scheduleRetry(ctx context.Context, endpoint string, payload *entity.NotificationPayload) {
	if uc.queue == nil {
		return
	}

	task := &rabbitMQ.RetryTask{
		ID:       uuid.New().String(),
		Endpoint: endpoint,
		Payload:  *payload,
		Attempt:  1,
	}
	if err := uc.queue.PublishWithDelay(ctx, task, uc.retry.Backoff(task.Attempt)); err != nil {
		logrus.Errorf("Failed to schedule retry for %s: %v", endpoint, err)
	}
}
