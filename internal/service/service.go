package service

import (
	"context"

	"github.com/ds124wfegd/pushService/internal/entity"
)

type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, sub *entity.Subscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]*entity.Subscription, error)
	Count(ctx context.Context) (int, error)
}

type PushUseCase interface {
	// Broadcast wraps a plaintext message into a notification payload
	// and delivers it to every registered subscription.
	Broadcast(ctx context.Context, message string) (*entity.SendReport, error)
	// Redeliver re-attempts a single endpoint, used by the retry
	// worker. Returns nil when the endpoint is no longer registered.
	Redeliver(ctx context.Context, endpoint string, payload *entity.NotificationPayload) (*entity.DeliveryResult, error)
}

// PushDispatcher is the delivery pipeline the push use case fans out
// through.
type PushDispatcher interface {
	Deliver(ctx context.Context, targets []*entity.Subscription, payload *entity.NotificationPayload) ([]entity.DeliveryResult, error)
	DeliverTo(ctx context.Context, target *entity.Subscription, payload *entity.NotificationPayload) (entity.DeliveryResult, error)
}
