package database

import (
	"context"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// SubscriptionRepository is the registry of push subscriptions keyed by
// endpoint. Save replaces an existing record with the same endpoint,
// Delete is idempotent and List returns a snapshot: a concurrent
// mutation is either fully visible in the result or fully absent.
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *entity.Subscription) error
	// Get returns nil without error when the endpoint is not registered.
	Get(ctx context.Context, endpoint string) (*entity.Subscription, error)
	Delete(ctx context.Context, endpoint string) error
	List(ctx context.Context) ([]*entity.Subscription, error)
	Count(ctx context.Context) (int, error)
}
