package database

import (
	"context"
	"sync"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// memoryRepository keeps subscriptions in process memory. This is the
// default backing store; redis and postgres implementations can be
// substituted through the same interface.
type memoryRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]entity.Subscription
}

func NewMemoryRepository() SubscriptionRepository {
	return &memoryRepository{
		subscriptions: make(map[string]entity.Subscription),
	}
}

func (r *memoryRepository) Save(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscriptions[sub.Endpoint] = *sub
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, endpoint string) (*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subscriptions[endpoint]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (r *memoryRepository) Delete(ctx context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subscriptions, endpoint)
	return nil
}

// List copies the current records under the read lock, so callers see a
// consistent snapshot regardless of concurrent Save/Delete calls.
func (r *memoryRepository) List(ctx context.Context) ([]*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscriptions := make([]*entity.Subscription, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		s := sub
		subscriptions = append(subscriptions, &s)
	}
	return subscriptions, nil
}

func (r *memoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subscriptions), nil
}
