package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// All records live in a single hash keyed by endpoint, so HGETALL gives
// List its snapshot atomically on the redis side.
const subscriptionsKey = "push:subscriptions"

type redisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) SubscriptionRepository {
	return &redisRepository{client: client}
}

func (r *redisRepository) Save(ctx context.Context, sub *entity.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	return r.client.HSet(ctx, subscriptionsKey, sub.Endpoint, data).Err()
}

func (r *redisRepository) Get(ctx context.Context, endpoint string) (*entity.Subscription, error) {
	data, err := r.client.HGet(ctx, subscriptionsKey, endpoint).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sub entity.Subscription
	if err := json.Unmarshal([]byte(data), &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return &sub, nil
}

func (r *redisRepository) Delete(ctx context.Context, endpoint string) error {
	return r.client.HDel(ctx, subscriptionsKey, endpoint).Err()
}

func (r *redisRepository) List(ctx context.Context) ([]*entity.Subscription, error) {
	records, err := r.client.HGetAll(ctx, subscriptionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions: %w", err)
	}

	subscriptions := make([]*entity.Subscription, 0, len(records))
	for endpoint, data := range records {
		var sub entity.Subscription
		if err := json.Unmarshal([]byte(data), &sub); err != nil {
			logrus.Warnf("Skipping unreadable subscription record for %s: %v", endpoint, err)
			continue
		}
		subscriptions = append(subscriptions, &sub)
	}
	return subscriptions, nil
}

func (r *redisRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, subscriptionsKey).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
