package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/pushService/internal/database"
	"github.com/ds124wfegd/pushService/internal/entity"
)

type subscriptionUseCase struct {
	repo database.SubscriptionRepository
}

func NewSubscriptionUseCase(repo database.SubscriptionRepository) SubscriptionUseCase {
	return &subscriptionUseCase{repo: repo}
}

// Subscribe validates the record at the registry boundary and stores
// it. A record with the same endpoint is replaced, never duplicated.
func (uc *subscriptionUseCase) Subscribe(ctx context.Context, sub *entity.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := uc.repo.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	return nil
}

// Unsubscribe removes the endpoint. Removing an absent endpoint is not
// an error.
func (uc *subscriptionUseCase) Unsubscribe(ctx context.Context, endpoint string) error {
	return uc.repo.Delete(ctx, endpoint)
}

func (uc *subscriptionUseCase) ListSubscriptions(ctx context.Context) ([]*entity.Subscription, error) {
	return uc.repo.List(ctx)
}

func (uc *subscriptionUseCase) Count(ctx context.Context) (int, error) {
	return uc.repo.Count(ctx)
}
