package client

import (
	"context"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// Platform abstracts the browser push machinery available to an open
// page: agent registration and platform-level subscription management.
// Implementations report a declined permission prompt as
// entity.ErrPermissionDenied.
type Platform interface {
	// PushSupported reports whether the runtime has push capability.
	PushSupported() bool
	// RegisterAgent registers the background agent for the given scope.
	// bypassCache forces fetching the latest agent code.
	RegisterAgent(ctx context.Context, scope string, bypassCache bool) error
	// Subscribe opens a push channel and returns its record.
	Subscribe(ctx context.Context, opts SubscribeOptions) (*entity.Subscription, error)
	// Unsubscribe tears down the channel. Idempotent.
	Unsubscribe(ctx context.Context, endpoint string) error
}

type SubscribeOptions struct {
	// ApplicationServerKey is the sender's VAPID public key.
	ApplicationServerKey string
	// UserVisibleOnly requires every push to render a notification;
	// silent push is not allowed.
	UserVisibleOnly bool
}
