// Page-side orchestration of agent registration and push subscription
// lifecycle.
package client

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// Agent registration covers the whole origin.
const agentScope = "/"

type Client struct {
	platform  Platform
	api       *RegistryAPI
	serverKey string
	log       *logrus.Entry
}

func New(platform Platform, api *RegistryAPI, serverKey string) *Client {
	return &Client{
		platform:  platform,
		api:       api,
		serverKey: serverKey,
		log:       logrus.WithField("component", "subscription_client"),
	}
}

// EnsureAgentRegistered registers the background agent origin-wide,
// always bypassing the cache so the latest agent code is fetched.
// Idempotent; re-registering an already-registered agent is a no-op on
// the platform side.
func (c *Client) EnsureAgentRegistered(ctx context.Context) error {
	if !c.platform.PushSupported() {
		return entity.ErrUnsupportedPlatform
	}
	return c.platform.RegisterAgent(ctx, agentScope, true)
}

// Subscribe opens a push channel with the sender's public key and
// reports the record to the server registry. The platform's permission
// prompt decline comes back as entity.ErrPermissionDenied.
func (c *Client) Subscribe(ctx context.Context) (*entity.Subscription, error) {
	if !c.platform.PushSupported() {
		return nil, entity.ErrUnsupportedPlatform
	}
	if key, err := entity.DecodeKey(c.serverKey); err != nil || len(key) != 65 {
		return nil, fmt.Errorf("%w: missing or malformed application server key", entity.ErrConfiguration)
	}

	sub, err := c.platform.Subscribe(ctx, SubscribeOptions{
		ApplicationServerKey: c.serverKey,
		UserVisibleOnly:      true,
	})
	if err != nil {
		return nil, err
	}

	if err := c.api.Subscribe(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to report subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe tears down the platform channel, then removes the record
// from the server registry. The registry removal is best effort: the
// channel is already gone, so a failure is only logged. Idempotent.
func (c *Client) Unsubscribe(ctx context.Context, sub *entity.Subscription) error {
	if sub == nil {
		return nil
	}
	if !c.platform.PushSupported() {
		return entity.ErrUnsupportedPlatform
	}

	if err := c.platform.Unsubscribe(ctx, sub.Endpoint); err != nil {
		return fmt.Errorf("failed to tear down push channel: %w", err)
	}
	if err := c.api.Unsubscribe(ctx, sub.Endpoint); err != nil {
		c.log.Warnf("Registry removal for %s failed: %v", sub.Endpoint, err)
	}
	return nil
}
