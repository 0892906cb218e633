// Encrypted delivery of notification payloads to browser vendor push
// endpoints, authenticated with the VAPID sender identity.
package dispatcher

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/identity"
)

type Config struct {
	// TTL the vendor keeps an undelivered message, in seconds.
	TTL int
	// PerTargetTimeout bounds one endpoint's delivery so a stuck vendor
	// cannot delay the rest of the fan-out.
	PerTargetTimeout time.Duration
}

type Dispatcher struct {
	identity *identity.Identity
	client   webpush.HTTPClient
	ttl      int
	timeout  time.Duration
}

// New builds a dispatcher. client may be nil, in which case a default
// http.Client is used; tests inject a stub here.
func New(id *identity.Identity, cfg Config, client webpush.HTTPClient) *Dispatcher {
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * 60 * 24
	}
	if cfg.PerTargetTimeout <= 0 {
		cfg.PerTargetTimeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Dispatcher{
		identity: id,
		client:   client,
		ttl:      cfg.TTL,
		timeout:  cfg.PerTargetTimeout,
	}
}

// Deliver encrypts the payload per target and fans out to every vendor
// endpoint in parallel. One target's failure never aborts the others;
// each slot of the result is filled independently. The whole call fails
// only before any network attempt: on an empty target set or an
// oversized payload.
func (d *Dispatcher) Deliver(ctx context.Context, targets []*entity.Subscription, payload *entity.NotificationPayload) ([]entity.DeliveryResult, error) {
	message, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, entity.ErrNoSubscribers
	}

	results := make([]entity.DeliveryResult, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target *entity.Subscription) {
			defer wg.Done()
			results[i] = d.deliverOne(ctx, target, message)
		}(i, target)
	}
	wg.Wait()

	return results, nil
}

// DeliverTo sends the payload to a single endpoint. Used by the retry
// worker when re-attempting a transient failure.
func (d *Dispatcher) DeliverTo(ctx context.Context, target *entity.Subscription, payload *entity.NotificationPayload) (entity.DeliveryResult, error) {
	message, err := payload.Encode()
	if err != nil {
		return entity.DeliveryResult{}, err
	}
	return d.deliverOne(ctx, target, message), nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, target *entity.Subscription, message []byte) entity.DeliveryResult {
	targetCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := webpush.SendNotificationWithContext(targetCtx, message, &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.Keys.P256dh,
			Auth:   target.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      d.client,
		Subscriber:      d.identity.Subject(),
		VAPIDPublicKey:  d.identity.PublicKey(),
		VAPIDPrivateKey: d.identity.PrivateKey(),
		TTL:             d.ttl,
	})
	if err != nil {
		// Transport failures and expired deadlines are worth retrying;
		// the message never reached the vendor.
		logrus.Warnf("Push delivery to %s failed: %v", target.Endpoint, err)
		return entity.DeliveryResult{
			Endpoint: target.Endpoint,
			Outcome:  entity.OutcomeTransient,
			Err:      err,
		}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return entity.DeliveryResult{
		Endpoint:   target.Endpoint,
		Outcome:    classify(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}
}

func classify(status int) entity.DeliveryOutcome {
	switch {
	case status >= 200 && status < 300:
		return entity.OutcomeDelivered
	case status == http.StatusNotFound, status == http.StatusGone:
		return entity.OutcomeGone
	case status == http.StatusTooManyRequests, status >= 500:
		return entity.OutcomeTransient
	default:
		return entity.OutcomeRejected
	}
}
