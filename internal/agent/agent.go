// The background agent receives push events and renders notifications
// independent of any open page. It is a single-threaded, event-driven
// worker: the host calls one handler at a time and a handler returning
// means the event has fully settled, so any asynchronous side effect is
// awaited before returning.
package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/internal/entity"
)

type State int

const (
	StateInstalling State = iota
	StateInstalled
	StateActivating
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	default:
		return "unknown"
	}
}

const (
	// Notifications share one tag, so a new arrival replaces the one
	// still on screen instead of stacking.
	notificationTag = "2"
	defaultBadge    = "/badge.png"
	rootURL         = "/"
)

var vibrationPattern = []int{100, 50, 100}

// Agent holds no state beyond the lifecycle phase; the host may kill
// and restart it between events at any time.
type Agent struct {
	host  Host
	state State
	log   *logrus.Entry
}

func New(host Host) *Agent {
	return &Agent{
		host:  host,
		state: StateInstalling,
		log:   logrus.WithField("component", "agent"),
	}
}

func (a *Agent) State() State { return a.state }

// HandleInstall signals the host to skip waiting for a predecessor and
// declares the agent installed.
func (a *Agent) HandleInstall(ctx context.Context) error {
	a.host.SkipWaiting()
	a.state = StateInstalled
	a.log.Info("Agent installed")
	return nil
}

// HandleActivate claims all open client views before declaring the
// agent activated. Activation completes even if the claim fails; the
// error is surfaced to the host.
func (a *Agent) HandleActivate(ctx context.Context) error {
	a.state = StateActivating
	err := a.host.ClaimClients(ctx)
	a.state = StateActivated
	if err != nil {
		a.log.Errorf("Failed to claim clients: %v", err)
		return err
	}
	a.log.Info("Agent activated")
	return nil
}

// HandlePush parses the decrypted push body and renders a notification.
// A malformed payload never drops the notification: the raw bytes
// become the body and every other field gets its default. The render
// error, if any, goes back to the host's error channel.
func (a *Agent) HandlePush(ctx context.Context, raw []byte) error {
	payload := parsePayload(raw)

	badge := payload.Badge
	if badge == "" {
		badge = defaultBadge
	}
	url := payload.URL
	if url == "" {
		url = rootURL
	}

	return a.host.ShowNotification(ctx, payload.Title, NotificationOptions{
		Body:    payload.Body,
		Icon:    payload.Icon,
		Badge:   badge,
		Tag:     notificationTag,
		Vibrate: vibrationPattern,
		Data: NotificationData{
			DateOfArrival: time.Now().UnixMilli(),
			PrimaryKey:    notificationTag,
			URL:           url,
		},
	})
}

// HandleNotificationClick dismisses the notification and brings its
// deep link to the foreground: an open view whose location already
// matches is focused, otherwise a new view is opened.
func (a *Agent) HandleNotificationClick(ctx context.Context, notification DisplayedNotification) error {
	notification.Close()

	target := notification.Data().URL
	if target == "" {
		target = rootURL
	}

	views, err := a.host.MatchAllClients(ctx)
	if err != nil {
		return err
	}
	for _, view := range views {
		if view.URL() == target {
			return view.Focus(ctx)
		}
	}
	return a.host.OpenWindow(ctx, target)
}

func parsePayload(raw []byte) *entity.NotificationPayload {
	var payload entity.NotificationPayload
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		payload = entity.NotificationPayload{Body: string(raw)}
	}
	payload.ApplyDefaults()
	return &payload
}
