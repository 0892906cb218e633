package agent

import "context"

// Host abstracts the runtime the agent is installed into (the service
// worker global scope in a browser). The host owns the agent lifecycle:
// it triggers the state transitions, dispatches events, and may tear
// the agent down and restart it between events.
type Host interface {
	// SkipWaiting asks the host to install this agent without waiting
	// for a predecessor to finish.
	SkipWaiting()
	// ClaimClients routes every already-open client view to this agent
	// instead of a stale predecessor.
	ClaimClients(ctx context.Context) error
	// ShowNotification renders a native notification. It returns once
	// rendering has settled.
	ShowNotification(ctx context.Context, title string, opts NotificationOptions) error
	// MatchAllClients enumerates the currently open client views.
	MatchAllClients(ctx context.Context) ([]ClientView, error)
	// OpenWindow opens a new client view at the given URL.
	OpenWindow(ctx context.Context, url string) error
}

// ClientView is one open page served by the agent's origin.
type ClientView interface {
	URL() string
	Focus(ctx context.Context) error
}

// DisplayedNotification is a rendered notification as reported back by
// the host on user interaction.
type DisplayedNotification interface {
	Data() NotificationData
	Close()
}

// NotificationOptions is the render contract consumed from the host.
type NotificationOptions struct {
	Body    string           `json:"body"`
	Icon    string           `json:"icon,omitempty"`
	Badge   string           `json:"badge,omitempty"`
	Tag     string           `json:"tag,omitempty"`
	Vibrate []int            `json:"vibrate,omitempty"`
	Data    NotificationData `json:"data"`
}

// NotificationData is the metadata attached to a rendered notification
// and handed back on click.
type NotificationData struct {
	DateOfArrival int64  `json:"dateOfArrival"`
	PrimaryKey    string `json:"primaryKey"`
	URL           string `json:"url"`
}
