// Package notify delivers alert events to outbound channels: Slack and
// Discord webhooks, generic signed webhooks, SMTP email, and NATS.
//
// Channels are outbound-only. The Dispatcher fans one event out to every
// configured channel, records successful deliveries in the ledger, and
// reports per-channel failures without letting one broken channel block the
// rest.
//
//	d := notify.NewDispatcher(st, notify.WithLogger(logger))
//	d.Register(notify.NewSlack(cfg.SlackWebhook))
//	d.Register(notify.NewDiscord(cfg.DiscordWebhook))
//	d.Deliver(ctx, evt)
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/kypria/zeus/deflect"
)

// Event is the channel-neutral form of an alert about to go out.
type Event struct {
	AlertID   int64            `json:"alert_id"`
	Protocol  string           `json:"protocol_number"`
	Type      string           `json:"alert_type"`
	Severity  deflect.Severity `json:"severity"`
	Message   string           `json:"message"`
	Excerpt   string           `json:"excerpt,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Title renders the conventional subject line for an event.
func (e Event) Title() string {
	return fmt.Sprintf("[%s] Protocol %s: %s", e.Severity, e.Protocol, e.Type)
}

// Channel pushes one event to one destination.
type Channel interface {
	// Name identifies the channel in the delivery ledger ("slack", "email").
	Name() string

	// Send delivers the event or returns an error. Implementations must
	// honor ctx cancellation.
	Send(ctx context.Context, evt Event) error
}

// ErrSendFailed is returned when an event could not be delivered.
type ErrSendFailed struct {
	Channel string
	Cause   error
}

func (e *ErrSendFailed) Error() string {
	return fmt.Sprintf("notify: send failed on %s: %v", e.Channel, e.Cause)
}

func (e *ErrSendFailed) Unwrap() error { return e.Cause }
