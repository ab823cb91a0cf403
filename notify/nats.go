package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATS publishes events as JSON onto a subject hierarchy so downstream
// consumers (dashboards, archivers) can subscribe by severity:
// <prefix>.<severity>, e.g. "zeus.alerts.critical".
type NATS struct {
	conn    *nats.Conn
	prefix  string
	ownConn bool
}

// NewNATS connects to the given NATS URL. prefix defaults to "zeus.alerts".
func NewNATS(url, prefix string) (*NATS, error) {
	if prefix == "" {
		prefix = "zeus.alerts"
	}
	conn, err := nats.Connect(url,
		nats.Name("zeus-monitor"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: nats connect: %w", err)
	}
	return &NATS{conn: conn, prefix: prefix, ownConn: true}, nil
}

// NewNATSConn wraps an existing connection (shared with other components).
func NewNATSConn(conn *nats.Conn, prefix string) *NATS {
	if prefix == "" {
		prefix = "zeus.alerts"
	}
	return &NATS{conn: conn, prefix: prefix}
}

func (n *NATS) Name() string { return "nats" }

// Subject returns the publish subject for an event.
func (n *NATS) Subject(evt Event) string {
	sev := "info"
	if evt.Severity != "" {
		sev = string(evt.Severity)
	}
	// Subjects are conventionally lowercase.
	return n.prefix + "." + strings.ToLower(sev)
}

func (n *NATS) Send(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return &ErrSendFailed{Channel: n.Name(), Cause: err}
	}
	if err := n.conn.Publish(n.Subject(evt), body); err != nil {
		return &ErrSendFailed{Channel: n.Name(), Cause: err}
	}
	// Publish is buffered; flush within the caller's deadline so a dead
	// broker surfaces as a delivery failure, not silence.
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return &ErrSendFailed{Channel: n.Name(), Cause: err}
	}
	return nil
}

// Close drains the connection if this channel owns it.
func (n *NATS) Close() error {
	if n.ownConn {
		return n.conn.Drain()
	}
	return nil
}
