package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kypria/zeus/metrics"
	"github.com/kypria/zeus/store"
)

// Dispatcher fans events out to every registered channel.
//
// Each delivery is recorded in the alert_deliveries ledger, so a channel that
// was down when an alert fired is visible as a missing delivery row rather
// than silence. One channel failing never blocks the others.
type Dispatcher struct {
	store    *store.Store
	channels []Channel
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics counts per-channel delivery outcomes.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithSendTimeout bounds each individual channel send. Default 30s.
func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// NewDispatcher creates a Dispatcher writing delivery records to st.
// st may be nil in tests; deliveries are then not recorded.
func NewDispatcher(st *store.Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:   st,
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Register adds a channel. Not safe to call concurrently with Deliver.
func (d *Dispatcher) Register(ch Channel) {
	d.channels = append(d.channels, ch)
}

// Channels returns the names of registered channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Deliver sends evt on every channel sequentially. It returns the joined
// errors of all failed channels; a partial failure still records the
// successful deliveries.
func (d *Dispatcher) Deliver(ctx context.Context, evt Event) error {
	var errs []error
	for _, ch := range d.channels {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := ch.Send(sendCtx, evt)
		cancel()
		if err != nil {
			if d.metrics != nil {
				d.metrics.DeliveryErrors.WithLabelValues(ch.Name()).Inc()
			}
			d.logger.Error("alert delivery failed",
				"channel", ch.Name(), "alert_id", evt.AlertID,
				"protocol", evt.Protocol, "error", err)
			errs = append(errs, err)
			continue
		}
		if d.metrics != nil {
			d.metrics.DeliveriesTotal.WithLabelValues(ch.Name()).Inc()
		}
		d.logger.Info("alert delivered",
			"channel", ch.Name(), "alert_id", evt.AlertID,
			"protocol", evt.Protocol, "severity", evt.Severity)
		if d.store != nil {
			if err := d.store.MarkDelivered(ctx, evt.AlertID, ch.Name()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
