// Package monitor runs the polling cycle: fetch each tracked protocol,
// fingerprint what the portal shows, classify deflection language, append the
// snapshot to the ledger and decide which alerts to raise.
//
// The cycle is deliberately sequential — the portal is a government site and
// one browser session checking protocols one by one is both gentler and
// easier to reason about than parallel fetches sharing a session.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kypria/zeus/config"
	"github.com/kypria/zeus/deflect"
	"github.com/kypria/zeus/evidence"
	"github.com/kypria/zeus/extract"
	"github.com/kypria/zeus/metrics"
	"github.com/kypria/zeus/notify"
	"github.com/kypria/zeus/store"
)

// Monitor owns one polling loop over the configured protocols.
type Monitor struct {
	cfg        *config.Config
	store      *store.Store
	driver     Driver
	classifier *deflect.Classifier
	capturer   *evidence.Capturer
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithMetrics attaches instrumentation.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mx }
}

// WithCapturer attaches evidence capture. Without it, snapshots are recorded
// but no files are written.
func WithCapturer(c *evidence.Capturer) Option {
	return func(m *Monitor) { m.capturer = c }
}

// WithDispatcher attaches alert delivery. Without it, alerts are recorded in
// the ledger but not sent anywhere.
func WithDispatcher(d *notify.Dispatcher) Option {
	return func(m *Monitor) { m.dispatcher = d }
}

// WithClock overrides the time source; tests use this to cross deadlines.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// New assembles a Monitor.
func New(cfg *config.Config, st *store.Store, driver Driver, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:        cfg,
		store:      st,
		driver:     driver,
		classifier: deflect.New(cfg.Patterns),
		metrics:    metrics.New(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run executes cycles on the configured interval until ctx is cancelled. The
// first cycle starts immediately. A failed cycle is logged and the loop keeps
// going; transient portal trouble must not kill the monitor.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Monitor.Interval)
	defer ticker.Stop()

	for {
		if err := m.RunCycle(ctx); err != nil {
			m.logger.Error("cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs one full pass over the configured protocols.
//
// Fetch and delivery failures are counted and the cycle carries on; a
// persistence failure aborts the cycle, because a monitor that cannot append
// to its ledger is blind and must say so loudly.
func (m *Monitor) RunCycle(ctx context.Context) error {
	start := m.now()
	runID, err := m.store.InsertRun(ctx, start.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("monitor: open run: %w", err)
	}
	m.logger.Info("cycle started", "run_id", runID, "protocols", len(m.cfg.Protocols))

	var checked, alerts, errCount int
	fail := func(cause error) error {
		m.metrics.RunsTotal.WithLabelValues(store.RunStatusFailed).Inc()
		// The cycle context may already be cancelled; closing the run row
		// gets its own deadline so the failure is still recorded.
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ferr := m.store.FailRun(closeCtx, runID, m.now().UTC().UnixMilli(), checked, alerts, errCount+1); ferr != nil {
			m.logger.Error("marking run failed also failed", "run_id", runID, "error", ferr)
		}
		return cause
	}

	for _, p := range m.cfg.Protocols {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("monitor: cycle cancelled: %w", err))
		}

		n, err := m.checkProtocol(ctx, p)
		if err != nil {
			var pe *persistError
			if errors.As(err, &pe) {
				m.logger.Error("ledger append failed, aborting cycle",
					"run_id", runID, "protocol", p.Number, "error", err)
				return fail(err)
			}
			errCount++
			m.metrics.CheckErrors.WithLabelValues(p.Number).Inc()
			m.logger.Error("protocol check failed",
				"run_id", runID, "protocol", p.Number, "error", err)
			if rerr := m.recordError(ctx, p, err); rerr != nil {
				return fail(rerr)
			}
			continue
		}
		checked++
		alerts += n
	}

	dur := m.now().Sub(start)
	m.metrics.RunDuration.Observe(dur.Seconds())
	m.metrics.RunsTotal.WithLabelValues(store.RunStatusCompleted).Inc()
	if err := m.store.CompleteRun(ctx, runID, m.now().UTC().UnixMilli(), checked, alerts, errCount); err != nil {
		return fmt.Errorf("monitor: close run: %w", err)
	}
	m.logger.Info("cycle completed", "run_id", runID,
		"checked", checked, "alerts", alerts, "errors", errCount,
		"duration", dur.Round(time.Millisecond))
	return nil
}

// persistError marks ledger failures so RunCycle can tell them apart from
// fetch failures.
type persistError struct{ err error }

func (e *persistError) Error() string { return e.err.Error() }
func (e *persistError) Unwrap() error { return e.err }

// recordError appends an error snapshot so the outage itself is on record.
// The snapshot carries no fingerprint and no classification, and error rows
// are invisible to the change-detection baseline.
func (m *Monitor) recordError(ctx context.Context, p config.ProtocolConfig, cause error) error {
	check := &store.ProtocolCheck{
		ProtocolNumber: p.Number,
		StatusText:     extract.Excerpt("ERROR: "+cause.Error(), m.cfg.Monitor.ExcerptRunes),
		CheckedAt:      m.now().UTC().UnixMilli(),
	}
	if _, err := m.store.InsertCheck(ctx, check); err != nil {
		return &persistError{fmt.Errorf("append error snapshot %s: %w", p.Number, err)}
	}
	return nil
}

// checkProtocol fetches, records and evaluates one protocol. Returns the
// number of alerts raised.
func (m *Monitor) checkProtocol(ctx context.Context, p config.ProtocolConfig) (int, error) {
	obs, err := m.driver.Check(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", p.Number, err)
	}
	m.metrics.ChecksTotal.WithLabelValues(p.Number).Inc()

	now := m.now().UTC()
	hash := evidence.Fingerprint(obs.RawHTML)

	prior, err := m.store.LatestObserved(ctx, p.Number)
	if err != nil {
		return 0, &persistError{fmt.Errorf("load baseline %s: %w", p.Number, err)}
	}
	// First-ever observation establishes the baseline and is never "changed".
	changed := prior != nil && prior.ContentHash != hash
	if changed {
		m.metrics.ChangesTotal.WithLabelValues(p.Number).Inc()
	}

	match := m.classifier.Classify(obs.Text)

	check := &store.ProtocolCheck{
		ProtocolNumber: p.Number,
		StatusText:     extract.Excerpt(obs.Text, m.cfg.Monitor.ExcerptRunes),
		StatusDate:     extract.StripMarkup(obs.StatusDate),
		Agency:         extract.StripMarkup(obs.Agency),
		Subject:        extract.StripMarkup(obs.Subject),
		ResponseText:   extract.StripMarkup(obs.ResponseText),
		ContentHash:    hash,
		RawLength:      int64(len(obs.RawHTML)),
		Changed:        changed,
		CheckedAt:      now.UnixMilli(),
	}
	if match != nil {
		sev := string(match.Severity)
		check.DeflectionType = &match.Kind
		check.DeflectionSeverity = &sev
	}
	m.captureEvidence(p.Number, obs, check)

	if _, err := m.store.InsertCheck(ctx, check); err != nil {
		return 0, &persistError{fmt.Errorf("append check %s: %w", p.Number, err)}
	}

	return m.evaluate(ctx, p, obs, check, match, now)
}

// captureEvidence archives screenshot and raw HTML when a capturer is wired.
// Evidence failures degrade the snapshot, they don't block it.
func (m *Monitor) captureEvidence(protocol string, obs *Observation, check *store.ProtocolCheck) {
	if m.capturer == nil {
		return
	}
	if len(obs.Screenshot) > 0 {
		if art, err := m.capturer.SaveScreenshot(protocol, obs.Screenshot); err != nil {
			m.logger.Warn("screenshot capture failed", "protocol", protocol, "error", err)
		} else {
			check.EvidencePath = art.Path
			check.EvidenceHash = art.SHA256
		}
	}
	if _, err := m.capturer.SaveHTML(protocol, obs.RawHTML); err != nil {
		m.logger.Warn("html capture failed", "protocol", protocol, "error", err)
	}
	if _, err := m.capturer.SaveMarkdown(protocol, obs.RawHTML); err != nil {
		m.logger.Warn("markdown rendering failed", "protocol", protocol, "error", err)
	}
}

// evaluate applies the alert rules to a freshly appended snapshot. The two
// rules are exclusive per snapshot: a change absorbs any classification into
// the status_change alert, and a classification on unchanged content gets its
// own deflection alert, so one snapshot never double-counts the same finding.
func (m *Monitor) evaluate(ctx context.Context, p config.ProtocolConfig, obs *Observation,
	check *store.ProtocolCheck, match *deflect.Match, now time.Time) (int, error) {

	var raised int

	if check.Changed {
		sev := deflect.SeverityInfo
		msg := fmt.Sprintf("Portal content changed for protocol %s", p.Number)
		var details string
		if match != nil {
			sev = match.Severity
			msg = fmt.Sprintf("Portal content changed for protocol %s; new content reads as %s",
				p.Number, match.Description)
			details = match.Kind
		}
		n, err := m.raise(ctx, check, &store.Alert{
			ProtocolNumber: p.Number,
			AlertType:      store.AlertStatusChange,
			Severity:       string(sev),
			Message:        msg,
			Details:        details,
			CreatedAt:      now.UnixMilli(),
		})
		if err != nil {
			return raised, err
		}
		raised += n
	}

	// Unchanged content that still classifies is reportable every cycle: the
	// bureaucratic limbo persisting is itself the finding.
	if match != nil && !check.Changed {
		n, err := m.raise(ctx, check, &store.Alert{
			ProtocolNumber: p.Number,
			AlertType:      store.AlertDeflection,
			Severity:       string(match.Severity),
			Message:        fmt.Sprintf("Deflection detected for protocol %s: %s", p.Number, match.Description),
			Details:        match.Kind,
			CreatedAt:      now.UnixMilli(),
		})
		if err != nil {
			return raised, err
		}
		raised += n
	}

	n, err := m.evaluateDeadline(ctx, p, obs, check, match, now)
	if err != nil {
		return raised, err
	}
	raised += n
	return raised, nil
}

// evaluateDeadline raises a CRITICAL alert when a covered protocol is still
// unresolved on or after the statutory response deadline. Unresolved means
// the text reads as pending or carries any deflection classification. By
// default it fires once per protocol per deadline; the repeat flag makes it
// fire every cycle.
func (m *Monitor) evaluateDeadline(ctx context.Context, p config.ProtocolConfig,
	obs *Observation, check *store.ProtocolCheck, match *deflect.Match, now time.Time) (int, error) {

	d := m.cfg.Deadline
	if !d.Reached(now) || !d.Covers(p.Number) {
		return 0, nil
	}
	if !isPending(obs.Text) && match == nil {
		return 0, nil
	}
	if !d.Repeat {
		fired, err := m.store.HasDeadlineAlert(ctx, p.Number, 0)
		if err != nil {
			return 0, &persistError{fmt.Errorf("deadline guard %s: %w", p.Number, err)}
		}
		if fired {
			return 0, nil
		}
	}
	return m.raise(ctx, check, &store.Alert{
		ProtocolNumber: p.Number,
		AlertType:      store.AlertDeadlineMissed,
		Severity:       string(deflect.SeverityCritical),
		Message: fmt.Sprintf("Protocol %s still unresolved past deadline %s",
			p.Number, d.Date),
		CreatedAt: now.UnixMilli(),
	})
}

// isPending reports whether normalized text carries a pending marker.
func isPending(text string) bool {
	norm := deflect.Normalize(text)
	for _, kw := range deflect.PendingKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

// raise appends the alert to the ledger, then attempts delivery. The ledger
// write is authoritative; a delivery failure is logged and counted but the
// alert is already on record.
func (m *Monitor) raise(ctx context.Context, check *store.ProtocolCheck, a *store.Alert) (int, error) {
	id, err := m.store.InsertAlert(ctx, a)
	if err != nil {
		return 0, &persistError{fmt.Errorf("append alert: %w", err)}
	}
	m.metrics.AlertsTotal.WithLabelValues(a.AlertType, a.Severity).Inc()
	m.logger.Warn("alert raised",
		"alert_id", id, "protocol", a.ProtocolNumber,
		"type", a.AlertType, "severity", a.Severity)

	if m.dispatcher != nil {
		evt := notify.Event{
			AlertID:   id,
			Protocol:  a.ProtocolNumber,
			Type:      a.AlertType,
			Severity:  deflect.Severity(a.Severity),
			Message:   a.Message,
			Excerpt:   check.StatusText,
			CreatedAt: time.UnixMilli(a.CreatedAt).UTC(),
		}
		if err := m.dispatcher.Deliver(ctx, evt); err != nil {
			m.logger.Error("alert delivery incomplete", "alert_id", id, "error", err)
		}
	}
	return 1, nil
}
