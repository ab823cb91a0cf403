package cli

import (
	"fmt"
	"log/slog"

	"github.com/kypria/zeus/config"
	"github.com/kypria/zeus/evidence"
	"github.com/kypria/zeus/metrics"
	"github.com/kypria/zeus/monitor"
	"github.com/kypria/zeus/notify"
	"github.com/kypria/zeus/portal"
	"github.com/kypria/zeus/store"
	_ "modernc.org/sqlite"
)

// app bundles the wired components a command needs, plus their teardown.
type app struct {
	cfg        *config.Config
	store      *store.Store
	metrics    *metrics.Metrics
	dispatcher *notify.Dispatcher
	closers    []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}
}

// buildApp loads config and opens the ledger and notification channels.
func buildApp(opts *RootOptions) (*app, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Monitor.DBPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: st, metrics: metrics.New()}
	a.closers = append(a.closers, st.Close)

	d := notify.NewDispatcher(st, notify.WithMetrics(a.metrics))
	if cfg.Notify.SlackWebhook != "" {
		d.Register(notify.NewSlack(cfg.Notify.SlackWebhook))
	}
	if cfg.Notify.DiscordWebhook != "" {
		d.Register(notify.NewDiscord(cfg.Notify.DiscordWebhook))
	}
	if cfg.Notify.Webhook.URL != "" {
		d.Register(notify.NewWebhook(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Secret))
	}
	if cfg.Notify.Email.Host != "" {
		d.Register(notify.NewEmail(cfg.Notify.Email))
	}
	if cfg.Notify.NATS.URL != "" {
		nc, err := notify.NewNATS(cfg.Notify.NATS.URL, cfg.Notify.NATS.SubjectPrefix)
		if err != nil {
			a.close()
			return nil, err
		}
		d.Register(nc)
		a.closers = append(a.closers, nc.Close)
	}
	a.dispatcher = d
	slog.Info("channels configured", "channels", d.Channels())
	return a, nil
}

// buildMonitor wires the full browser-backed monitor on top of an app.
func buildMonitor(a *app) (*monitor.Monitor, *portal.Session, error) {
	if a.cfg.Portal.Username == "" || a.cfg.Portal.Password == "" {
		return nil, nil, fmt.Errorf("portal credentials missing (set ZEUS_PORTAL_USERNAME / ZEUS_PORTAL_PASSWORD)")
	}
	capt, err := evidence.NewCapturer(a.cfg.Monitor.EvidenceDir)
	if err != nil {
		return nil, nil, err
	}
	session := portal.NewSession(a.cfg.Portal)
	m := monitor.New(a.cfg, a.store, session,
		monitor.WithMetrics(a.metrics),
		monitor.WithCapturer(capt),
		monitor.WithDispatcher(a.dispatcher),
	)
	return m, session, nil
}
