package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kypria/zeus/api"
	"github.com/kypria/zeus/metrics"
)

// NewRunCommand starts the monitoring daemon: polling loop plus status API.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor daemon (polling loop + status API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			m, session, err := buildMonitor(a)
			if err != nil {
				return err
			}
			defer session.Close()
			if err := session.Connect(ctx); err != nil {
				return err
			}

			srv := newAPIServer(a, a.metrics)
			go func() {
				slog.Info("status api listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("status api failed", "error", err)
				}
			}()
			defer shutdownAPI(srv)

			slog.Info("monitor starting",
				"protocols", len(a.cfg.Protocols),
				"interval", a.cfg.Monitor.Interval)
			err = m.Run(ctx)
			if errors.Is(err, context.Canceled) {
				slog.Info("monitor stopped")
				return nil
			}
			return err
		},
	}
}

func newAPIServer(a *app, mx *metrics.Metrics) *http.Server {
	s := api.NewServer(a.store, api.WithMetrics(mx))
	return &http.Server{
		Addr:              a.cfg.API.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

func shutdownAPI(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("status api shutdown", "error", err)
	}
}
