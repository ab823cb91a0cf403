package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewCheckCommand runs exactly one monitoring cycle and exits. Useful under
// cron or for a manual look after a portal letter arrives.
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single monitoring cycle and exit",
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
			return m.RunCycle(ctx)
		},
	}
}
