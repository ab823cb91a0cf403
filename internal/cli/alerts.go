package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewAlertsCommand lists recorded alerts, newest first.
func NewAlertsCommand(opts *RootOptions) *cobra.Command {
	var protocol string
	var limit int
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List recorded alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			alerts, err := a.store.ListAlerts(cmd.Context(), protocol, limit)
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no alerts recorded")
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(alerts)
		},
	}
	cmd.Flags().StringVar(&protocol, "protocol", "", "filter by protocol number")
	cmd.Flags().IntVar(&limit, "limit", 0, "max alerts to print (0 = default 50)")
	return cmd
}
