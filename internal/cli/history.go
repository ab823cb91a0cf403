package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCommand prints the check ledger for one protocol.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <protocol>",
		Short: "Print the snapshot history of a protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			checks, err := a.store.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(checks) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no checks recorded for protocol %s\n", args[0])
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(checks)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max snapshots to print (0 = all)")
	return cmd
}
