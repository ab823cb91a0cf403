package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kypria/zeus/config"
	"github.com/kypria/zeus/deflect"
)

// NewClassifyCommand classifies text from args or stdin against the
// configured pattern table, without touching the ledger or the portal.
func NewClassifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify status text against the deflection table",
		Long: "Classifies the given text (or stdin when no argument) against " +
			"the deflection pattern table and prints the match as JSON. " +
			"Exits 1 when a deflection is detected, 0 otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := deflect.DefaultPatterns()
			// Use configured patterns when a config file is present; the
			// command still works standalone without one.
			if cfg, err := config.LoadFile(opts.ConfigPath); err == nil {
				patterns = cfg.Patterns
			}

			var text string
			if len(args) > 0 {
				text = strings.Join(args, " ")
			} else {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}

			match := deflect.New(patterns).Classify(text)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if match == nil {
				if err := enc.Encode(map[string]any{"match": nil}); err != nil {
					return err
				}
				return nil
			}
			if err := enc.Encode(match); err != nil {
				return err
			}
			return fmt.Errorf("deflection detected: %s (%s)", match.Kind, match.Severity)
		},
	}
}
