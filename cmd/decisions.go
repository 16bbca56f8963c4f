package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/audit"
)

// NewCmdDecisions creates the decisions command.
func NewCmdDecisions(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show recently evaluated decisions",
		Long:  `Show the most recent entries from the decision log written by 'gitpulse evaluate'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecisions(opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of decisions to show")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().StringVar(&opts.DecisionLog, "log", "", "Decision log path (default: ~/.cache/gitpulse/decisions.jsonl)")

	return cmd
}

func runDecisions(opts *Options) error {
	var store *audit.Store
	if opts.DecisionLog != "" {
		store = audit.NewStoreWithPath(opts.DecisionLog)
	} else {
		var err error
		store, err = audit.NewStore()
		if err != nil {
			return fmt.Errorf("decision log unavailable: %w", err)
		}
	}

	records := store.Recent(opts.Limit)
	if len(records) == 0 {
		fmt.Println("No recorded decisions.")
		return nil
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Printf("%-20s  %-12s  %-26s  %-24s  %-8s  %s\n",
		"When", "User", "Repository", "Trigger", "Verdict", "Reason")
	for _, rec := range records {
		verdict := color.RedString("suppress")
		if rec.ShouldNotify {
			verdict = color.GreenString("notify")
		}
		fmt.Printf("%-20s  %-12s  %-26s  %-24s  %-8s  %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.UserID,
			rec.Repository,
			rec.Trigger,
			verdict,
			rec.Reason)
	}
	return nil
}
