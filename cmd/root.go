package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "gitpulse",
		Short: "GitHub notification decision engine",
		Long: `A CLI for the gitpulse notification decision engine. Given a GitHub
webhook event and a user's notification profiles, it decides whether the
user should be notified, which profile triggered, and why.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is the normal case.
			_ = godotenv.Load()
			log.Initialize(opts.Verbosity, os.Stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	rootCmd.AddCommand(NewCmdEvaluate(opts))
	rootCmd.AddCommand(NewCmdDecisions(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
