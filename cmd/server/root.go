package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the trainfood-auth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainfood-auth",
		Short: "Authentication gateway for the TrainFood platform",
		Long: `trainfood-auth authenticates customers, sellers and delivery agents,
issues role-scoped access tokens and runs the OTP password reset flow.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewMailWorkerCmd())

	return cmd
}
