// Package cmd is the command line front of the travel agent runtime.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/multimodal-travel-agent/pkg/config"
)

func rootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "travel-agent",
		Short:         "Multimodal travel assistant runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env when present)")

	root.AddCommand(serveCmd())
	root.AddCommand(lambdaCmd())
	root.AddCommand(invokeCmd())
	root.AddCommand(memoryCmd())
	root.AddCommand(videoCmd())
	root.AddCommand(doctorCmd())
	return root
}

func Execute(ctx context.Context) error {
	return rootCmd().ExecuteContext(ctx)
}
