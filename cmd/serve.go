package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/multimodal-travel-agent/agent/entrypoint"
	configx "github.com/tanpawarit/multimodal-travel-agent/pkg/config"
)

const agentCacheHelp = `Agents are cached per session id by default (AGENT_CACHE_MODE=session), so
one process can serve many sessions and each gets its own history and memory
scope. Set AGENT_CACHE_MODE=pinned to keep a single agent for the whole
process; the first request's actor and session then apply to every later
request.`

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /invocations and GET /ping over HTTP",
		Long:  "Serve POST /invocations and GET /ping over HTTP.\n\n" + agentCacheHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serverCfg, err := configx.New[entrypoint.ServerConfig]("")
			if err != nil {
				return err
			}
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			server := entrypoint.NewServer(*serverCfg, entrypoint.NewHandler(a.dispatcher))
			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down http server")
				return server.Shutdown(context.Background())
			}
		},
	}
}

func lambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function handler",
		Long:  "Run as an AWS Lambda function handler.\n\n" + agentCacheHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			lambda.Start(entrypoint.NewHandler(a.dispatcher).HandleEvent)
			return nil
		},
	}
}
