package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	llmx "github.com/tanpawarit/multimodal-travel-agent/agent/llm"
	configx "github.com/tanpawarit/multimodal-travel-agent/pkg/config"
	openrouterx "github.com/tanpawarit/multimodal-travel-agent/pkg/openrouter"
)

const doctorCheckTimeout = 15 * time.Second

type awsRegionConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check model, AWS and memory connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			check := func(name string, fn func(ctx context.Context) (string, error)) {
				ctx, cancel := context.WithTimeout(cmd.Context(), doctorCheckTimeout)
				defer cancel()

				detail, err := fn(ctx)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  %-8s FAIL  %v\n", name, err)
					return
				}
				fmt.Fprintf(out, "  %-8s OK    %s\n", name, detail)
			}

			fmt.Fprintln(out, "travel-agent doctor")
			check("model", checkModel)
			check("aws", checkAWSIdentity)
			check("memory", checkMemory)

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

func checkModel(ctx context.Context) (string, error) {
	orCfg, err := configx.New[openrouterx.Config]("OPENROUTER")
	if err != nil {
		return "", err
	}
	agentCfg, err := configx.New[llmx.Config]("AGENT")
	if err != nil {
		return "", err
	}
	cfg := agentCfg.OpenRouterFor(*orCfg)
	return openrouterx.VerifyModel(ctx, openrouterx.NewClient(cfg), cfg.Model)
}

func checkAWSIdentity(ctx context.Context) (string, error) {
	rtCfg, err := configx.New[awsRegionConfig]("")
	if err != nil {
		return "", err
	}
	awsCfg, err := loadAWSConfig(ctx, rtCfg.Region)
	if err != nil {
		return "", err
	}
	out, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("account %s (%s)", aws.ToString(out.Account), aws.ToString(out.Arn)), nil
}

func checkMemory(ctx context.Context) (string, error) {
	store, memoryID, err := openMemory(ctx)
	if err != nil {
		return "", err
	}
	if store == nil {
		return "disabled", nil
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	if err := store.Ping(ctx); err != nil {
		return "", err
	}
	return "memory " + memoryID, nil
}
