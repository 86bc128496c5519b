package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/tanpawarit/multimodal-travel-agent/agent/agents/dispatcher"
	"github.com/tanpawarit/multimodal-travel-agent/agent/agents/travel"
	llmx "github.com/tanpawarit/multimodal-travel-agent/agent/llm"
	mediax "github.com/tanpawarit/multimodal-travel-agent/agent/media"
	memoryx "github.com/tanpawarit/multimodal-travel-agent/agent/memory"
	sessionx "github.com/tanpawarit/multimodal-travel-agent/agent/session"
	toolx "github.com/tanpawarit/multimodal-travel-agent/agent/tool"
	bedrockx "github.com/tanpawarit/multimodal-travel-agent/agent/video/bedrock"
	tlx "github.com/tanpawarit/multimodal-travel-agent/agent/video/twelvelabs"
	configx "github.com/tanpawarit/multimodal-travel-agent/pkg/config"
	openrouterx "github.com/tanpawarit/multimodal-travel-agent/pkg/openrouter"
	tlclient "github.com/tanpawarit/multimodal-travel-agent/pkg/twelvelabs"
)

const (
	videoBackendBedrock    = "bedrock"
	videoBackendTwelveLabs = "twelvelabs"
	videoBackendNone       = "none"
)

type runtimeConfig struct {
	VideoBackend string `envconfig:"VIDEO_BACKEND" default:"bedrock"`
}

// app is everything a runtime command needs, built once per process.
type app struct {
	dispatcher *dispatcher.Dispatcher
	closers    []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close resource failed")
		}
	}
}

func newApp(ctx context.Context) (*app, error) {
	rtCfg, err := configx.New[runtimeConfig]("")
	if err != nil {
		return nil, err
	}
	agentCfg, err := configx.New[llmx.Config]("AGENT")
	if err != nil {
		return nil, err
	}
	cacheCfg, err := configx.New[sessionx.Config]("AGENT")
	if err != nil {
		return nil, err
	}
	mediaCfg, err := configx.New[mediax.Config]("")
	if err != nil {
		return nil, err
	}
	orCfg, err := configx.New[openrouterx.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	a := &app{}

	tools, err := newVideoDeps(ctx, rtCfg.VideoBackend, fs)
	if err != nil {
		return nil, err
	}

	modelCfg := agentCfg.OpenRouterFor(*orCfg)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, err
	}

	var opts []travel.FactoryOption
	store, memoryID, err := openMemory(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, travel.WithMemory(store, memoryID))
		if c, ok := store.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	factory, err := travel.NewFactory(ctx, chatModel, tools, *agentCfg, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry, err := sessionx.NewRegistry(*cacheCfg, factory.Build)
	if err != nil {
		a.Close()
		return nil, err
	}

	d, err := dispatcher.New(registry, mediax.NewStager(fs, *mediaCfg))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.dispatcher = d

	log.Info().
		Str("video_backend", rtCfg.VideoBackend).
		Str("cache_mode", string(registry.Mode())).
		Bool("memory", store != nil).
		Str("model", modelCfg.Model).
		Msg("travel agent runtime ready")
	return a, nil
}

// openMemory returns a nil store when BEDROCK_AGENTCORE_MEMORY_ID is unset.
func openMemory(ctx context.Context) (memoryx.Store, string, error) {
	settings, err := configx.New[memoryx.Settings]("")
	if err != nil {
		return nil, "", err
	}
	if !settings.Enabled() {
		log.Info().Msg("memory disabled: BEDROCK_AGENTCORE_MEMORY_ID is not set")
		return nil, "", nil
	}

	upstashCfg, err := configx.New[memoryx.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		return nil, "", err
	}
	store, err := memoryx.Open(ctx, *settings, *upstashCfg)
	if err != nil {
		return nil, "", fmt.Errorf("open memory store: %w", err)
	}
	return store, settings.MemoryID, nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func newBedrockTool(ctx context.Context, fs afero.Fs) (*bedrockx.Tool, error) {
	cfg, err := configx.New[bedrockx.Config]("")
	if err != nil {
		return nil, err
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return bedrockx.New(*cfg, bedrockx.NewClients(awsCfg), fs), nil
}

// newTwelveLabsTool never fails on a missing key; the tool reports it on use.
func newTwelveLabsTool(fs afero.Fs) (*tlx.Tool, error) {
	cfg, err := configx.New[tlclient.Config]("TL")
	if err != nil {
		return nil, err
	}

	var api tlx.API
	client, err := tlclient.NewClient(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("twelvelabs client unavailable")
	} else {
		api = client
	}
	return tlx.New(api, cfg.IndexName, fs), nil
}

func newVideoDeps(ctx context.Context, backend string, fs afero.Fs) (toolx.Deps, error) {
	deps := toolx.Deps{Fs: fs}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", videoBackendBedrock:
		tool, err := newBedrockTool(ctx, fs)
		if err != nil {
			return toolx.Deps{}, err
		}
		deps.Video = tool
	case videoBackendTwelveLabs:
		tool, err := newTwelveLabsTool(fs)
		if err != nil {
			return toolx.Deps{}, err
		}
		deps.Video = tool
	case videoBackendNone:
	default:
		return toolx.Deps{}, fmt.Errorf("unknown VIDEO_BACKEND %q", backend)
	}
	return deps, nil
}
