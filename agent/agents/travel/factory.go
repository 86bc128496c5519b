package travel

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	llmx "github.com/tanpawarit/multimodal-travel-agent/agent/llm"
	memoryx "github.com/tanpawarit/multimodal-travel-agent/agent/memory"
	promptx "github.com/tanpawarit/multimodal-travel-agent/agent/prompt"
	toolx "github.com/tanpawarit/multimodal-travel-agent/agent/tool"
)

// Factory builds travel agents that share one compiled model graph and tool
// set. Each agent gets its own history and memory binding.
type Factory struct {
	runner       compose.Runnable[map[string]any, *schema.Message]
	executor     toolx.Executor
	store        memoryx.Store
	memoryID     string
	extractor    memoryx.Extractor
	maxSteps     int
	historyLimit int
}

type FactoryOption func(*Factory)

// WithExtractor replaces the model-backed extractor that turns finished turns
// into long-term records. It only matters when memory is configured.
func WithExtractor(extractor memoryx.Extractor) FactoryOption {
	return func(f *Factory) {
		f.extractor = extractor
	}
}

// WithMemory binds every built agent to memoryID in store. An empty id
// leaves agents without memory.
func WithMemory(store memoryx.Store, memoryID string) FactoryOption {
	return func(f *Factory) {
		f.store = store
		f.memoryID = strings.TrimSpace(memoryID)
	}
}

func NewFactory(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	tools toolx.Deps,
	cfg llmx.Config,
	opts ...FactoryOption,
) (*Factory, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is nil", contractx.ErrAgentBuild)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	infos, executor := toolx.Build(tools)
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind travel tools: %v", contractx.ErrAgentBuild, err)
	}

	systemPrompt := promptx.LoadPromptSet().System
	if systemPrompt == "" {
		return nil, contractx.ErrPromptMissing
	}

	runner, err := compileTurnGraph(ctx, toolModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrAgentBuild, err)
	}

	f := &Factory{
		runner:       runner,
		executor:     executor,
		maxSteps:     cfg.MaxSteps,
		historyLimit: cfg.HistoryLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.extractor == nil {
		f.extractor = NewModelExtractor(chatModel)
	}
	return f, nil
}

// Build creates the agent for id. With memory configured the agent is scoped
// to /users/{actor}/facts and /users/{actor}/preferences.
func (f *Factory) Build(ctx context.Context, id contractx.Identity) (contractx.Agent, error) {
	agent := &Agent{
		runner:       f.runner,
		executor:     f.executor,
		identity:     id,
		maxSteps:     f.maxSteps,
		historyLimit: f.historyLimit,
	}

	if f.memoryID != "" && f.store != nil {
		mgr, err := memoryx.NewSessionManager(memoryx.NewConfig(f.memoryID, id), f.store)
		if err != nil {
			return nil, fmt.Errorf("%w: memory session: %v", contractx.ErrAgentBuild, err)
		}
		agent.memory = mgr
		agent.extractor = f.extractor
	}

	log.Ctx(ctx).Info().
		Str("actor_id", id.ActorID).
		Str("session_id", id.SessionID).
		Bool("memory", agent.memory != nil).
		Msg("travel agent created")
	return agent, nil
}
