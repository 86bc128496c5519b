package contract

import "context"

// Agent is a long-lived conversational agent bound to one memory configuration.
type Agent interface {
	Invoke(ctx context.Context, prompt string) (AgentResult, error)
}

// AgentRegistry hands out the agent for a resolved identity.
type AgentRegistry interface {
	GetOrCreate(ctx context.Context, id Identity) (Agent, error)
}

type MediaStager interface {
	Stage(media *Media) (StagedMedia, error)
	Unstage(path string) error
}

type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) ToolResult
}
