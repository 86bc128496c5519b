package dispatchnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

func AcquireAgent(ctx context.Context, in *GraphState, registry contractx.AgentRegistry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	agent, err := registry.GetOrCreate(ctx, in.Identity)
	if err != nil {
		return nil, err
	}
	in.Agent = agent
	return in, nil
}
