package dispatchnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

func InvokeAgent(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil || in.Agent == nil {
		return nil, fmt.Errorf("%w: agent is not acquired", contractx.ErrValidation)
	}

	log.Ctx(ctx).Debug().
		Str("actor_id", in.Identity.ActorID).
		Str("session_id", in.Identity.SessionID).
		Bool("has_media", in.Staged != nil).
		Msg("invoking agent")

	res, err := in.Agent.Invoke(ctx, in.Prompt)
	if err != nil {
		if errors.Is(err, contractx.ErrModelInvoke) || errors.Is(err, contractx.ErrMaxSteps) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}
	in.Result = res
	return in, nil
}
