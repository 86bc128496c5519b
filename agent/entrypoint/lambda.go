package entrypoint

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
)

// Event is the payload accepted by the function handler.
type Event struct {
	Prompt    string            `json:"prompt"`
	Media     *contractx.Media  `json:"media,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// HandleEvent is registered with lambda.Start.
func (h *Handler) HandleEvent(ctx context.Context, ev Event) (contractx.Response, error) {
	meta := metadataFromEvent(ctx, ev)
	ctx = withRequestLogger(ctx, meta)
	return h.dispatcher.Dispatch(ctx, contractx.Request{Prompt: ev.Prompt, Media: ev.Media}, meta)
}

func metadataFromEvent(ctx context.Context, ev Event) contractx.Metadata {
	headers := make(map[string]string, len(ev.Headers)+1)
	for k, v := range ev.Headers {
		headers[k] = v
	}
	if actor := strings.TrimSpace(ev.ActorID); actor != "" {
		headers[identityx.HeaderActorID] = actor
	}

	meta := contractx.Metadata{
		SessionID: strings.TrimSpace(ev.SessionID),
		Headers:   headers,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		meta.RequestID = lc.AwsRequestID
	} else {
		meta.RequestID = uuid.NewString()
	}
	return meta
}
