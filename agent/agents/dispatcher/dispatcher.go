// Package dispatcher turns one runtime request into one agent turn: it
// validates the payload, picks the agent for the caller, stages any media for
// the duration of the call and flattens the agent's reply.
package dispatcher

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
	nodex "github.com/tanpawarit/multimodal-travel-agent/agent/nodes"
)

type Dispatcher struct {
	registry contractx.AgentRegistry
	stager   contractx.MediaStager
	resolver identityx.Resolver

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

type Option func(*Dispatcher)

func WithResolver(r identityx.Resolver) Option {
	return func(d *Dispatcher) { d.resolver = r }
}

func New(registry contractx.AgentRegistry, stager contractx.MediaStager, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("agent registry is required")
	}
	if stager == nil {
		return nil, errors.New("media stager is required")
	}

	d := &Dispatcher{
		registry: registry,
		stager:   stager,
		resolver: identityx.NewResolver(),
	}
	for _, opt := range opts {
		opt(d)
	}

	graphRunner, err := d.compileHandleRequestGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

// Dispatch handles one request. A request without text or media is answered
// with NoMessageResult and a nil error. Staged media never outlives the call.
func (d *Dispatcher) Dispatch(ctx context.Context, req contractx.Request, meta contractx.Metadata) (contractx.Response, error) {
	scope := nodex.NewStagingScope(d.stager)
	defer scope.Release(ctx)

	out, err := d.graphRunner.Invoke(ctx, nodex.GraphInput{
		Request:  req,
		Metadata: meta,
		Scope:    scope,
	})
	if err != nil {
		if errors.Is(err, contractx.ErrNoMessage) {
			return contractx.Response{Result: contractx.NoMessageResult}, nil
		}
		log.Ctx(ctx).Error().Err(err).Str("request_id", meta.RequestID).Msg("dispatch failed")
		return contractx.Response{}, err
	}
	return out.Response, nil
}
