package dispatcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/multimodal-travel-agent/agent/nodes"
)

func (d *Dispatcher) compileHandleRequestGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_identity",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveIdentity(in, d.resolver)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_identity: %w", err)
	}

	if err := graph.AddLambdaNode("acquire_agent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AcquireAgent(ctx, in, d.registry)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node acquire_agent: %w", err)
	}

	if err := graph.AddLambdaNode("stage_media",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.StageMedia(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node stage_media: %w", err)
	}

	if err := graph.AddLambdaNode("compose_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ComposePrompt(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_agent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeAgent(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_agent: %w", err)
	}

	if err := graph.AddLambdaNode("normalize_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.NormalizeResponse(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node normalize_response: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "resolve_identity"},
		{"resolve_identity", "acquire_agent"},
		{"acquire_agent", "stage_media"},
		{"stage_media", "compose_prompt"},
		{"compose_prompt", "invoke_agent"},
		{"invoke_agent", "normalize_response"},
		{"normalize_response", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.handle_request"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatcher graph: %w", err)
	}
	return runner, nil
}
