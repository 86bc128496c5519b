package tool

import (
	"context"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	videox "github.com/tanpawarit/multimodal-travel-agent/agent/video"
)

const defaultVideoPrompt = "Describe this travel video in detail: the places, activities, food and anything a traveller should know."

func executeVideoReader(ctx context.Context, analyzer videox.Analyzer, tool string, args map[string]any) (contractx.ToolResult, error) {
	path := stringArg(args, "video_path")
	if path == "" {
		return contractx.ToolResult{Tool: tool, Error: "video_path is required"}, nil
	}
	if analyzer == nil {
		return contractx.ToolResult{Tool: tool, Error: "video analysis is not configured"}, nil
	}

	prompt := stringArg(args, "prompt")
	if prompt == "" {
		prompt = defaultVideoPrompt
	}

	return fromVideoResponse(tool, analyzer.Analyze(ctx, path, prompt)), nil
}
