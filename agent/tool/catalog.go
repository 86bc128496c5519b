package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	videox "github.com/tanpawarit/multimodal-travel-agent/agent/video"
)

const (
	ToolImageReader = "image_reader"
	ToolFileRead    = "file_read"
	ToolVideoReader = "video_reader"
)

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

var _ contractx.ToolGateway = Executor(nil)

// Execute runs a request and folds executor errors into the result.
func (e Executor) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	out, err := e(ctx, req.Tool, req.Args)
	if err != nil {
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}
	}
	if out.Tool == "" {
		out.Tool = req.Tool
	}
	return out
}

// Deps wires the backends behind the tools. Video may be nil when no video
// backend is configured; video_reader then reports that it is unavailable.
type Deps struct {
	Fs    afero.Fs
	Video videox.Analyzer
}

// Build returns the tool infos to bind on the model and the executor that
// serves them.
func Build(deps Deps) ([]*schema.ToolInfo, Executor) {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	return infos(), NewExecutor(deps)
}

func NewExecutor(deps Deps) Executor {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	fallback := DefaultExecutor()
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		log.Ctx(ctx).Debug().Str("tool", tool).Msg("tool call")

		switch tool {
		case ToolImageReader:
			return executeImageReader(deps.Fs, tool, args)
		case ToolFileRead:
			return executeFileRead(deps.Fs, tool, args)
		case ToolVideoReader:
			return executeVideoReader(ctx, deps.Video, tool, args)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func DefaultExecutor() Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable", tool),
		}, nil
	}
}

// infos is the fixed tool set bound to every travel agent.
func infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolImageReader,
			Desc: "Read an image file from disk and return it for visual analysis.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"image_path": {Type: schema.String, Desc: "Path of the image file", Required: true},
			}),
		},
		{
			Name: ToolFileRead,
			Desc: "Read a text document such as an itinerary or travel guide.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"path":       {Type: schema.String, Desc: "Path of the file", Required: true},
				"start_line": {Type: schema.Integer, Desc: "First line to return, 1-based"},
				"end_line":   {Type: schema.Integer, Desc: "Last line to return, inclusive"},
			}),
		},
		{
			Name: ToolVideoReader,
			Desc: "Analyze a local video file (travel vlogs, destination tours) and describe its content.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"video_path": {Type: schema.String, Desc: "Path of the video file", Required: true},
				"prompt":     {Type: schema.String, Desc: "Question to ask about the video"},
			}),
		},
	}
}

func fromVideoResponse(tool string, resp videox.ToolResponse) contractx.ToolResult {
	if !resp.OK() {
		return contractx.ToolResult{Tool: tool, Error: resp.Text()}
	}
	return contractx.ToolResult{Tool: tool, Result: resp}
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
