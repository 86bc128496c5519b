package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	memoryx "github.com/tanpawarit/multimodal-travel-agent/agent/memory"
	toolx "github.com/tanpawarit/multimodal-travel-agent/agent/tool"
)

// Agent is one conversation with the travel assistant. Invocations are
// serialized so the in-process history is never mutated concurrently.
type Agent struct {
	mu sync.Mutex

	runner       compose.Runnable[map[string]any, *schema.Message]
	executor     toolx.Executor
	memory       *memoryx.SessionManager
	extractor    memoryx.Extractor
	identity     contractx.Identity
	maxSteps     int
	historyLimit int

	history       []*schema.Message
	historyLoaded bool
}

var _ contractx.Agent = (*Agent)(nil)

func (a *Agent) Invoke(ctx context.Context, prompt string) (contractx.AgentResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := log.Ctx(ctx).With().
		Str("actor_id", a.identity.ActorID).
		Str("session_id", a.identity.SessionID).
		Logger()

	a.loadHistory(ctx)

	memoryContext := ""
	if a.memory != nil {
		memoryContext = memoryx.FormatContext(a.memory.Retrieve(ctx, prompt))
	}

	userMsg := schema.UserMessage(prompt)
	turn := make([]*schema.Message, 0, len(a.history)+4)
	turn = append(turn, a.history...)
	turn = append(turn, userMsg)

	for step := 0; step < a.maxSteps; step++ {
		msg, err := a.runner.Invoke(ctx, map[string]any{
			varMemoryContext: memoryContext,
			varMessages:      turn,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: travel agent invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return nil, fmt.Errorf("%w: empty model response", contractx.ErrModelInvoke)
		}

		if len(msg.ToolCalls) == 0 {
			a.remember(ctx, userMsg, msg)
			logger.Debug().Int("steps", step+1).Msg("travel agent turn complete")
			return FromMessage(msg), nil
		}

		turn = append(turn, msg)
		turn = append(turn, a.runTools(ctx, msg.ToolCalls)...)
	}

	logger.Warn().Int("max_steps", a.maxSteps).Msg("travel agent exceeded tool steps")
	return nil, fmt.Errorf("%w: limit=%d", contractx.ErrMaxSteps, a.maxSteps)
}

// runTools executes every call of one assistant message. Images returned by
// a tool are handed back to the model as a follow-up user message.
func (a *Agent) runTools(ctx context.Context, calls []schema.ToolCall) []*schema.Message {
	out := make([]*schema.Message, 0, len(calls)+1)
	var images []contractx.ImageAttachment

	for _, call := range calls {
		req := contractx.ToolRequest{ID: call.ID, Tool: strings.TrimSpace(call.Function.Name)}

		var res contractx.ToolResult
		if err := parseArgs(call.Function.Arguments, &req.Args); err != nil {
			res = contractx.ToolResult{Tool: req.Tool, Error: err.Error()}
		} else {
			res = a.executor.Execute(ctx, req)
		}

		if res.Error != "" {
			log.Ctx(ctx).Warn().Str("tool", req.Tool).Str("error", res.Error).Msg("tool failed")
		}

		out = append(out, schema.ToolMessage(toolContent(res), call.ID))
		images = append(images, res.Images...)
	}

	if len(images) > 0 {
		out = append(out, imageMessage(images))
	}
	return out
}

func (a *Agent) loadHistory(ctx context.Context) {
	if a.historyLoaded {
		return
	}
	a.historyLoaded = true
	if a.memory == nil {
		return
	}

	events, err := a.memory.History(ctx, a.historyLimit)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("load conversation history failed")
		return
	}
	for _, ev := range events {
		switch ev.Role {
		case memoryx.RoleUser:
			a.history = append(a.history, schema.UserMessage(ev.Text))
		case memoryx.RoleAssistant:
			a.history = append(a.history, schema.AssistantMessage(ev.Text, nil))
		}
	}
	a.history = trimHistory(a.history, a.historyLimit)
}

// remember keeps the user prompt and the final reply; tool chatter is not
// carried into later turns. History is trimmed in whole exchanges so it
// always opens on a user message.
func (a *Agent) remember(ctx context.Context, userMsg, reply *schema.Message) {
	text := FromMessage(reply).String()
	a.history = append(a.history, userMsg, schema.AssistantMessage(text, nil))
	a.history = trimHistory(a.history, a.historyLimit)

	if a.memory == nil {
		return
	}
	if err := a.memory.Append(ctx, memoryx.RoleUser, userMsg.Content); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("append user event failed")
	}
	if err := a.memory.Append(ctx, memoryx.RoleAssistant, text); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("append assistant event failed")
	}

	if a.extractor == nil {
		return
	}
	insights, err := a.extractor.Extract(ctx, userMsg.Content, text)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("extract memory insights failed")
		return
	}
	n, err := a.memory.Remember(ctx, insights)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("store memory insights failed")
	}
	if n > 0 {
		log.Ctx(ctx).Debug().Int("records", n).Msg("memory insights stored")
	}
}

// trimHistory keeps at most limit messages, rounded down to whole
// user/assistant pairs, and drops anything before the first user message.
func trimHistory(history []*schema.Message, limit int) []*schema.Message {
	if limit > 0 {
		keep := limit - limit%2
		if len(history) > keep {
			history = history[len(history)-keep:]
		}
	}
	for len(history) > 0 && history[0].Role != schema.User {
		history = history[1:]
	}
	return history
}

func parseArgs(raw string, out *map[string]any) error {
	*out = map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("invalid tool arguments: %v", err)
	}
	return nil
}

func toolContent(res contractx.ToolResult) string {
	if res.Error != "" {
		return "Error: " + res.Error
	}
	raw, err := json.Marshal(res.Result)
	if err != nil {
		return fmt.Sprint(res.Result)
	}
	return string(raw)
}

func imageMessage(images []contractx.ImageAttachment) *schema.Message {
	parts := []schema.ChatMessagePart{{
		Type: schema.ChatMessagePartTypeText,
		Text: "Images returned by the tool call above.",
	}}
	for _, img := range images {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:    "data:" + img.MIMEType + ";base64," + img.Data,
				Detail: schema.ImageURLDetailAuto,
			},
		})
	}
	return &schema.Message{Role: schema.User, MultiContent: parts}
}

// FromMessage adapts a model message into an AgentResult.
func FromMessage(msg *schema.Message) contractx.AgentResult {
	if msg == nil {
		return nil
	}
	if len(msg.MultiContent) == 0 {
		return contractx.PlainText(msg.Content)
	}

	blocks := make([]contractx.ContentBlock, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		switch part.Type {
		case schema.ChatMessagePartTypeText:
			blocks = append(blocks, contractx.ContentBlock{Type: contractx.BlockText, Text: part.Text})
		case schema.ChatMessagePartTypeImageURL:
			blocks = append(blocks, contractx.ContentBlock{Type: contractx.BlockImage})
		default:
			blocks = append(blocks, contractx.ContentBlock{Type: contractx.BlockOther})
		}
	}
	return contractx.StructuredMessage{Role: string(msg.Role), Content: blocks}
}
