package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	memoryx "github.com/tanpawarit/multimodal-travel-agent/agent/memory"
	promptx "github.com/tanpawarit/multimodal-travel-agent/agent/prompt"
)

// ModelExtractor asks the chat model which facts and preferences of a turn
// are worth keeping across sessions.
type ModelExtractor struct {
	model  einomodel.BaseChatModel
	prompt string
}

var _ memoryx.Extractor = (*ModelExtractor)(nil)

func NewModelExtractor(model einomodel.BaseChatModel) *ModelExtractor {
	return &ModelExtractor{model: model, prompt: promptx.LoadPromptSet().Extract}
}

type extraction struct {
	Facts       []string `json:"facts"`
	Preferences []string `json:"preferences"`
}

func (e *ModelExtractor) Extract(ctx context.Context, userText, reply string) ([]memoryx.Insight, error) {
	msg, err := e.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(e.prompt),
		schema.UserMessage("Traveller: " + strings.TrimSpace(userText) + "\n\nAssistant: " + strings.TrimSpace(reply)),
	})
	if err != nil {
		return nil, fmt.Errorf("extract insights: %w", err)
	}
	if msg == nil {
		return nil, nil
	}
	return parseExtraction(msg.Content)
}

func parseExtraction(raw string) ([]memoryx.Insight, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out extraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	insights := make([]memoryx.Insight, 0, len(out.Facts)+len(out.Preferences))
	for _, text := range out.Facts {
		insights = append(insights, memoryx.Insight{Kind: memoryx.NamespaceFacts, Text: text})
	}
	for _, text := range out.Preferences {
		insights = append(insights, memoryx.Insight{Kind: memoryx.NamespacePreferences, Text: text})
	}
	return insights, nil
}
