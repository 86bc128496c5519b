package llm

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	openrouterx "github.com/tanpawarit/multimodal-travel-agent/pkg/openrouter"
)

// Config holds the AGENT_* knobs of the travel agent's model loop.
type Config struct {
	MaxSteps     int     `envconfig:"MAX_STEPS" default:"8"`
	HistoryLimit int     `envconfig:"HISTORY_LIMIT" default:"20"`
	Model        string  `envconfig:"MODEL"`
	Temperature  float32 `envconfig:"TEMPERATURE" default:"-1"`
}

func (c Config) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be > 0", contractx.ErrValidation)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: history limit must be >= 0", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor applies the agent overrides on top of the shared OpenRouter
// settings. A negative temperature keeps the base value.
func (c Config) OpenRouterFor(base openrouterx.Config) openrouterx.Config {
	out := base
	if v := strings.TrimSpace(c.Model); v != "" {
		out.Model = v
	}
	if c.Temperature >= 0 {
		out.Temperature = c.Temperature
	}
	return out
}
