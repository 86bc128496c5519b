package dispatchnode

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

// ValidateRequest rejects requests that carry neither text nor usable media.
// Media of an unknown type is dropped and the request handled as text.
func ValidateRequest(ctx context.Context, in GraphInput) (*GraphState, error) {
	media := in.Request.Media
	if media != nil && !media.Supported() {
		log.Ctx(ctx).Warn().Str("media_type", string(media.Type)).Msg("unsupported media type ignored")
		media = nil
	}

	text := strings.TrimSpace(in.Request.Prompt)
	if text == "" && media == nil {
		return nil, contractx.ErrNoMessage
	}

	return &GraphState{
		Text:     text,
		Media:    media,
		Metadata: in.Metadata,
		Scope:    in.Scope,
	}, nil
}
