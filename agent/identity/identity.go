// Package identity maps runtime request metadata onto the actor/session pair
// that selects a memory partition.
package identity

import (
	"strings"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

const (
	HeaderActorID   = "X-Amzn-Bedrock-AgentCore-Runtime-Custom-Actor-Id"
	HeaderSessionID = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

	DefaultActorID   = "whatsapp-user"
	DefaultSessionID = "whatsapp-session"
)

type Resolver struct {
	DefaultActorID   string
	DefaultSessionID string
}

func NewResolver() Resolver {
	return Resolver{
		DefaultActorID:   DefaultActorID,
		DefaultSessionID: DefaultSessionID,
	}
}

// Resolve never fails: missing or blank values fall back to the defaults.
func (r Resolver) Resolve(meta contractx.Metadata) contractx.Identity {
	actorID := strings.TrimSpace(meta.Header(HeaderActorID))
	if actorID == "" {
		actorID = fallback(r.DefaultActorID, DefaultActorID)
	}

	sessionID := strings.TrimSpace(meta.SessionID)
	if sessionID == "" {
		sessionID = strings.TrimSpace(meta.Header(HeaderSessionID))
	}
	if sessionID == "" {
		sessionID = fallback(r.DefaultSessionID, DefaultSessionID)
	}

	return contractx.Identity{ActorID: actorID, SessionID: sessionID}
}

func fallback(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
