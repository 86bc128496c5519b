package memory

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

const (
	NamespaceFacts       = "facts"
	NamespacePreferences = "preferences"

	DefaultTopK           = 3
	DefaultRelevanceScore = 0.5
)

// RetrievalConfig bounds what one namespace contributes to a turn.
type RetrievalConfig struct {
	TopK           int
	RelevanceScore float64
}

// Config scopes a session manager to one actor and session inside a memory.
type Config struct {
	MemoryID  string
	ActorID   string
	SessionID string
	Retrieval map[string]RetrievalConfig
}

// NamespacePath renders the partition path for an actor, e.g. /users/alice/facts.
func NamespacePath(actorID, kind string) string {
	return fmt.Sprintf("/users/%s/%s", actorID, kind)
}

// NewConfig builds the default scoping for an identity: facts and preferences,
// top 3 each with a minimum relevance of 0.5.
func NewConfig(memoryID string, id contractx.Identity) Config {
	return Config{
		MemoryID:  strings.TrimSpace(memoryID),
		ActorID:   id.ActorID,
		SessionID: id.SessionID,
		Retrieval: map[string]RetrievalConfig{
			NamespacePath(id.ActorID, NamespaceFacts):       {TopK: DefaultTopK, RelevanceScore: DefaultRelevanceScore},
			NamespacePath(id.ActorID, NamespacePreferences): {TopK: DefaultTopK, RelevanceScore: DefaultRelevanceScore},
		},
	}
}

func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.MemoryID) == "":
		return fmt.Errorf("%w: memory id is empty", contractx.ErrValidation)
	case strings.TrimSpace(c.ActorID) == "":
		return fmt.Errorf("%w: actor id is empty", contractx.ErrValidation)
	case strings.TrimSpace(c.SessionID) == "":
		return fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}
	return nil
}
