// Package session hands out the agent bound to a conversation.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

type Mode string

const (
	// ModeSession keeps one agent per session id in a bounded LRU cache.
	ModeSession Mode = "session"
	// ModePinned keeps a single agent for the whole process. The identity of
	// the first request wins; later identities are ignored.
	ModePinned Mode = "pinned"

	DefaultCacheSize = 128
)

// Config selects the cache mode. The default, ModeSession, gives every session
// its own agent; ModePinned restores one agent per process.
type Config struct {
	Mode Mode `envconfig:"CACHE_MODE" default:"session"`
	Size int  `envconfig:"CACHE_SIZE" default:"128"`
}

// BuildFunc creates a fresh agent for an identity.
type BuildFunc func(ctx context.Context, id contractx.Identity) (contractx.Agent, error)

type Registry struct {
	mode  Mode
	build BuildFunc

	cache *lru.Cache[string, contractx.Agent]
	group singleflight.Group

	pinnedMu sync.Mutex
	pinned   contractx.Agent
}

var _ contractx.AgentRegistry = (*Registry)(nil)

func NewRegistry(cfg Config, build BuildFunc) (*Registry, error) {
	if build == nil {
		return nil, fmt.Errorf("%w: agent builder is nil", contractx.ErrValidation)
	}

	mode := Mode(strings.ToLower(strings.TrimSpace(string(cfg.Mode))))
	switch mode {
	case "":
		mode = ModeSession
	case ModeSession, ModePinned:
	default:
		return nil, fmt.Errorf("%w: unknown agent cache mode %q", contractx.ErrValidation, cfg.Mode)
	}

	r := &Registry{mode: mode, build: build}
	if mode == ModePinned {
		return r, nil
	}

	size := cfg.Size
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.NewWithEvict[string, contractx.Agent](size, func(sessionID string, _ contractx.Agent) {
		log.Debug().Str("session_id", sessionID).Msg("agent evicted")
	})
	if err != nil {
		return nil, fmt.Errorf("create agent cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

func (r *Registry) Mode() Mode { return r.mode }

// GetOrCreate returns the agent for id, building it on first use. In session
// mode the key is the session id alone, so a later request for the same
// session reuses the agent even if the actor differs.
func (r *Registry) GetOrCreate(ctx context.Context, id contractx.Identity) (contractx.Agent, error) {
	if r.mode == ModePinned {
		return r.getPinned(ctx, id)
	}

	if agent, ok := r.cache.Get(id.SessionID); ok {
		return agent, nil
	}

	v, err, _ := r.group.Do(id.SessionID, func() (any, error) {
		if agent, ok := r.cache.Get(id.SessionID); ok {
			return agent, nil
		}
		agent, err := r.build(ctx, id)
		if err != nil {
			return nil, err
		}
		r.cache.Add(id.SessionID, agent)
		return agent, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrAgentBuild, err)
	}
	return v.(contractx.Agent), nil
}

func (r *Registry) getPinned(ctx context.Context, id contractx.Identity) (contractx.Agent, error) {
	r.pinnedMu.Lock()
	defer r.pinnedMu.Unlock()

	if r.pinned != nil {
		return r.pinned, nil
	}
	agent, err := r.build(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrAgentBuild, err)
	}
	r.pinned = agent
	return agent, nil
}

// Len reports how many agents are held.
func (r *Registry) Len() int {
	if r.mode == ModePinned {
		r.pinnedMu.Lock()
		defer r.pinnedMu.Unlock()
		if r.pinned != nil {
			return 1
		}
		return 0
	}
	return r.cache.Len()
}
