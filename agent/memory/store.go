package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidScope   = errors.New("memory scope is incomplete")
	ErrUnknownBackend = errors.New("unknown memory backend")
)

const (
	BackendUpstash  = "upstash"
	BackendPostgres = "postgres"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Event is one conversational turn stored as short-term memory.
type Event struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memory_id"`
	ActorID   string    `json:"actor_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a long-term memory entry living in a namespace such as
// /users/{actor}/facts.
type Record struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memory_id"`
	Namespace string    `json:"namespace"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract behind a SessionManager.
type Store interface {
	CreateEvent(ctx context.Context, ev Event) error
	ListEvents(ctx context.Context, memoryID, actorID, sessionID string, limit int) ([]Event, error)
	PutRecord(ctx context.Context, rec Record) (Record, error)
	ListRecords(ctx context.Context, memoryID, namespace string) ([]Record, error)
	Ping(ctx context.Context) error
}

// Settings selects and configures a Store.
type Settings struct {
	MemoryID    string `envconfig:"BEDROCK_AGENTCORE_MEMORY_ID"`
	Backend     string `envconfig:"MEMORY_BACKEND" default:"upstash"`
	PostgresDSN string `envconfig:"MEMORY_POSTGRES_DSN"`
}

func (s Settings) Enabled() bool {
	return strings.TrimSpace(s.MemoryID) != ""
}

// Open builds the configured store. upstash is loaded lazily by the caller so
// that its env vars are only required when selected.
func Open(ctx context.Context, s Settings, upstash UpstashRedisConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case "", BackendUpstash:
		store, err := NewUpstashRedisStore(upstash)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		store, err := NewPostgresStore(ctx, s.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend)
	}
}

func validateEventScope(memoryID, actorID, sessionID string) error {
	if strings.TrimSpace(memoryID) == "" || strings.TrimSpace(actorID) == "" || strings.TrimSpace(sessionID) == "" {
		return ErrInvalidScope
	}
	return nil
}

func validateRecordScope(memoryID, namespace string) error {
	if strings.TrimSpace(memoryID) == "" || strings.TrimSpace(namespace) == "" {
		return ErrInvalidScope
	}
	return nil
}
