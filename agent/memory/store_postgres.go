package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type eventModel struct {
	bun.BaseModel `bun:"table:memory_events,alias:me"`

	ID        string    `bun:"id,pk"`
	MemoryID  string    `bun:"memory_id,notnull"`
	ActorID   string    `bun:"actor_id,notnull"`
	SessionID string    `bun:"session_id,notnull"`
	Role      string    `bun:"role,notnull"`
	Text      string    `bun:"text,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type recordModel struct {
	bun.BaseModel `bun:"table:memory_records,alias:mr"`

	ID        string    `bun:"id,pk"`
	MemoryID  string    `bun:"memory_id,notnull"`
	Namespace string    `bun:"namespace,notnull"`
	Text      string    `bun:"text,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// PostgresStore keeps events and records in two tables managed with bun.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects and makes sure the tables exist.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	store := NewPostgresStoreWithDB(bun.NewDB(sqldb, pgdialect.New()))
	if err := store.migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStoreWithDB(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, model := range []any{(*eventModel)(nil), (*recordModel)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create memory table: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, ev Event) error {
	if err := validateEventScope(ev.MemoryID, ev.ActorID, ev.SessionID); err != nil {
		return err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	row := eventModel{
		ID:        ev.ID,
		MemoryID:  ev.MemoryID,
		ActorID:   ev.ActorID,
		SessionID: ev.SessionID,
		Role:      ev.Role,
		Text:      ev.Text,
		CreatedAt: ev.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert memory event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, memoryID, actorID, sessionID string, limit int) ([]Event, error) {
	if err := validateEventScope(memoryID, actorID, sessionID); err != nil {
		return nil, err
	}

	var rows []eventModel
	q := s.db.NewSelect().
		Model(&rows).
		Where("memory_id = ?", memoryID).
		Where("actor_id = ?", actorID).
		Where("session_id = ?", sessionID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select memory events: %w", err)
	}

	events := make([]Event, len(rows))
	for i, row := range rows {
		// rows are newest first; callers want oldest first.
		events[len(rows)-1-i] = Event{
			ID:        row.ID,
			MemoryID:  row.MemoryID,
			ActorID:   row.ActorID,
			SessionID: row.SessionID,
			Role:      row.Role,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
		}
	}
	return events, nil
}

func (s *PostgresStore) PutRecord(ctx context.Context, rec Record) (Record, error) {
	if err := validateRecordScope(rec.MemoryID, rec.Namespace); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	row := recordModel{
		ID:        rec.ID,
		MemoryID:  rec.MemoryID,
		Namespace: rec.Namespace,
		Text:      rec.Text,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return Record{}, fmt.Errorf("insert memory record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, memoryID, namespace string) ([]Record, error) {
	if err := validateRecordScope(memoryID, namespace); err != nil {
		return nil, err
	}

	var rows []recordModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("memory_id = ?", memoryID).
		Where("namespace = ?", namespace).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select memory records: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ID:        row.ID,
			MemoryID:  row.MemoryID,
			Namespace: row.Namespace,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
		})
	}
	return records, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
