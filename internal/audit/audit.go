// Package audit keeps a trail of auth lifecycle events: logins, logouts,
// evictions, and denied route access. The trail is advisory; a write
// failure is logged and never blocks the auth flow itself.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event types recorded by the gateway.
const (
	EventLogin       = "auth.login"
	EventLoginFailed = "auth.login_failed"
	EventLogout      = "auth.logout"
	EventEviction    = "auth.eviction"
	EventDenied      = "authz.denied"
)

// Event is a single audit record.
type Event struct {
	ID         string
	Type       string
	Subject    string
	Meta       map[string]any
	OccurredAt time.Time
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// PostgresRecorder writes events into auth_audit_events.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder returns a Recorder backed by the given pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Record implements Recorder.
func (r *PostgresRecorder) Record(ctx context.Context, event Event) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	if event.Type == "" {
		return errors.New("audit: event type required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO auth_audit_events (id, event_type, subject, meta, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.Type, event.Subject, metaJSON, event.OccurredAt)
	return err
}

// MemoryRecorder keeps events in memory. Tests and setups without a
// database use it.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryRecorder returns an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(ctx context.Context, event Event) error {
	if event.Type == "" {
		return errors.New("audit: event type required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
