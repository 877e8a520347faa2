package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one row in the audit trail. Every state change on a purchase
// order, delivery order or task records who did what to which entity.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends to the audit_logs table. Writes are best-effort from
// the services' point of view; a failed audit insert never rolls back the
// business change it describes.
type AuditLogger struct {
	pool *pgxpool.Pool
}

func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record inserts one audit row. A zero At is stamped with the current time.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil {
		return errors.New("shared: audit logger not configured")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("shared: audit entry missing action, entity or entity id")
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = l.pool.Exec(ctx, q, entry.ActorID, entry.Action, entry.Entity, entry.EntityID, metaJSON, entry.At)
	return err
}
