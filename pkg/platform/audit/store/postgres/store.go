package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	audit "finsight/pkg/platform/audit"

	"github.com/google/uuid"
)

//go:embed schema.sql
var Schema string

// Store persists audit events to the audit_events table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Append inserts event. Category is always derived from the action so a
// caller cannot file a security event under operations.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	var metadata []byte
	if len(event.Metadata) > 0 {
		b, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		metadata = b
	}

	const query = `
		INSERT INTO audit_events (
			id, category, timestamp, user_id, session_id, subject, action,
			reason, request_id, actor_id, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		ts,
		event.UserID,
		event.SessionID,
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
		event.ActorID,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns the user's events oldest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]audit.Event, error) {
	const query = `
		SELECT category, timestamp, action, user_id, session_id, subject,
			reason, request_id, actor_id, metadata
		FROM audit_events
		WHERE user_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			category string
			metadata []byte
		)
		if err := rows.Scan(&category, &e.Timestamp, &e.Action, &e.UserID, &e.SessionID,
			&e.Subject, &e.Reason, &e.RequestID, &e.ActorID, &metadata); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
