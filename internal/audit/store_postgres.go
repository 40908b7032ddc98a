package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"idguardian/pkg/domain"
)

// PostgresStore persists the audit trail in PostgreSQL, one row per event.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, session_id, action, subject, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		uuid.UUID(event.SessionID),
		string(event.Action),
		event.Subject,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]Event, error) {
	query := `
		SELECT id, occurred_at, action, subject, reason
		FROM audit_events
		WHERE session_id = $1
		ORDER BY occurred_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event := Event{SessionID: sessionID}
		var action string
		if err := rows.Scan(&event.ID, &event.Timestamp, &action, &event.Subject, &event.Reason); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		events = append(events, event)
	}
	return events, rows.Err()
}
