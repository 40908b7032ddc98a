package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"idguardian/internal/decision"
	"idguardian/internal/verification"
	"idguardian/pkg/domain"
	"idguardian/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// PostgresStore persists verification outcomes in PostgreSQL. One row per
// session; the primary key enforces the write-once invariant.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record verification.Record) error {
	signals, err := json.Marshal(record.Result.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	explanations, err := json.Marshal(record.Result.Explanations)
	if err != nil {
		return fmt.Errorf("marshal explanations: %w", err)
	}

	query := `
		INSERT INTO verification_results (
			session_id, attempt, status, score, signals,
			explanations, reference_id, decided_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.SessionID),
		record.Attempt,
		string(record.Result.Status),
		record.Result.Score,
		signals,
		explanations,
		record.Result.ReferenceID,
		record.Result.DecidedAt,
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert verification result: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindBySession(ctx context.Context, sessionID domain.SessionID) (verification.Record, error) {
	query := `
		SELECT attempt, status, score, signals, explanations,
			   reference_id, decided_at, created_at
		FROM verification_results
		WHERE session_id = $1
	`

	var (
		record       verification.Record
		status       string
		signals      []byte
		explanations []byte
	)
	record.SessionID = sessionID

	err := s.db.QueryRowContext(ctx, query, uuid.UUID(sessionID)).Scan(
		&record.Attempt,
		&status,
		&record.Result.Score,
		&signals,
		&explanations,
		&record.Result.ReferenceID,
		&record.Result.DecidedAt,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return verification.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return verification.Record{}, fmt.Errorf("query verification result: %w", err)
	}

	record.Result.Status = decision.Status(status)
	if err := json.Unmarshal(signals, &record.Result.Signals); err != nil {
		return verification.Record{}, fmt.Errorf("unmarshal signals: %w", err)
	}
	if err := json.Unmarshal(explanations, &record.Result.Explanations); err != nil {
		return verification.Record{}, fmt.Errorf("unmarshal explanations: %w", err)
	}
	return record, nil
}
