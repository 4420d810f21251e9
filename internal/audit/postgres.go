package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore appends audit events to an insert-only table. Details are
// stored as jsonb.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	query := `
		INSERT INTO audit_events (id, action, actor, subject, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID.String(), string(event.Action), event.Actor, event.Subject,
		details, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	query := `
		SELECT id, action, actor, subject, details, occurred_at
		FROM audit_events WHERE subject = $1 ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event      Event
			rawID      string
			rawAction  string
			rawDetails []byte
		)
		if err := rows.Scan(&rawID, &rawAction, &event.Actor, &event.Subject, &rawDetails, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse audit event id: %w", err)
		}
		event.ID = parsed
		event.Action = Action(rawAction)
		if len(rawDetails) > 0 {
			if err := json.Unmarshal(rawDetails, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
