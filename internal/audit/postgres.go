package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type PostgresSink struct {
	db    *pgxpool.Pool
	table string
}

// NewPostgresSink writes events into table. The table name is quoted, so it
// may come straight from configuration.
func NewPostgresSink(db *pgxpool.Pool, table string) *PostgresSink {
	return &PostgresSink{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresSink) Name() string { return "postgres" }

// EnsureTable creates the audit table if it does not exist yet.
func (s *PostgresSink) EnsureTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createTableSQL(s.table))
	if err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, event *Event) error {
	var details []byte
	if len(event.Details) > 0 {
		details = event.Details
	}

	_, err := s.db.Exec(ctx, insertSQL(s.table),
		event.ID,
		event.Timestamp,
		string(event.EventType),
		event.Actor,
		event.Action,
		event.Resource,
		event.ResourceID,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		event.Status,
		details,
		event.Sensitivity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close(context.Context) error {
	s.db.Close()
	return nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			ip_address TEXT,
			user_agent TEXT,
			request_id TEXT,
			status TEXT NOT NULL,
			details JSONB,
			sensitivity TEXT NOT NULL
		)`, table)
}

func insertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (
			id, occurred_at, event_type, actor, action, resource, resource_id,
			ip_address, user_agent, request_id, status, details, sensitivity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, table)
}
