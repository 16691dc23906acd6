// Package storage - postgres.go
// PostgreSQL implementation of LedgerRepository for deployments that keep
// outcome history in a shared database instead of a local file.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver via database/sql
)

// InitPostgres connects to the shared outcome database and ensures the
// ledger schema exists. The configuration store stays local to SQLite;
// only the ledger moves to Postgres.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS ledger_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		event_type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		payload JSONB NOT NULL,
		month INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_session ON ledger_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_month ON ledger_events(session_id, month);
	CREATE INDEX IF NOT EXISTS idx_ledger_type ON ledger_events(session_id, event_type);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return db, nil
}

// PostgresLedgerRepository implements LedgerRepository using PostgreSQL.
type PostgresLedgerRepository struct {
	db *sql.DB
}

// NewPostgresLedgerRepository creates a new PostgreSQL ledger repository.
func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresLedgerRepository) Append(ctx context.Context, event LedgerEvent) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO ledger_events (id, session_id, timestamp, event_type, actor_id, target_id, payload, month)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, event.ActorID,
		event.TargetID, payloadJSON, event.Month,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger event: %w", err)
	}
	return nil
}

func (r *PostgresLedgerRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []LedgerEvent
	for rows.Next() {
		var e LedgerEvent
		var payloadRaw []byte
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payloadRaw, &e.Month,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadRaw, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetBySessionID retrieves all events of one play session.
func (r *PostgresLedgerRepository) GetBySessionID(ctx context.Context, sessionID string) ([]LedgerEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, month FROM ledger_events WHERE session_id = $1 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

// GetByMonth retrieves all events from a specific business month.
func (r *PostgresLedgerRepository) GetByMonth(ctx context.Context, sessionID string, month int) ([]LedgerEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, month FROM ledger_events WHERE session_id = $1 AND month = $2 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, month)
}

// GetByEventType retrieves all events of a specific type.
func (r *PostgresLedgerRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]LedgerEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, month FROM ledger_events WHERE session_id = $1 AND event_type = $2 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

// ListSessionIDs returns every session that has ledger entries.
func (r *PostgresLedgerRepository) ListSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM ledger_events ORDER BY session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
