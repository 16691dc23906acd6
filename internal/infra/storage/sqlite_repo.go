package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteLedgerRepository implements LedgerRepository for SQLite.
type SQLiteLedgerRepository struct {
	db *sql.DB
}

func NewSQLiteLedgerRepository(db *sql.DB) *SQLiteLedgerRepository {
	return &SQLiteLedgerRepository{db: db}
}

func (r *SQLiteLedgerRepository) Append(ctx context.Context, event LedgerEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO ledger_events (id, session_id, timestamp, event_type, actor_id, target_id, payload, month)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, event.ActorID,
		event.TargetID, string(payloadBytes), event.Month,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger event: %w", err)
	}
	return nil
}

func (r *SQLiteLedgerRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []LedgerEvent
	for rows.Next() {
		var e LedgerEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payloadStr, &e.Month,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteLedgerRepository) GetBySessionID(ctx context.Context, sessionID string) ([]LedgerEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, month FROM ledger_events WHERE session_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteLedgerRepository) GetByMonth(ctx context.Context, sessionID string, month int) ([]LedgerEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, month FROM ledger_events WHERE session_id = ? AND month = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, month)
}

func (r *SQLiteLedgerRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]LedgerEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload, month FROM ledger_events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

func (r *SQLiteLedgerRepository) ListSessionIDs(ctx context.Context) ([]string, error) {
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

// ---------------------------------------------------------
// SQLiteConfigRepository
// ---------------------------------------------------------

// SQLiteConfigRepository implements ConfigRepository: the external
// configuration store the admin CRUD layer edits and the core reads.
type SQLiteConfigRepository struct {
	db *sql.DB
}

func NewSQLiteConfigRepository(db *sql.DB) *SQLiteConfigRepository {
	return &SQLiteConfigRepository{db: db}
}

func (r *SQLiteConfigRepository) Upsert(ctx context.Context, def Definition) error {
	docBytes, err := json.Marshal(def.Doc)
	if err != nil {
		return fmt.Errorf("failed to marshal definition doc: %w", err)
	}

	query := `
		INSERT INTO definitions (kind, id, name, doc, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			name=excluded.name,
			doc=excluded.doc,
			last_updated=excluded.last_updated
	`
	_, err = r.db.ExecContext(ctx, query, string(def.Kind), def.ID, def.Name, string(docBytes), time.Now())
	return err
}

func (r *SQLiteConfigRepository) Get(ctx context.Context, kind DefinitionKind, id string) (*Definition, error) {
	query := `SELECT kind, id, name, doc, last_updated FROM definitions WHERE kind = ? AND id = ?`
	var def Definition
	var docStr string
	err := r.db.QueryRowContext(ctx, query, string(kind), id).Scan(
		&def.Kind, &def.ID, &def.Name, &docStr, &def.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(docStr), &def.Doc); err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *SQLiteConfigRepository) List(ctx context.Context, kind DefinitionKind) ([]Definition, error) {
	query := `SELECT kind, id, name, doc, last_updated FROM definitions WHERE kind = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var def Definition
		var docStr string
		if err := rows.Scan(&def.Kind, &def.ID, &def.Name, &docStr, &def.LastUpdated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(docStr), &def.Doc); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (r *SQLiteConfigRepository) Delete(ctx context.Context, kind DefinitionKind, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM definitions WHERE kind = ? AND id = ?`, string(kind), id)
	return err
}
