package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDriver is a minimal database/sql driver that records every
// statement instead of talking to a server. It lets the Postgres ledger
// repository be exercised without a running database.
type recordingDriver struct {
	mu    sync.Mutex
	stmts []recordedStmt
}

type recordedStmt struct {
	query string
	args  int
}

func (d *recordingDriver) record(query string, args int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stmts = append(d.stmts, recordedStmt{query: query, args: args})
}

func (d *recordingDriver) last() recordedStmt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stmts[len(d.stmts)-1]
}

func (d *recordingDriver) Open(name string) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{d: c.d, query: query}, nil
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, driver.ErrSkip }

type recordingStmt struct {
	d     *recordingDriver
	query string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }

func (s *recordingStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.d.record(s.query, len(args))
	return driver.RowsAffected(1), nil
}

func (s *recordingStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.d.record(s.query, len(args))
	return emptyRows{}, nil
}

type emptyRows struct{}

func (emptyRows) Columns() []string              { return nil }
func (emptyRows) Close() error                   { return nil }
func (emptyRows) Next(dest []driver.Value) error { return io.EOF }

var (
	pgTestDriver   = &recordingDriver{}
	pgRegisterOnce sync.Once
)

func newRecordingDB(t *testing.T) (*sql.DB, *recordingDriver) {
	t.Helper()
	pgRegisterOnce.Do(func() {
		sql.Register("recordingpg", pgTestDriver)
	})
	db, err := sql.Open("recordingpg", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, pgTestDriver
}

func TestPostgresAppendBindsAllColumns(t *testing.T) {
	db, drv := newRecordingDB(t)
	repo := NewPostgresLedgerRepository(db)

	err := repo.Append(context.Background(), LedgerEvent{
		ID:        "evt-1",
		SessionID: "s1",
		Timestamp: time.Now(),
		EventType: "REVENUE",
		ActorID:   "SYSTEM_SIM",
		TargetID:  "C00001",
		Payload:   map[string]interface{}{"amount": 12.5},
		Month:     1,
	})
	require.NoError(t, err)

	stmt := drv.last()
	assert.Contains(t, stmt.query, "INSERT INTO ledger_events")
	assert.Contains(t, stmt.query, "$8")
	assert.Equal(t, 8, stmt.args, "every ledger column should be bound")
}

func TestPostgresReadsUsePositionalParams(t *testing.T) {
	db, drv := newRecordingDB(t)
	repo := NewPostgresLedgerRepository(db)
	ctx := context.Background()

	got, err := repo.GetBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, drv.last().args)
	assert.Contains(t, drv.last().query, "session_id = $1")

	_, err = repo.GetByMonth(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, drv.last().args)
	assert.Contains(t, drv.last().query, "month = $2")

	_, err = repo.GetByEventType(ctx, "s1", "REVENUE")
	require.NoError(t, err)
	assert.Equal(t, 2, drv.last().args)
	assert.Contains(t, drv.last().query, "event_type = $2")

	ids, err := repo.ListSessionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.True(t, strings.Contains(drv.last().query, "DISTINCT session_id"))
}
