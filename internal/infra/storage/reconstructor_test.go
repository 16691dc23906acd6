package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedger is an in-memory LedgerRepository for reporter tests.
type memoryLedger struct {
	events []LedgerEvent
}

func (m *memoryLedger) Append(ctx context.Context, event LedgerEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memoryLedger) GetBySessionID(ctx context.Context, sessionID string) ([]LedgerEvent, error) {
	var out []LedgerEvent
	for _, e := range m.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryLedger) GetByMonth(ctx context.Context, sessionID string, month int) ([]LedgerEvent, error) {
	var out []LedgerEvent
	for _, e := range m.events {
		if e.SessionID == sessionID && e.Month == month {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryLedger) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]LedgerEvent, error) {
	var out []LedgerEvent
	for _, e := range m.events {
		if e.SessionID == sessionID && e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryLedger) ListSessionIDs(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range m.events {
		if !seen[e.SessionID] {
			seen[e.SessionID] = true
			out = append(out, e.SessionID)
		}
	}
	return out, nil
}

func seedLedger(t *testing.T, ledger *memoryLedger, sessionID string, month int, eventType string, amount float64) {
	t.Helper()
	err := ledger.Append(context.Background(), LedgerEvent{
		ID:        sessionID + "-" + eventType + "-" + time.Now().String(),
		SessionID: sessionID,
		Timestamp: time.Now(),
		EventType: eventType,
		Payload:   map[string]interface{}{"amount": amount},
		Month:     month,
	})
	require.NoError(t, err)
}

func TestMonthlyReportsFoldLedger(t *testing.T) {
	ledger := &memoryLedger{}
	seedLedger(t, ledger, "s1", 1, "REVENUE", 30)
	seedLedger(t, ledger, "s1", 1, "REVENUE", 20)
	seedLedger(t, ledger, "s1", 1, "EXPENSE", 10)
	seedLedger(t, ledger, "s1", 1, "CUSTOMER_LOST", 0)
	seedLedger(t, ledger, "s1", 2, "REVENUE", 100)
	// Another session's events must not bleed in.
	seedLedger(t, ledger, "s2", 1, "REVENUE", 999)

	reporter := NewReporter(ledger)
	reports, err := reporter.MonthlyReports(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, 1, reports[0].Month)
	assert.Equal(t, 50.0, reports[0].Revenue)
	assert.Equal(t, 10.0, reports[0].Expenses)
	assert.Equal(t, 40.0, reports[0].Net)
	assert.Equal(t, 2, reports[0].Served)
	assert.Equal(t, 1, reports[0].Lost)

	assert.Equal(t, 2, reports[1].Month)
	assert.Equal(t, 100.0, reports[1].Revenue)
}

func TestMonthlyReportsEmptySession(t *testing.T) {
	reporter := NewReporter(&memoryLedger{})
	reports, err := reporter.MonthlyReports(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestOutcomeAggregatesAllMonths(t *testing.T) {
	ledger := &memoryLedger{}
	seedLedger(t, ledger, "s1", 1, "REVENUE", 50)
	seedLedger(t, ledger, "s1", 2, "REVENUE", 70)
	seedLedger(t, ledger, "s1", 2, "EXPENSE", 30)

	reporter := NewReporter(ledger)
	outcome, err := reporter.Outcome(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", outcome.SessionID)
	assert.Equal(t, 2, outcome.Months)
	assert.Equal(t, 120.0, outcome.Revenue)
	assert.Equal(t, 90.0, outcome.Net)
	assert.Equal(t, 2, outcome.Served)
}

func TestLeaderboardRanksByNet(t *testing.T) {
	ledger := &memoryLedger{}
	seedLedger(t, ledger, "low", 1, "REVENUE", 10)
	seedLedger(t, ledger, "high", 1, "REVENUE", 500)
	seedLedger(t, ledger, "mid", 1, "REVENUE", 100)
	seedLedger(t, ledger, "mid", 1, "EXPENSE", 50)

	reporter := NewReporter(ledger)
	board, err := reporter.Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, "high", board[0].SessionID)
	assert.Equal(t, "mid", board[1].SessionID)
	assert.Equal(t, "low", board[2].SessionID)
}

func TestLeaderboardHonorsLimit(t *testing.T) {
	ledger := &memoryLedger{}
	seedLedger(t, ledger, "a", 1, "REVENUE", 1)
	seedLedger(t, ledger, "b", 1, "REVENUE", 2)
	seedLedger(t, ledger, "c", 1, "REVENUE", 3)

	reporter := NewReporter(ledger)
	board, err := reporter.Leaderboard(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "c", board[0].SessionID)
}
