// Package storage - reconstructor.go
// Financial history = f(ledger events). The core never persists its runtime
// state; month reports and the leaderboard are rebuilt from the outcome
// ledger whenever they are read.
package storage

import (
	"context"
	"fmt"
	"sort"
)

// Reporter rebuilds financial history from the outcome ledger. Used for:
// 1. The end-of-month recap screen
// 2. The leaderboard of past sessions
// 3. Auditing and balance tuning
type Reporter struct {
	ledger LedgerRepository
}

// NewReporter creates a new financial reporter.
func NewReporter(ledger LedgerRepository) *Reporter {
	return &Reporter{ledger: ledger}
}

// MonthlyReport is the rebuilt financial summary of one business month.
type MonthlyReport struct {
	Month    int     `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Served   int     `json:"served"`
	Lost     int     `json:"lost"`
}

// SessionOutcome aggregates one whole session for the leaderboard.
type SessionOutcome struct {
	SessionID string  `json:"session_id"`
	Months    int     `json:"months"`
	Revenue   float64 `json:"revenue"`
	Net       float64 `json:"net"`
	Served    int     `json:"served"`
	Lost      int     `json:"lost"`
}

func amountOf(payload map[string]interface{}, key string) float64 {
	if v, ok := payload[key].(float64); ok {
		return v
	}
	return 0
}

// MonthlyReports folds a session's ledger into per-month summaries,
// ordered by month.
func (r *Reporter) MonthlyReports(ctx context.Context, sessionID string) ([]MonthlyReport, error) {
	events, err := r.ledger.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for session: %w", err)
	}

	byMonth := make(map[int]*MonthlyReport)
	report := func(month int) *MonthlyReport {
		if rep, ok := byMonth[month]; ok {
			return rep
		}
		rep := &MonthlyReport{Month: month}
		byMonth[month] = rep
		return rep
	}

	for _, e := range events {
		rep := report(e.Month)
		switch e.EventType {
		case "REVENUE":
			rep.Revenue += amountOf(e.Payload, "amount")
			rep.Served++
		case "EXPENSE":
			rep.Expenses += amountOf(e.Payload, "amount")
		case "CUSTOMER_LOST":
			rep.Lost++
		}
	}

	out := make([]MonthlyReport, 0, len(byMonth))
	for _, rep := range byMonth {
		rep.Net = rep.Revenue - rep.Expenses
		out = append(out, *rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// Outcome aggregates one session's full history.
func (r *Reporter) Outcome(ctx context.Context, sessionID string) (*SessionOutcome, error) {
	reports, err := r.MonthlyReports(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	outcome := &SessionOutcome{SessionID: sessionID, Months: len(reports)}
	for _, rep := range reports {
		outcome.Revenue += rep.Revenue
		outcome.Net += rep.Net
		outcome.Served += rep.Served
		outcome.Lost += rep.Lost
	}
	return outcome, nil
}

// Leaderboard returns every recorded session ranked by net profit.
func (r *Reporter) Leaderboard(ctx context.Context, limit int) ([]SessionOutcome, error) {
	ids, err := r.ledger.ListSessionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	outcomes := make([]SessionOutcome, 0, len(ids))
	for _, id := range ids {
		outcome, err := r.Outcome(ctx, id)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, *outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Net > outcomes[j].Net })
	if limit > 0 && len(outcomes) > limit {
		outcomes = outcomes[:limit]
	}
	return outcomes, nil
}
