// Package events provides the append-only log of business events.
// Revenue and expenses are emitted here, never applied to cash directly;
// the session and the outcome ledger both consume the same stream.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeCustomerSpawned  EventType = "CUSTOMER_SPAWNED"
	EventTypeServiceStarted   EventType = "SERVICE_STARTED"
	EventTypeRevenue          EventType = "REVENUE"
	EventTypeCustomerLost     EventType = "CUSTOMER_LOST"
	EventTypeExpense          EventType = "EXPENSE"
	EventTypeStaffHired       EventType = "STAFF_HIRED"
	EventTypeStaffFired       EventType = "STAFF_FIRED"
	EventTypeUpgradePurchased EventType = "UPGRADE_PURCHASED"
	EventTypeCampaignLaunched EventType = "CAMPAIGN_LAUNCHED"
	EventTypeCampaignEnded    EventType = "CAMPAIGN_ENDED"
	EventTypeLevelUp          EventType = "LEVEL_UP"
	EventTypeMonthSummary     EventType = "MONTH_SUMMARY"
)

// RevenuePayload records income from a served customer.
type RevenuePayload struct {
	CustomerID string  `json:"customer_id"`
	ServiceID  string  `json:"service_id"`
	Amount     float64 `json:"amount"`
}

// CustomerLostPayload records an angry departure and its penalty.
type CustomerLostPayload struct {
	CustomerID        string  `json:"customer_id"`
	ServiceID         string  `json:"service_id"`
	ReputationPenalty float64 `json:"reputation_penalty"`
}

// ExpensePayload records money going out (salaries, severance, purchases).
type ExpensePayload struct {
	Reason string  `json:"reason"`
	Amount float64 `json:"amount"`
}

// MonthSummaryPayload closes one business month.
type MonthSummaryPayload struct {
	Month    int     `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Served   int     `json:"served"`
	Lost     int     `json:"lost"`
}

// GameEvent represents an immutable record of something that happened.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // who or what caused it
	TargetID  string      `json:"target_id"` // who was affected (optional)
	Payload   interface{} `json:"payload"`
	Month     int         `json:"month"` // business month when it happened
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events. Persistence is
// write-through to the ledger; the log itself is the session's working copy.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through to persistent storage off the tick path.
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetByMonth returns all events from one business month.
func (el *EventLog) GetByMonth(month int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Month == month {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history for recap and reporting.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
