// Package storage provides the persistence layer around the core:
// the configuration store (industries, upgrades, staff roles, campaigns)
// and the outcome ledger of emitted finance events. The core itself never
// persists its runtime state; only these boundary documents are stored.
package storage

import (
	"context"
	"time"
)

// LedgerEvent mirrors the domain event structure for persistence.
// The domain package does NOT import this; adapters translate at the edge.
type LedgerEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	Month     int                    `json:"month" db:"month"`
}

// LedgerRepository defines the interface for outcome persistence.
type LedgerRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event LedgerEvent) error

	// GetBySessionID retrieves all events of one play session.
	GetBySessionID(ctx context.Context, sessionID string) ([]LedgerEvent, error)

	// GetByMonth retrieves all events from a specific business month.
	GetByMonth(ctx context.Context, sessionID string, month int) ([]LedgerEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]LedgerEvent, error)

	// ListSessionIDs returns every session that has ledger entries.
	ListSessionIDs(ctx context.Context) ([]string, error)
}

// DefinitionKind partitions the configuration store.
type DefinitionKind string

const (
	KindIndustry  DefinitionKind = "industry"
	KindStaffRole DefinitionKind = "staff_role"
	KindUpgrade   DefinitionKind = "upgrade"
	KindCampaign  DefinitionKind = "campaign"
	KindReward    DefinitionKind = "level_reward"
)

// Definition is one configuration document, stored as JSON. The admin CRUD
// layer edits these; the core consumes them once per relevant action.
type Definition struct {
	Kind        DefinitionKind         `json:"kind" db:"kind"`
	ID          string                 `json:"id" db:"id"`
	Name        string                 `json:"name" db:"name"`
	Doc         map[string]interface{} `json:"doc" db:"doc"`
	LastUpdated time.Time              `json:"last_updated" db:"last_updated"`
}

// ConfigRepository defines CRUD over configuration documents.
type ConfigRepository interface {
	Upsert(ctx context.Context, def Definition) error
	Get(ctx context.Context, kind DefinitionKind, id string) (*Definition, error)
	List(ctx context.Context, kind DefinitionKind) ([]Definition, error)
	Delete(ctx context.Context, kind DefinitionKind, id string) error
}
