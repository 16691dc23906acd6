// Package effects implements the effect composition engine: the stack of
// modifiers contributed by staff, upgrades, campaigns and level rewards, and
// the deterministic fold that resolves them into effective metric values.
package effects

import (
	"fmt"
	"math"

	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
)

// Type defines how an effect's value is applied during the fold.
type Type string

const (
	TypeAdd      Type = "ADD"      // base + value
	TypePercent  Type = "PERCENT"  // * (1 + value/100)
	TypeMultiply Type = "MULTIPLY" // * value
	TypeSet      Type = "SET"      // override, last-added wins
)

// Source identifies the originating entity that owns a group of effects,
// so all of them can be removed atomically when that entity goes away.
type Source struct {
	Category string `json:"category"` // "staff", "upgrade", "campaign", "level"
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// Effect is a single stacking modifier toward one metric.
//
// DurationSeconds and DurationMonths are two independent expiry clocks:
// seconds are consumed by Manager.Tick, months by Manager.AdvanceMonth.
// A zero value means the clock is absent; an effect with neither clock is
// permanent until removed by source.
type Effect struct {
	ID              string    `json:"id"`
	Source          Source    `json:"source"`
	Metric          metric.ID `json:"metric"`
	Type            Type      `json:"type"`
	Value           float64   `json:"value"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	DurationMonths  int       `json:"duration_months,omitempty"`
}

// Validate rejects malformed effects at the boundary where external data
// enters the engine. The engine itself never re-checks these invariants.
func (e Effect) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("effect is missing an id")
	}
	if e.Metric == "" {
		return fmt.Errorf("effect %s is missing a metric", e.ID)
	}
	switch e.Type {
	case TypeAdd, TypePercent, TypeMultiply, TypeSet:
	default:
		return fmt.Errorf("effect %s has unknown type %q", e.ID, e.Type)
	}
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Errorf("effect %s has non-finite value", e.ID)
	}
	if e.DurationSeconds < 0 {
		return fmt.Errorf("effect %s has negative duration", e.ID)
	}
	if e.DurationMonths < 0 {
		return fmt.Errorf("effect %s has negative month duration", e.ID)
	}
	if e.DurationSeconds > 0 && e.DurationMonths > 0 {
		return fmt.Errorf("effect %s carries both expiry clocks", e.ID)
	}
	return nil
}
