// Package rules contains the pure calculation logic for unlock requirements.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"fmt"

	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
)

// Availability is the outcome of evaluating a requirement list.
type Availability string

const (
	Available Availability = "AVAILABLE"
	Locked    Availability = "LOCKED"
	Hidden    Availability = "HIDDEN"
)

// Kind identifies the shape of a requirement clause.
type Kind string

const (
	KindFlag         Kind = "FLAG"          // a named game-state flag is set
	KindLevelMin     Kind = "LEVEL_MIN"     // player level >= threshold
	KindMetricMin    Kind = "METRIC_MIN"    // current metric value >= threshold
	KindUpgradeOwned Kind = "UPGRADE_OWNED" // upgrade purchased to >= threshold level
	KindStaffCount   Kind = "STAFF_COUNT"   // >= threshold members of a role hired
)

// Requirement is a single clause. All clauses in a list must hold for the
// subject to be Available. HideWhenUnmet escalates an unmet clause from
// Locked to Hidden.
type Requirement struct {
	Kind          Kind      `json:"kind" yaml:"kind"`
	Key           string    `json:"key,omitempty" yaml:"key,omitempty"`
	Metric        metric.ID `json:"metric,omitempty" yaml:"metric,omitempty"`
	Threshold     float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	HideWhenUnmet bool      `json:"hide_when_unmet,omitempty" yaml:"hide_when_unmet,omitempty"`
}

// State is the read-only view of game state a requirement is checked against.
// Callers build it from the session; Evaluate never mutates it.
type State struct {
	Level         int
	Flags         map[string]bool
	Metrics       map[metric.ID]float64
	UpgradeLevels map[string]int
	StaffCounts   map[string]int
}

// Met reports whether a single clause holds.
func (r Requirement) Met(st State) bool {
	switch r.Kind {
	case KindFlag:
		return st.Flags[r.Key]
	case KindLevelMin:
		return float64(st.Level) >= r.Threshold
	case KindMetricMin:
		return st.Metrics[r.Metric] >= r.Threshold
	case KindUpgradeOwned:
		return float64(st.UpgradeLevels[r.Key]) >= r.Threshold
	case KindStaffCount:
		return float64(st.StaffCounts[r.Key]) >= r.Threshold
	default:
		// Unknown requirement kinds degrade to unmet rather than crashing;
		// a missing definition is a configuration gap, not a fatal error.
		return false
	}
}

// Describe renders a clause for tooltip text.
func (r Requirement) Describe() string {
	switch r.Kind {
	case KindFlag:
		return fmt.Sprintf("Requires %s", r.Key)
	case KindLevelMin:
		return fmt.Sprintf("Requires level %d", int(r.Threshold))
	case KindMetricMin:
		return fmt.Sprintf("Requires %s of at least %.0f", string(r.Metric), r.Threshold)
	case KindUpgradeOwned:
		return fmt.Sprintf("Requires %s at level %d", r.Key, int(r.Threshold))
	case KindStaffCount:
		return fmt.Sprintf("Requires %d hired %s", int(r.Threshold), r.Key)
	default:
		return "Unknown requirement"
	}
}

// Evaluate folds a requirement list over the state. All clauses must hold
// for Available; any unmet clause marked HideWhenUnmet yields Hidden, which
// takes precedence over Locked. No side effects.
func Evaluate(reqs []Requirement, st State) Availability {
	result := Available
	for _, r := range reqs {
		if r.Met(st) {
			continue
		}
		if r.HideWhenUnmet {
			return Hidden
		}
		result = Locked
	}
	return result
}
