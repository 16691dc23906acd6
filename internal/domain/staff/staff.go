// Package staff defines the domain entities for hired employees.
// This package is PURE and must NOT import any infrastructure packages.
package staff

import "github.com/BizSimLabs/SalonTycoon/server/internal/effects"

// Status identifies what a staff member is currently doing. The simulation
// only distinguishes working from idle; richer schedules live in the
// presentation layer.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusWorking Status = "WORKING"
)

// Member is one hired employee. Effects holds the unapplied templates from
// the role definition; on hire they are instantiated into engine entries
// sourced to {category:"staff", id}, and on fire they are removed by source
// so they co-terminate with the member.
type Member struct {
	ID       string           `json:"id"`
	RoleID   string           `json:"role_id"`
	Name     string           `json:"name"`
	Salary   float64          `json:"salary"`
	Effects  []effects.Effect `json:"effects"`
	Status   Status           `json:"status"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
}

// EffectSource is the source stamped on every effect this member contributes.
func (m *Member) EffectSource() effects.Source {
	return effects.Source{Category: "staff", ID: m.ID, Name: m.Name}
}
