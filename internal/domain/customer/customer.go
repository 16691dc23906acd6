// Package customer defines the core domain entity for salon customers.
// This package is PURE and must NOT import any infrastructure packages.
package customer

import "github.com/BizSimLabs/SalonTycoon/server/internal/domain/service"

// Status identifies the lifecycle stage of a customer.
type Status string

const (
	StatusSpawning        Status = "SPAWNING"
	StatusWalkingToChair  Status = "WALKING_TO_CHAIR"
	StatusWaiting         Status = "WAITING"
	StatusWalkingToRoom   Status = "WALKING_TO_ROOM"
	StatusInService       Status = "IN_SERVICE"
	StatusWalkingOutHappy Status = "WALKING_OUT_HAPPY"
	StatusLeavingAngry    Status = "LEAVING_ANGRY"
)

// Direction is the facing reported to the presentation layer.
type Direction string

const (
	FacingUp    Direction = "up"
	FacingDown  Direction = "down"
	FacingLeft  Direction = "left"
	FacingRight Direction = "right"
)

// NoRoom marks a customer that holds no service room.
const NoRoom = -1

// Customer represents one visitor moving through the salon.
// RoomID is set if and only if the customer is walking to or inside a room.
type Customer struct {
	ID     string    `json:"id"`
	Status Status    `json:"status"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Facing Direction `json:"facing"`

	Service service.Service `json:"service"`

	// Countdowns in tick units.
	ServiceTimeLeft float64 `json:"service_time_left"`
	PatienceLeft    float64 `json:"patience_left"`
	MaxPatience     float64 `json:"max_patience"`
	LeavingTicks    int     `json:"leaving_ticks"`

	RoomID int `json:"room_id"`
}

// New creates a freshly spawned customer at the given position.
func New(id string, svc service.Service, x, y, maxPatienceTicks, serviceTicks float64) *Customer {
	return &Customer{
		ID:              id,
		Status:          StatusSpawning,
		X:               x,
		Y:               y,
		Facing:          FacingDown,
		Service:         svc,
		ServiceTimeLeft: serviceTicks,
		PatienceLeft:    maxPatienceTicks,
		MaxPatience:     maxPatienceTicks,
		RoomID:          NoRoom,
	}
}

// HasRoom reports whether the customer currently holds a room index.
func (c *Customer) HasRoom() bool {
	return c.RoomID != NoRoom
}

// IsTerminal reports whether the customer has reached an exit state.
func (c *Customer) IsTerminal() bool {
	return c.Status == StatusWalkingOutHappy || c.Status == StatusLeavingAngry
}

// Impatience is the proportional impatience used for assignment priority.
// 0 means freshly arrived, values approaching 1 mean about to leave angry.
func (c *Customer) Impatience() float64 {
	if c.MaxPatience <= 0 {
		return 1
	}
	return 1 - c.PatienceLeft/c.MaxPatience
}
