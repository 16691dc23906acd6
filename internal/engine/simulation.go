// Package engine contains the customer lifecycle simulation.
// This is the heartbeat of the salon: every tick re-derives capacities and
// rates from the effect stack, then advances each customer's state machine.
package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/customer"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/service"
	"github.com/BizSimLabs/SalonTycoon/server/internal/effects"
	"github.com/BizSimLabs/SalonTycoon/server/internal/events"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/metrics"
)

// minSpawnIntervalSeconds floors the effective spawn interval so a zero or
// negative interval cannot cause unbounded spawning within one tick.
const minSpawnIntervalSeconds = 0.25

// reputationPenalty is emitted with every angry departure.
const reputationPenalty = 1.0

// Params are the fixed knobs of one simulation instance. They are business
// configuration, not metrics: the effect engine never modifies them.
type Params struct {
	TicksPerSecond float64
	SpawnX, SpawnY float64
	ExitGraceTicks int
	Services       []service.Service
	Seed           int64
}

// FinanceHook receives revenue/expense events as they are emitted so the
// owning session can apply them to cash. The simulation itself never
// touches the wallet.
type FinanceHook func(event events.GameEvent)

// Simulation owns the active customer list and the service-room occupancy.
// A room index is occupied iff some customer walking to or inside it holds
// that index; the usable slot count is re-derived from the effect stack
// every tick.
//
// Like the rest of the core it assumes a single logical thread of control;
// the session serializes Tick against the externally-triggered actions.
type Simulation struct {
	params   Params
	effects  *effects.Manager
	catalog  *metric.Catalog
	eventLog *events.EventLog
	logger   *logger.Logger
	rng      *rand.Rand

	customers  []*customer.Customer
	tickNumber int64
	month      int
	spawnAccum float64
	nextSeq    int

	onFinance FinanceHook
}

// NewSimulation creates a simulation over the given effect manager.
// It panics on an empty service list: spawning with no services configured
// is a configuration error caught at config validation, never here.
func NewSimulation(params Params, mgr *effects.Manager, catalog *metric.Catalog, eventLog *events.EventLog, log *logger.Logger) *Simulation {
	if len(params.Services) == 0 {
		panic("engine: no services configured")
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulation{
		params:   params,
		effects:  mgr,
		catalog:  catalog,
		eventLog: eventLog,
		logger:   log,
		rng:      rand.New(rand.NewSource(seed)),
		month:    1,
	}
}

// SetFinanceHook installs the session callback for revenue/expense events.
func (s *Simulation) SetFinanceHook(hook FinanceHook) {
	s.onFinance = hook
}

// SetMonth stamps subsequently emitted events with the business month.
func (s *Simulation) SetMonth(month int) {
	s.month = month
}

// TickNumber returns the number of ticks processed so far.
func (s *Simulation) TickNumber() int64 {
	return s.tickNumber
}

// Tick advances the world by one simulation step (1/ticksPerSecond seconds).
//
// Order matters: effective values are queried once, state machines advance,
// the spawn accumulator runs, and room assignment goes last so a room freed
// this tick can be reassigned within the same tick.
func (s *Simulation) Tick() {
	s.tickNumber++
	dt := 1.0 / s.params.TicksPerSecond

	s.effects.Tick(dt)

	capacity := s.EffectiveCapacity()
	speed := s.effects.CalculateBase(metric.ServiceSpeedMultiplier)
	if speed < 0 {
		speed = 0
	}
	interval := s.effects.CalculateBase(metric.SpawnIntervalSeconds)
	if interval < minSpawnIntervalSeconds {
		interval = minSpawnIntervalSeconds
	}

	s.advanceCustomers(speed)
	s.maybeSpawn(dt, interval)
	s.assignRooms(capacity)
	s.removeDeparted()
}

// EffectiveCapacity is the usable room count this tick: the effective
// ServiceCapacity rounded to nearest, floored at 1.
func (s *Simulation) EffectiveCapacity() int {
	n := int(math.Round(s.effects.CalculateBase(metric.ServiceCapacity)))
	if n < 1 {
		n = 1
	}
	return n
}

// advanceCustomers runs one state-machine step for every active customer.
func (s *Simulation) advanceCustomers(speed float64) {
	for _, c := range s.customers {
		switch c.Status {
		case customer.StatusSpawning:
			c.Status = customer.StatusWalkingToChair
			c.Facing = customer.FacingRight
			s.decayPatience(c)

		case customer.StatusWalkingToChair:
			c.Status = customer.StatusWaiting
			c.X = s.params.SpawnX + 2
			s.decayPatience(c)

		case customer.StatusWaiting:
			s.decayPatience(c)

		case customer.StatusWalkingToRoom:
			c.Status = customer.StatusInService
			c.X, c.Y = s.roomPosition(c.RoomID)

		case customer.StatusInService:
			c.ServiceTimeLeft -= speed
			if c.ServiceTimeLeft <= 0 {
				c.ServiceTimeLeft = 0
				s.finishService(c)
			}

		case customer.StatusWalkingOutHappy, customer.StatusLeavingAngry:
			c.LeavingTicks--
		}
	}
}

// decayPatience burns one tick-unit of patience and flips the customer to
// LeavingAngry when it runs out. Only roomless states decay patience, so
// the roomId invariant holds on the angry path.
func (s *Simulation) decayPatience(c *customer.Customer) {
	c.PatienceLeft--
	if c.PatienceLeft > 0 {
		return
	}
	c.PatienceLeft = 0
	c.Status = customer.StatusLeavingAngry
	c.Facing = customer.FacingLeft
	c.LeavingTicks = s.params.ExitGraceTicks

	event := events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeCustomerLost,
		ActorID:   "SYSTEM_SIM",
		TargetID:  c.ID,
		Payload: events.CustomerLostPayload{
			CustomerID:        c.ID,
			ServiceID:         c.Service.ID,
			ReputationPenalty: reputationPenalty,
		},
		Month: s.month,
	}
	s.eventLog.Append(event)
	s.emitFinance(event)
	s.logger.Event("CUSTOMER_LOST", c.ID, "ran out of patience waiting for "+c.Service.Name)
}

// finishService transitions a customer out of their room and emits the
// revenue event. The room is freed here, before assignment runs, so it can
// be reused within the same tick.
func (s *Simulation) finishService(c *customer.Customer) {
	c.Status = customer.StatusWalkingOutHappy
	c.RoomID = customer.NoRoom
	c.Facing = customer.FacingLeft
	c.LeavingTicks = s.params.ExitGraceTicks

	amount := s.effectivePrice(c.Service)
	event := events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeRevenue,
		ActorID:   "SYSTEM_SIM",
		TargetID:  c.ID,
		Payload: events.RevenuePayload{
			CustomerID: c.ID,
			ServiceID:  c.Service.ID,
			Amount:     amount,
		},
		Month: s.month,
	}
	s.eventLog.Append(event)
	s.emitFinance(event)
	s.logger.Event("REVENUE", c.ID, fmt.Sprintf("%s paid %.2f", c.Service.Name, amount))
}

// effectivePrice folds the global and tier revenue multipliers plus the
// flat bonus onto the list price.
func (s *Simulation) effectivePrice(svc service.Service) float64 {
	price := svc.Price
	price *= s.effects.CalculateBase(metric.ServiceRevenueMultiplier)
	price *= s.effects.CalculateBase(svc.Tier.RevenueMetric())
	price += s.effects.CalculateBase(metric.ServiceRevenueFlatBonus)
	if price < 0 {
		price = 0
	}
	return price
}

// maybeSpawn advances the arrival accumulator and spawns at most one
// customer per tick, carrying any remainder. A very large elapsed-time jump
// therefore drains one spawn per tick instead of batching.
func (s *Simulation) maybeSpawn(dt, interval float64) {
	s.spawnAccum += dt
	if s.spawnAccum < interval {
		return
	}
	s.spawnAccum -= interval
	s.Spawn()
}

// Spawn creates one customer immediately at the configured spawn position.
// Exposed as a mutator so externally-triggered actions (tutorials, debug
// tools) can force an arrival.
func (s *Simulation) Spawn() *customer.Customer {
	svc := s.pickService()
	patienceTicks := s.effects.CalculateBase(metric.CustomerPatienceSeconds) * s.params.TicksPerSecond
	serviceTicks := svc.DurationSeconds * s.params.TicksPerSecond

	s.nextSeq++
	c := customer.New(
		fmt.Sprintf("C%05d", s.nextSeq),
		svc,
		s.params.SpawnX, s.params.SpawnY,
		patienceTicks, serviceTicks,
	)
	s.customers = append(s.customers, c)
	metrics.Get().RecordSpawn()

	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeCustomerSpawned,
		ActorID:   "SYSTEM_SIM",
		TargetID:  c.ID,
		Payload:   map[string]interface{}{"service_id": svc.ID},
		Month:     s.month,
	})
	return c
}

// pickService draws a service with probability proportional to
// weightage * tier weight multiplier. When every weight is zero the draw
// falls back to uniform selection rather than dividing by zero.
func (s *Simulation) pickService() service.Service {
	weights := make([]float64, len(s.params.Services))
	total := 0.0
	for i, svc := range s.params.Services {
		w := svc.Weightage * s.effects.CalculateBase(svc.Tier.WeightMetric())
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}

	if total <= 0 {
		return s.params.Services[s.rng.Intn(len(s.params.Services))]
	}

	r := s.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return s.params.Services[i]
		}
	}
	return s.params.Services[len(s.params.Services)-1]
}

// assignRooms matches waiting customers to free room indices below the
// current effective capacity. The proportionally most impatient customer is
// served first, which minimizes angry departures under contention.
//
// When capacity shrinks below current occupancy, in-progress services are
// NOT interrupted: the unavailable indices simply stop being offered until
// occupancy drops naturally. This is a contract, not an accident — a
// capacity-reducing event must never punish a service already underway.
func (s *Simulation) assignRooms(capacity int) {
	occupied := make(map[int]bool)
	var waiting []*customer.Customer
	for _, c := range s.customers {
		switch c.Status {
		case customer.StatusWalkingToRoom, customer.StatusInService:
			occupied[c.RoomID] = true
		case customer.StatusWaiting:
			waiting = append(waiting, c)
		}
	}
	if len(waiting) == 0 {
		return
	}

	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].Impatience() > waiting[j].Impatience()
	})

	next := 0
	for r := 0; r < capacity && next < len(waiting); r++ {
		if occupied[r] {
			continue
		}
		c := waiting[next]
		next++
		c.Status = customer.StatusWalkingToRoom
		c.RoomID = r
		c.Facing = customer.FacingUp

		s.eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeServiceStarted,
			ActorID:   "SYSTEM_SIM",
			TargetID:  c.ID,
			Payload:   map[string]interface{}{"service_id": c.Service.ID, "room": r},
			Month:     s.month,
		})
	}
}

// removeDeparted drops customers whose exit grace period has elapsed.
func (s *Simulation) removeDeparted() {
	kept := s.customers[:0]
	for _, c := range s.customers {
		if c.IsTerminal() && c.LeavingTicks <= 0 {
			continue
		}
		kept = append(kept, c)
	}
	s.customers = kept
}

func (s *Simulation) emitFinance(event events.GameEvent) {
	if s.onFinance != nil {
		s.onFinance(event)
	}
}

// roomPosition maps a room index onto the floor grid for the render feed.
func (s *Simulation) roomPosition(room int) (float64, float64) {
	return float64(8 + (room%4)*3), float64(2 + (room/4)*3)
}

// Snapshot returns value copies of the active customers. External callers
// never receive aliases of the mutable entities; the render feed and tests
// work off copies that are stale by the next tick.
func (s *Simulation) Snapshot() []customer.Customer {
	out := make([]customer.Customer, len(s.customers))
	for i, c := range s.customers {
		out[i] = *c
	}
	return out
}

// ActiveCount returns the number of customers currently in the salon.
func (s *Simulation) ActiveCount() int {
	return len(s.customers)
}
