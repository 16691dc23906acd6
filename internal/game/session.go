// Package game wires one play session together: an effect manager, a
// customer simulation, a wallet, and the named actions the presentation
// layer is allowed to call. Each session is fully self-contained; nothing
// here is a package-level singleton, so independent sessions (and tests)
// never contaminate each other.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BizSimLabs/SalonTycoon/server/internal/config"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/customer"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/rules"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/staff"
	"github.com/BizSimLabs/SalonTycoon/server/internal/effects"
	"github.com/BizSimLabs/SalonTycoon/server/internal/engine"
	"github.com/BizSimLabs/SalonTycoon/server/internal/events"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/metrics"
)

// Experience granted per served customer, before the experience multiplier.
const xpPerServedCustomer = 10.0

// ErrInsufficientFunds is returned when an action costs more than the
// session's cash on hand.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

// ErrLocked is returned when an action's requirements are not met.
var ErrLocked = fmt.Errorf("requirements not met")

type campaignState struct {
	def        config.Campaign
	instanceID string
	monthsLeft int
}

// Session owns all mutable state of one play session. The simulation and
// the effect manager assume a single logical thread of control; the
// session's mutex provides it, serializing ticker callbacks against
// player actions arriving from the network layer.
type Session struct {
	mu sync.Mutex

	cfg      *config.GameConfig
	catalog  *metric.Catalog
	effects  *effects.Manager
	sim      *engine.Simulation
	eventLog *events.EventLog
	logger   *logger.Logger

	cash  float64
	level int
	xp    float64
	month int

	staffMembers    map[string]*staff.Member
	upgradeLevels   map[string]int // upgrade id -> highest purchased level (1-based)
	activeCampaigns map[string]*campaignState
	flags           map[string]bool

	monthRevenue  float64
	monthExpenses float64
	monthServed   int
	monthLost     int

	effectsDirty bool
}

// NewSession bootstraps a session from configuration.
func NewSession(cfg *config.GameConfig, log *logger.Logger, persister events.EventPersister) *Session {
	catalog := metric.NewCatalog(cfg.MetricOverrides)
	mgr := effects.NewManager(catalog)
	eventLog := events.NewEventLog(persister)

	sim := engine.NewSimulation(engine.Params{
		TicksPerSecond: cfg.Stats.TicksPerSecond,
		SpawnX:         cfg.Stats.SpawnX,
		SpawnY:         cfg.Stats.SpawnY,
		ExitGraceTicks: cfg.Stats.ExitGraceTicks,
		Services:       cfg.Industry.Services,
	}, mgr, catalog, eventLog, log)

	s := &Session{
		cfg:             cfg,
		catalog:         catalog,
		effects:         mgr,
		sim:             sim,
		eventLog:        eventLog,
		logger:          log,
		cash:            cfg.Stats.StartingCash,
		level:           1,
		month:           1,
		staffMembers:    make(map[string]*staff.Member),
		upgradeLevels:   make(map[string]int),
		activeCampaigns: make(map[string]*campaignState),
		flags:           make(map[string]bool),
	}

	sim.SetFinanceHook(s.applyFinance)
	mgr.Subscribe(func() { s.effectsDirty = true })
	return s
}

// Tick advances the session by one simulation step. Implements
// engine.Tickable for the real-time ticker.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sim.Tick()
	if s.effectsDirty {
		s.effectsDirty = false
		s.reconcileCampaigns()
	}
}

// applyFinance consumes revenue/expense events emitted by the simulation.
// Cash is only ever mutated here and in the action methods; the simulation
// never touches the wallet directly.
func (s *Session) applyFinance(event events.GameEvent) {
	switch p := event.Payload.(type) {
	case events.RevenuePayload:
		s.cash += p.Amount
		s.monthRevenue += p.Amount
		s.monthServed++
		s.gainExperience(xpPerServedCustomer)
		metrics.Get().RecordServed(p.Amount)
	case events.CustomerLostPayload:
		s.monthLost++
		metrics.Get().RecordLost()
	case events.ExpensePayload:
		s.cash -= p.Amount
		s.monthExpenses += p.Amount
		metrics.Get().RecordExpense(p.Amount)
	}
}

func (s *Session) gainExperience(base float64) {
	s.xp += base * s.effects.CalculateBase(metric.ExperienceMultiplier)
	for s.xp >= s.xpForNextLevel() {
		s.xp -= s.xpForNextLevel()
		s.level++
		s.grantLevelRewards(s.level)
		s.eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeLevelUp,
			ActorID:   "SYSTEM_SESSION",
			Payload:   map[string]interface{}{"level": s.level},
			Month:     s.month,
		})
		s.logger.Event("LEVEL_UP", "SESSION", fmt.Sprintf("reached level %d", s.level))
	}
}

func (s *Session) xpForNextLevel() float64 {
	return float64(s.level) * 100
}

func (s *Session) grantLevelRewards(level int) {
	for _, reward := range s.cfg.LevelRewards {
		if reward.Level != level {
			continue
		}
		source := effects.Source{Category: "level", ID: fmt.Sprintf("level_%d", level), Name: fmt.Sprintf("Level %d Reward", level)}
		for _, tmpl := range reward.Effects {
			if err := s.effects.Add(tmpl.Instantiate(source)); err != nil {
				s.logger.Error("level reward effect rejected: " + err.Error())
			}
		}
	}
}

// stateFor builds the read-only view requirements are evaluated against.
func (s *Session) stateFor(reqs []rules.Requirement) rules.State {
	st := rules.State{
		Level:         s.level,
		Flags:         s.flags,
		Metrics:       map[metric.ID]float64{metric.Cash: s.cash},
		UpgradeLevels: s.upgradeLevels,
		StaffCounts:   make(map[string]int),
	}
	for _, m := range s.staffMembers {
		st.StaffCounts[m.RoleID]++
	}
	for _, r := range reqs {
		if r.Kind == rules.KindMetricMin && r.Metric != metric.Cash {
			st.Metrics[r.Metric] = s.effects.CalculateBase(r.Metric)
		}
	}
	return st
}

func (s *Session) emitExpense(reason string, amount float64) {
	event := events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeExpense,
		ActorID:   "SYSTEM_SESSION",
		Payload:   events.ExpensePayload{Reason: reason, Amount: amount},
		Month:     s.month,
	}
	s.eventLog.Append(event)
	s.applyFinance(event)
}

// HireStaff hires one member of the given role, instantiating the role's
// effect templates under a fresh staff source. Returns the new member's id.
func (s *Session) HireStaff(roleID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.cfg.StaffRole(roleID)
	if !ok {
		return "", fmt.Errorf("unknown staff role %q", roleID)
	}
	if avail := rules.Evaluate(role.Requirements, s.stateFor(role.Requirements)); avail != rules.Available {
		return "", fmt.Errorf("%w: role %s is %s", ErrLocked, roleID, avail)
	}
	if s.cash < role.HiringCost {
		return "", fmt.Errorf("%w: hiring %s costs %.2f", ErrInsufficientFunds, role.Name, role.HiringCost)
	}

	member := &staff.Member{
		ID:     uuid.NewString(),
		RoleID: role.ID,
		Name:   role.Name,
		Salary: role.Salary,
		Status: staff.StatusIdle,
	}
	source := member.EffectSource()
	for _, tmpl := range role.Effects {
		eff := tmpl.Instantiate(source)
		member.Effects = append(member.Effects, eff)
		if err := s.effects.Add(eff); err != nil {
			s.effects.RemoveBySource(source.Category, source.ID)
			return "", fmt.Errorf("role %s has invalid effect: %w", roleID, err)
		}
	}
	s.staffMembers[member.ID] = member
	s.emitExpense("hiring:"+role.ID, role.HiringCost)

	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeStaffHired,
		ActorID:   "SYSTEM_SESSION",
		TargetID:  member.ID,
		Payload:   map[string]interface{}{"role_id": role.ID, "salary": role.Salary},
		Month:     s.month,
	})
	s.logger.Event("STAFF_HIRED", member.ID, role.Name)
	return member.ID, nil
}

// FireStaff removes a member: every effect sourced to them is removed
// atomically and a severance expense is charged.
func (s *Session) FireStaff(staffID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.staffMembers[staffID]
	if !ok {
		return fmt.Errorf("unknown staff member %q", staffID)
	}
	s.effects.RemoveBySource("staff", staffID)
	delete(s.staffMembers, staffID)

	severance := member.Salary * s.cfg.Stats.SeveranceRatio
	if severance > 0 {
		s.emitExpense("severance:"+member.RoleID, severance)
	}

	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeStaffFired,
		ActorID:   "SYSTEM_SESSION",
		TargetID:  staffID,
		Payload:   map[string]interface{}{"role_id": member.RoleID, "severance": severance},
		Month:     s.month,
	})
	s.logger.Event("STAFF_FIRED", staffID, member.Name)
	return nil
}

// PurchaseUpgrade buys the next level of an upgrade. Effect ids are
// deterministic per (source, key), so the new level's contribution replaces
// the previous one instead of stacking.
func (s *Session) PurchaseUpgrade(upgradeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.cfg.Upgrade(upgradeID)
	if !ok {
		return 0, fmt.Errorf("unknown upgrade %q", upgradeID)
	}
	if avail := rules.Evaluate(up.Requirements, s.stateFor(up.Requirements)); avail != rules.Available {
		return 0, fmt.Errorf("%w: upgrade %s is %s", ErrLocked, upgradeID, avail)
	}

	current := s.upgradeLevels[upgradeID]
	if current >= len(up.Levels) {
		return current, fmt.Errorf("upgrade %q is already at max level", upgradeID)
	}
	next := up.Levels[current]
	if s.cash < next.Cost {
		return current, fmt.Errorf("%w: %s level %d costs %.2f", ErrInsufficientFunds, up.Name, current+1, next.Cost)
	}

	source := effects.Source{Category: "upgrade", ID: up.ID, Name: up.Name}
	for _, tmpl := range next.Effects {
		if err := s.effects.Add(tmpl.Instantiate(source)); err != nil {
			return current, fmt.Errorf("upgrade %s has invalid effect: %w", upgradeID, err)
		}
	}
	s.upgradeLevels[upgradeID] = current + 1
	s.emitExpense("upgrade:"+up.ID, next.Cost)

	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeUpgradePurchased,
		ActorID:   "SYSTEM_SESSION",
		TargetID:  up.ID,
		Payload:   map[string]interface{}{"level": current + 1, "cost": next.Cost},
		Month:     s.month,
	})
	s.logger.Event("UPGRADE_PURCHASED", up.ID, fmt.Sprintf("level %d", current+1))
	return current + 1, nil
}

// LaunchCampaign starts a marketing campaign. Its effects expire on their
// own clock (elapsed seconds or month boundaries); EndCampaign cuts the
// window short.
func (s *Session) LaunchCampaign(campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	camp, ok := s.cfg.Campaign(campaignID)
	if !ok {
		return fmt.Errorf("unknown campaign %q", campaignID)
	}
	if _, running := s.activeCampaigns[campaignID]; running {
		return fmt.Errorf("campaign %q is already running", campaignID)
	}
	if avail := rules.Evaluate(camp.Requirements, s.stateFor(camp.Requirements)); avail != rules.Available {
		return fmt.Errorf("%w: campaign %s is %s", ErrLocked, campaignID, avail)
	}
	if s.cash < camp.Cost {
		return fmt.Errorf("%w: %s costs %.2f", ErrInsufficientFunds, camp.Name, camp.Cost)
	}

	instanceID := camp.ID + ":" + uuid.NewString()
	source := effects.Source{Category: "campaign", ID: instanceID, Name: camp.Name}
	for _, tmpl := range camp.Effects {
		t := tmpl
		t.DurationSeconds = camp.DurationSeconds
		t.DurationMonths = camp.DurationMonths
		if err := s.effects.Add(t.Instantiate(source)); err != nil {
			s.effects.RemoveBySource(source.Category, source.ID)
			return fmt.Errorf("campaign %s has invalid effect: %w", campaignID, err)
		}
	}
	s.activeCampaigns[campaignID] = &campaignState{
		def:        camp,
		instanceID: instanceID,
		monthsLeft: camp.DurationMonths,
	}
	s.emitExpense("campaign:"+camp.ID, camp.Cost)

	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeCampaignLaunched,
		ActorID:   "SYSTEM_SESSION",
		TargetID:  camp.ID,
		Payload:   map[string]interface{}{"cost": camp.Cost},
		Month:     s.month,
	})
	s.logger.Event("CAMPAIGN_LAUNCHED", camp.ID, camp.Name)
	return nil
}

// EndCampaign cancels a running campaign immediately, removing every effect
// of its window by source.
func (s *Session) EndCampaign(campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.activeCampaigns[campaignID]
	if !ok {
		return fmt.Errorf("campaign %q is not running", campaignID)
	}
	s.effects.RemoveBySource("campaign", st.instanceID)
	s.endCampaignLocked(campaignID, st)
	return nil
}

func (s *Session) endCampaignLocked(campaignID string, st *campaignState) {
	delete(s.activeCampaigns, campaignID)
	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeCampaignEnded,
		ActorID:   "SYSTEM_SESSION",
		TargetID:  campaignID,
		Month:     s.month,
	})
	s.logger.Event("CAMPAIGN_ENDED", campaignID, st.def.Name)
}

// reconcileCampaigns retires second-boxed campaigns whose effects have all
// expired. Called after effect-set change notifications, never by polling.
func (s *Session) reconcileCampaigns() {
	alive := make(map[string]bool)
	for _, eff := range s.effects.Snapshot() {
		if eff.Source.Category == "campaign" {
			alive[eff.Source.ID] = true
		}
	}
	for id, st := range s.activeCampaigns {
		if st.def.DurationSeconds > 0 && !alive[st.instanceID] {
			s.endCampaignLocked(id, st)
		}
	}
}

// AdvanceMonth closes the business month: salaries are charged, the month
// expiry clock advances, month-boxed campaigns wind down, and a summary
// event is emitted for the outcome ledger.
func (s *Session) AdvanceMonth() events.MonthSummaryPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, member := range s.staffMembers {
		s.emitExpense("salary:"+member.RoleID, member.Salary)
	}

	s.effects.AdvanceMonth()
	for id, st := range s.activeCampaigns {
		if st.def.DurationMonths > 0 {
			st.monthsLeft--
			if st.monthsLeft <= 0 {
				s.endCampaignLocked(id, st)
			}
		}
	}

	summary := events.MonthSummaryPayload{
		Month:    s.month,
		Revenue:  s.monthRevenue,
		Expenses: s.monthExpenses,
		Net:      s.monthRevenue - s.monthExpenses,
		Served:   s.monthServed,
		Lost:     s.monthLost,
	}
	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeMonthSummary,
		ActorID:   "SYSTEM_SESSION",
		Payload:   summary,
		Month:     s.month,
	})
	s.logger.Event("MONTH_SUMMARY", "SESSION",
		fmt.Sprintf("month %d net %.2f (served %d, lost %d)", s.month, summary.Net, summary.Served, summary.Lost))

	s.month++
	s.sim.SetMonth(s.month)
	s.monthRevenue = 0
	s.monthExpenses = 0
	s.monthServed = 0
	s.monthLost = 0
	return summary
}

// SetFlag records a named game-state flag for requirement evaluation.
func (s *Session) SetFlag(name string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = value
}

// Availability evaluates the requirement list of a role, upgrade or
// campaign for UI button/visibility state.
func (s *Session) Availability(reqs []rules.Requirement) rules.Availability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.Evaluate(reqs, s.stateFor(reqs))
}

// HUDSnapshot is what the presentation layer reads every render frame.
type HUDSnapshot struct {
	Cash          float64             `json:"cash"`
	Level         int                 `json:"level"`
	XP            float64             `json:"xp"`
	Month         int                 `json:"month"`
	Tick          int64               `json:"tick"`
	Capacity      int                 `json:"capacity"`
	ActiveEffects int                 `json:"active_effects"`
	StaffCount    int                 `json:"staff_count"`
	Customers     []customer.Customer `json:"customers"`
}

// Snapshot returns a value copy of everything the HUD needs. Derived values
// are stale by the next tick; callers must re-query, never cache across
// ticks.
func (s *Session) Snapshot() HUDSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return HUDSnapshot{
		Cash:          s.cash,
		Level:         s.level,
		XP:            s.xp,
		Month:         s.month,
		Tick:          s.sim.TickNumber(),
		Capacity:      s.sim.EffectiveCapacity(),
		ActiveEffects: s.effects.ActiveCount(),
		StaffCount:    len(s.staffMembers),
		Customers:     s.sim.Snapshot(),
	}
}

// Cash returns the current wallet balance.
func (s *Session) Cash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// EventLog exposes the session's event stream for the replay feed.
func (s *Session) EventLog() *events.EventLog {
	return s.eventLog
}

// Effects exposes the effect manager for HUD adapters. Mutation must go
// through the named actions above.
func (s *Session) Effects() *effects.Manager {
	return s.effects
}

// Config exposes the static configuration for UI listings.
func (s *Session) Config() *config.GameConfig {
	return s.cfg
}
