// Package metric defines the named quantities the simulation reads and the
// static catalog of their base values and display metadata.
// This package is PURE and must NOT import any infrastructure packages.
package metric

// ID identifies a single business metric.
type ID string

const (
	Cash                     ID = "CASH"
	ServiceCapacity          ID = "SERVICE_CAPACITY"
	ServiceRevenueMultiplier ID = "SERVICE_REVENUE_MULTIPLIER"
	ServiceRevenueFlatBonus  ID = "SERVICE_REVENUE_FLAT_BONUS"
	ServiceSpeedMultiplier   ID = "SERVICE_SPEED_MULTIPLIER"
	SpawnIntervalSeconds     ID = "SPAWN_INTERVAL_SECONDS"
	CustomerPatienceSeconds  ID = "CUSTOMER_PATIENCE_SECONDS"
	MonthlyExpenses          ID = "MONTHLY_EXPENSES"
	ExperienceMultiplier     ID = "EXPERIENCE_MULTIPLIER"

	// Tier-specific multipliers, one pair per pricing category.
	TierHighRevenueMultiplier ID = "TIER_HIGH_REVENUE_MULTIPLIER"
	TierMidRevenueMultiplier  ID = "TIER_MID_REVENUE_MULTIPLIER"
	TierLowRevenueMultiplier  ID = "TIER_LOW_REVENUE_MULTIPLIER"
	TierHighWeightMultiplier  ID = "TIER_HIGH_WEIGHT_MULTIPLIER"
	TierMidWeightMultiplier   ID = "TIER_MID_WEIGHT_MULTIPLIER"
	TierLowWeightMultiplier   ID = "TIER_LOW_WEIGHT_MULTIPLIER"
)

// Definition provides the default base value and display metadata for a metric.
type Definition struct {
	BaseValue float64
	Unit      string
	Label     string
}

// Defaults contains all known metrics and their shipped base values.
// Per-deployment overrides are folded in through NewCatalog at startup.
var Defaults = map[ID]Definition{
	Cash:                      {BaseValue: 0, Unit: "$", Label: "Cash"},
	ServiceCapacity:           {BaseValue: 2, Unit: "rooms", Label: "Service Rooms"},
	ServiceRevenueMultiplier:  {BaseValue: 1, Unit: "x", Label: "Revenue Multiplier"},
	ServiceRevenueFlatBonus:   {BaseValue: 0, Unit: "$", Label: "Revenue Bonus"},
	ServiceSpeedMultiplier:    {BaseValue: 1, Unit: "x", Label: "Service Speed"},
	SpawnIntervalSeconds:      {BaseValue: 8, Unit: "s", Label: "Customer Arrival Interval"},
	CustomerPatienceSeconds:   {BaseValue: 30, Unit: "s", Label: "Customer Patience"},
	MonthlyExpenses:           {BaseValue: 0, Unit: "$", Label: "Monthly Expenses"},
	ExperienceMultiplier:      {BaseValue: 1, Unit: "x", Label: "Experience Gain"},
	TierHighRevenueMultiplier: {BaseValue: 1, Unit: "x", Label: "Premium Revenue"},
	TierMidRevenueMultiplier:  {BaseValue: 1, Unit: "x", Label: "Standard Revenue"},
	TierLowRevenueMultiplier:  {BaseValue: 1, Unit: "x", Label: "Budget Revenue"},
	TierHighWeightMultiplier:  {BaseValue: 1, Unit: "x", Label: "Premium Demand"},
	TierMidWeightMultiplier:   {BaseValue: 1, Unit: "x", Label: "Standard Demand"},
	TierLowWeightMultiplier:   {BaseValue: 1, Unit: "x", Label: "Budget Demand"},
}

// Catalog is the read-only metric registry handed to the engine and the
// simulation. It is populated once at startup and never mutated afterwards.
type Catalog struct {
	defs map[ID]Definition
}

// NewCatalog builds a catalog from the shipped defaults plus optional
// per-industry or per-deployment base value overrides.
func NewCatalog(overrides map[ID]float64) *Catalog {
	defs := make(map[ID]Definition, len(Defaults))
	for id, def := range Defaults {
		defs[id] = def
	}
	for id, base := range overrides {
		def := defs[id] // zero Definition for unknown metrics is fine
		def.BaseValue = base
		defs[id] = def
	}
	return &Catalog{defs: defs}
}

// Base returns the base value for a metric. Unknown metrics return 0:
// a missing definition degrades to "no modifier applied", never an error.
func (c *Catalog) Base(id ID) float64 {
	return c.defs[id].BaseValue
}

// Lookup returns the full definition and whether the metric is known.
func (c *Catalog) Lookup(id ID) (Definition, bool) {
	def, ok := c.defs[id]
	return def, ok
}
