package config

import (
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/rules"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/service"
)

// Default returns the shipped hair salon configuration. Deployments usually
// load a YAML file instead; this keeps cmd/simulate and tests self-contained.
func Default() *GameConfig {
	return &GameConfig{
		Industry: Industry{
			ID:   "hair_salon",
			Name: "Hair Salon",
			Services: []service.Service{
				{ID: "trim", Name: "Quick Trim", Price: 12, DurationSeconds: 6, Tier: service.TierLow, Weightage: 50},
				{ID: "cut_style", Name: "Cut & Style", Price: 28, DurationSeconds: 10, Tier: service.TierMid, Weightage: 35},
				{ID: "color", Name: "Full Color", Price: 65, DurationSeconds: 16, Tier: service.TierHigh, Weightage: 15},
			},
		},
		Stats: BusinessStats{
			TicksPerSecond: 10,
			SpawnX:         0,
			SpawnY:         5,
			ExitGraceTicks: 20,
			SeveranceRatio: 0.5,
			StartingCash:   200,
		},
		StaffRoles: []StaffRole{
			{
				ID: "stylist", Name: "Stylist", Salary: 120, HiringCost: 40,
				Effects: []EffectTemplate{
					{Key: "capacity", Metric: metric.ServiceCapacity, Type: "ADD", Value: 1},
				},
			},
			{
				ID: "senior_stylist", Name: "Senior Stylist", Salary: 240, HiringCost: 90,
				Effects: []EffectTemplate{
					{Key: "capacity", Metric: metric.ServiceCapacity, Type: "ADD", Value: 1},
					{Key: "speed", Metric: metric.ServiceSpeedMultiplier, Type: "PERCENT", Value: 15},
				},
				Requirements: []rules.Requirement{
					{Kind: rules.KindLevelMin, Threshold: 3},
				},
			},
			{
				ID: "receptionist", Name: "Receptionist", Salary: 90, HiringCost: 30,
				Effects: []EffectTemplate{
					{Key: "patience", Metric: metric.CustomerPatienceSeconds, Type: "PERCENT", Value: 20},
				},
			},
		},
		Upgrades: []Upgrade{
			{
				ID: "chairs", Name: "Extra Chairs",
				Levels: []UpgradeLevel{
					{Cost: 80, Effects: []EffectTemplate{{Key: "capacity", Metric: metric.ServiceCapacity, Type: "ADD", Value: 1}}},
					{Cost: 200, Effects: []EffectTemplate{{Key: "capacity", Metric: metric.ServiceCapacity, Type: "ADD", Value: 2}}},
				},
			},
			{
				ID: "premium_products", Name: "Premium Products",
				Levels: []UpgradeLevel{
					{Cost: 150, Effects: []EffectTemplate{{Key: "revenue", Metric: metric.ServiceRevenueMultiplier, Type: "PERCENT", Value: 10}}},
					{Cost: 400, Effects: []EffectTemplate{{Key: "revenue", Metric: metric.ServiceRevenueMultiplier, Type: "PERCENT", Value: 25}}},
				},
				Requirements: []rules.Requirement{
					{Kind: rules.KindLevelMin, Threshold: 2, HideWhenUnmet: true},
				},
			},
		},
		Campaigns: []Campaign{
			{
				ID: "flyers", Name: "Neighborhood Flyers", Cost: 50, DurationSeconds: 120,
				Effects: []EffectTemplate{
					{Key: "spawn", Metric: metric.SpawnIntervalSeconds, Type: "PERCENT", Value: -30},
				},
			},
			{
				ID: "radio_spot", Name: "Radio Spot", Cost: 300, DurationMonths: 2,
				Effects: []EffectTemplate{
					{Key: "spawn", Metric: metric.SpawnIntervalSeconds, Type: "PERCENT", Value: -20},
					{Key: "premium_demand", Metric: metric.TierHighWeightMultiplier, Type: "MULTIPLY", Value: 2},
				},
				Requirements: []rules.Requirement{
					{Kind: rules.KindLevelMin, Threshold: 4},
				},
			},
		},
		LevelRewards: []LevelReward{
			{Level: 2, Effects: []EffectTemplate{{Key: "revenue", Metric: metric.ServiceRevenueFlatBonus, Type: "ADD", Value: 2}}},
			{Level: 5, Effects: []EffectTemplate{{Key: "capacity", Metric: metric.ServiceCapacity, Type: "ADD", Value: 1}}},
		},
	}
}
