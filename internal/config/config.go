// Package config holds the static game configuration: the active industry
// with its services, business stats, and the definitions effects are
// instantiated from at hire/purchase/launch time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/rules"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/service"
	"github.com/BizSimLabs/SalonTycoon/server/internal/effects"
)

// BusinessStats are the fixed knobs of the simulation. They are business
// configuration, not metrics: the effect engine never modifies them.
type BusinessStats struct {
	TicksPerSecond float64 `yaml:"ticks_per_second"`
	SpawnX         float64 `yaml:"spawn_x"`
	SpawnY         float64 `yaml:"spawn_y"`
	ExitGraceTicks int     `yaml:"exit_grace_ticks"`
	SeveranceRatio float64 `yaml:"severance_ratio"` // months of salary paid on firing
	StartingCash   float64 `yaml:"starting_cash"`
}

// EffectTemplate is an unapplied effect carried by a role, upgrade level,
// campaign or level reward definition.
type EffectTemplate struct {
	Key             string    `yaml:"key"` // stable suffix, unique within the owner
	Metric          metric.ID `yaml:"metric"`
	Type            string    `yaml:"type"`
	Value           float64   `yaml:"value"`
	DurationSeconds float64   `yaml:"duration_seconds,omitempty"`
	DurationMonths  int       `yaml:"duration_months,omitempty"`
}

// Instantiate stamps a template into an engine effect owned by source.
// The id is deterministic per (source, key) so a re-application replaces
// the previous contribution instead of stacking a duplicate.
func (t EffectTemplate) Instantiate(source effects.Source) effects.Effect {
	return effects.Effect{
		ID:              source.Category + ":" + source.ID + ":" + t.Key,
		Source:          source,
		Metric:          t.Metric,
		Type:            effects.Type(t.Type),
		Value:           t.Value,
		DurationSeconds: t.DurationSeconds,
		DurationMonths:  t.DurationMonths,
	}
}

// StaffRole defines a hireable position.
type StaffRole struct {
	ID           string              `yaml:"id"`
	Name         string              `yaml:"name"`
	Salary       float64             `yaml:"salary"`
	HiringCost   float64             `yaml:"hiring_cost"`
	Effects      []EffectTemplate    `yaml:"effects"`
	Requirements []rules.Requirement `yaml:"requirements,omitempty"`
}

// UpgradeLevel is one purchasable step of an upgrade. Effect keys are shared
// across levels so buying the next level replaces the previous contribution.
type UpgradeLevel struct {
	Cost    float64          `yaml:"cost"`
	Effects []EffectTemplate `yaml:"effects"`
}

// Upgrade is a multi-level purchasable improvement.
type Upgrade struct {
	ID           string              `yaml:"id"`
	Name         string              `yaml:"name"`
	Levels       []UpgradeLevel      `yaml:"levels"`
	Requirements []rules.Requirement `yaml:"requirements,omitempty"`
}

// Campaign is a time-boxed marketing push. Exactly one of the two duration
// fields is set; it is copied onto every instantiated effect.
type Campaign struct {
	ID              string              `yaml:"id"`
	Name            string              `yaml:"name"`
	Cost            float64             `yaml:"cost"`
	DurationSeconds float64             `yaml:"duration_seconds,omitempty"`
	DurationMonths  int                 `yaml:"duration_months,omitempty"`
	Effects         []EffectTemplate    `yaml:"effects"`
	Requirements    []rules.Requirement `yaml:"requirements,omitempty"`
}

// LevelReward grants permanent effects when the player reaches a level.
type LevelReward struct {
	Level   int              `yaml:"level"`
	Effects []EffectTemplate `yaml:"effects"`
}

// Industry bundles the services on offer.
type Industry struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Services []service.Service `yaml:"services"`
}

// GameConfig is the root configuration document.
type GameConfig struct {
	Industry        Industry              `yaml:"industry"`
	Stats           BusinessStats         `yaml:"stats"`
	MetricOverrides map[metric.ID]float64 `yaml:"metric_overrides,omitempty"`
	StaffRoles      []StaffRole           `yaml:"staff_roles"`
	Upgrades        []Upgrade             `yaml:"upgrades"`
	Campaigns       []Campaign            `yaml:"campaigns"`
	LevelRewards    []LevelReward         `yaml:"level_rewards"`
}

// Load reads a YAML configuration file.
func Load(path string) (*GameConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg GameConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
// Spawning with no services configured is a configuration error and must
// fail here, not deep inside a tick.
func (c *GameConfig) Validate() error {
	if len(c.Industry.Services) == 0 {
		return fmt.Errorf("industry %q has no services configured", c.Industry.ID)
	}
	if c.Stats.TicksPerSecond <= 0 {
		return fmt.Errorf("ticks_per_second must be positive, got %v", c.Stats.TicksPerSecond)
	}
	for _, camp := range c.Campaigns {
		if camp.DurationSeconds > 0 && camp.DurationMonths > 0 {
			return fmt.Errorf("campaign %q carries both expiry clocks", camp.ID)
		}
	}
	return nil
}

// StaffRole looks up a role definition by id.
func (c *GameConfig) StaffRole(id string) (StaffRole, bool) {
	for _, r := range c.StaffRoles {
		if r.ID == id {
			return r, true
		}
	}
	return StaffRole{}, false
}

// Upgrade looks up an upgrade definition by id.
func (c *GameConfig) Upgrade(id string) (Upgrade, bool) {
	for _, u := range c.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

// Campaign looks up a campaign definition by id.
func (c *GameConfig) Campaign(id string) (Campaign, bool) {
	for _, camp := range c.Campaigns {
		if camp.ID == id {
			return camp, true
		}
	}
	return Campaign{}, false
}
