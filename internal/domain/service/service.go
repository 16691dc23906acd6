// Package service defines the catalog of services a salon offers.
// This package is PURE and must NOT import any infrastructure packages.
package service

import "github.com/BizSimLabs/SalonTycoon/server/internal/domain/metric"

// Tier buckets services into pricing categories for multiplier application.
type Tier string

const (
	TierHigh Tier = "high"
	TierMid  Tier = "mid"
	TierLow  Tier = "low"
)

// Service describes one offering of the active industry.
type Service struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationSeconds float64 `json:"duration_seconds"`
	Tier            Tier    `json:"tier"`
	Weightage       float64 `json:"weightage"`
}

// RevenueMetric maps a tier to its revenue multiplier metric.
func (t Tier) RevenueMetric() metric.ID {
	switch t {
	case TierHigh:
		return metric.TierHighRevenueMultiplier
	case TierLow:
		return metric.TierLowRevenueMultiplier
	default:
		return metric.TierMidRevenueMultiplier
	}
}

// WeightMetric maps a tier to its spawn weightage multiplier metric.
func (t Tier) WeightMetric() metric.ID {
	switch t {
	case TierHigh:
		return metric.TierHighWeightMultiplier
	case TierLow:
		return metric.TierLowWeightMultiplier
	default:
		return metric.TierMidWeightMultiplier
	}
}
