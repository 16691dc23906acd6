package engine

import (
	"context"
	"time"

	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/metrics"
)

// Tickable is the surface the ticker drives. The session implements it by
// serializing the simulation tick against player actions.
type Tickable interface {
	Tick()
}

// Ticker drives the simulation in real time. It knows nothing about
// customers or effects, only cadence.
type Ticker struct {
	target   Tickable
	logger   *logger.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewTicker creates a ticker firing ticksPerSecond times per second.
func NewTicker(target Tickable, ticksPerSecond float64, log *logger.Logger) *Ticker {
	return &Ticker{
		target:   target,
		logger:   log,
		interval: time.Duration(float64(time.Second) / ticksPerSecond),
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Simulation ticker started at " + t.interval.String() + " per tick")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Simulation ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Simulation ticker stopped manually.")
			return
		case <-ticker.C:
			started := time.Now()
			t.target.Tick()
			metrics.Get().RecordTick(time.Since(started))
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}
