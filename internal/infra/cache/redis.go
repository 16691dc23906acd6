// Package cache provides Redis-based caching for quick spectator reads.
// HUD snapshots only; the simulation is the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RedisClient is an interface for Redis operations.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// HUDCache provides fast access to per-session HUD snapshots so spectator
// traffic never touches the simulation's lock.
type HUDCache struct {
	client     RedisClient
	expiration time.Duration
}

// NewHUDCache creates a new HUD cache instance.
func NewHUDCache(client RedisClient) *HUDCache {
	return &HUDCache{
		client:     client,
		expiration: 5 * time.Second, // HUD data goes stale fast
	}
}

// HUDState is the cached spectator view of a session.
type HUDState struct {
	SessionID     string  `json:"session_id"`
	Cash          float64 `json:"cash"`
	Level         int     `json:"level"`
	Month         int     `json:"month"`
	Tick          int64   `json:"tick"`
	Capacity      int     `json:"capacity"`
	ActiveEffects int     `json:"active_effects"`
	CustomerCount int     `json:"customer_count"`
	LastSync      int64   `json:"last_sync"` // Unix timestamp
}

// SetHUDState caches the current HUD view of a session.
func (c *HUDCache) SetHUDState(ctx context.Context, state HUDState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal HUD state: %w", err)
	}
	return c.client.Set(ctx, c.hudKey(state.SessionID), data, c.expiration)
}

// GetHUDState retrieves the cached HUD view of a session.
func (c *HUDCache) GetHUDState(ctx context.Context, sessionID string) (*HUDState, error) {
	data, err := c.client.Get(ctx, c.hudKey(sessionID))
	if err != nil {
		return nil, err // Cache miss or error
	}

	var state HUDState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal HUD state: %w", err)
	}
	return &state, nil
}

// InvalidateSession removes all cached state for a session.
func (c *HUDCache) InvalidateSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.hudKey(sessionID))
}

// hudKey generates the Redis key for a session's HUD snapshot.
func (c *HUDCache) hudKey(sessionID string) string {
	return fmt.Sprintf("session:%s:hud", sessionID)
}
