// Package ratelimit implements fixed-window request counters per client and action.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	ActionSubmitRecipe = "submit_recipe"
	ActionComment      = "comment"
	ActionFlag         = "flag"
	ActionLogin        = "login"
	ActionUpload       = "upload"
)

type ActionConfig struct {
	Limit  int64
	Window time.Duration
}

var DefaultLimits = map[string]ActionConfig{
	ActionSubmitRecipe: {Limit: 10, Window: time.Hour},
	ActionComment:      {Limit: 30, Window: time.Minute},
	ActionFlag:         {Limit: 20, Window: time.Minute},
	ActionLogin:        {Limit: 10, Window: time.Minute},
	ActionUpload:       {Limit: 20, Window: time.Hour},
}

// fallbackLimit applies to actions missing from the limits table.
var fallbackLimit = ActionConfig{Limit: 100, Window: time.Minute}

// Storage counts hits per key within a window.
type Storage interface {
	// Incr increments the counter and starts the window on the first hit.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type Limiter struct {
	storage Storage
	limits  map[string]ActionConfig
	now     func() time.Time
}

type CheckResult struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	ResetAt   int64 `json:"resetAt"`
	Limit     int64 `json:"limit"`
}

func NewLimiter(storage Storage, limits map[string]ActionConfig) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{storage: storage, limits: limits, now: time.Now}
}

func (l *Limiter) Check(ctx context.Context, clientID, action string) (*CheckResult, error) {
	config, ok := l.limits[action]
	if !ok {
		config = fallbackLimit
	}

	key := fmt.Sprintf("rate:%s:%s", clientID, action)

	count, err := l.storage.Incr(ctx, key, config.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}

	ttl, err := l.storage.TTL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get TTL: %w", err)
	}
	if ttl < 0 {
		ttl = config.Window
	}

	remaining := config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		Allowed:   count <= config.Limit,
		Remaining: remaining,
		ResetAt:   l.now().Add(ttl).Unix(),
		Limit:     config.Limit,
	}, nil
}
