package common

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RateLimiter tracks request weight reported by the exchange.
type RateLimiter struct {
	usedWeight    int
	limit         int
	lastReset     time.Time
	resetInterval time.Duration
	log           zerolog.Logger
	mu            sync.RWMutex
}

// NewRateLimiter creates a new weight tracker.
// limit: maximum weight allowed (e.g., 1200 for spot)
// resetInterval: time window (e.g., 1 minute)
func NewRateLimiter(limit int, resetInterval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		limit:         limit,
		resetInterval: resetInterval,
		lastReset:     time.Now(),
		log:           log,
	}
}

// UpdateFromHeader records the used weight from an API response header.
func (rl *RateLimiter) UpdateFromHeader(headerValue string) {
	if headerValue == "" {
		return
	}

	weight, err := strconv.Atoi(headerValue)
	if err != nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastReset) >= rl.resetInterval {
		rl.lastReset = time.Now()
	}
	rl.usedWeight = weight

	pct := float64(rl.usedWeight) / float64(rl.limit) * 100
	switch {
	case pct >= 95:
		rl.log.Error().Int("used", rl.usedWeight).Int("limit", rl.limit).Float64("pct", pct).Msg("rate limit critical, approaching ban threshold")
	case pct >= 80:
		rl.log.Warn().Int("used", rl.usedWeight).Int("limit", rl.limit).Float64("pct", pct).Msg("rate limit warning")
	}
}

// Usage returns current usage information.
func (rl *RateLimiter) Usage() (used int, limit int, percentage float64) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if time.Since(rl.lastReset) >= rl.resetInterval {
		return 0, rl.limit, 0
	}
	return rl.usedWeight, rl.limit, float64(rl.usedWeight) / float64(rl.limit) * 100
}

// ShouldDelay returns true when usage is at or above 90%.
func (rl *RateLimiter) ShouldDelay() bool {
	_, _, pct := rl.Usage()
	return pct >= 90
}
