// Package ratelimit implements per-provider rate limiting with profile
// selection, concurrency slots, and auto-backoff under repeated 429s.
package ratelimit

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// BackoffConfig is a pure-math exponential backoff configuration, grounded
// on original_source/src/utils/backoff.py's BackoffConfig dataclass.
type BackoffConfig struct {
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	JitterFactor    float64
}

// DefaultBackoffConfig matches the original's frozen-dataclass defaults.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		JitterFactor:    0.1,
	}
}

// Validate checks the invariants the original's __post_init__ enforces:
// 0 < base <= max, exponential_base > 1, 0 <= jitter <= 1.
func (c BackoffConfig) Validate() error {
	if c.BaseDelay <= 0 {
		return fmt.Errorf("backoff: base_delay must be positive, got %v", c.BaseDelay)
	}
	if c.BaseDelay > c.MaxDelay {
		return fmt.Errorf("backoff: base_delay %v exceeds max_delay %v", c.BaseDelay, c.MaxDelay)
	}
	if c.ExponentialBase <= 1 {
		return fmt.Errorf("backoff: exponential_base must be > 1, got %v", c.ExponentialBase)
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		return fmt.Errorf("backoff: jitter_factor must be in [0,1], got %v", c.JitterFactor)
	}
	return nil
}

// CalculateBackoff returns delay(attempt) = min(base * exponential_base^attempt, max_delay) ± jitter.
// addJitter=false (e.g. calculate_total_delay in the original) omits the
// random component so callers can sum deterministic totals.
func CalculateBackoff(attempt int, cfg BackoffConfig, addJitter bool) time.Duration {
	raw := float64(cfg.BaseDelay) * math.Pow(cfg.ExponentialBase, float64(attempt))
	capped := math.Min(raw, float64(cfg.MaxDelay))

	if !addJitter || cfg.JitterFactor == 0 {
		return time.Duration(capped)
	}

	jitterRange := capped * cfg.JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange
	delay := capped + jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// CalculateCooldownMinutes returns min(base * 2^(failures//3), max), clamped
// to [base, max]. Used by circuit breakers and domain cooldowns.
func CalculateCooldownMinutes(failureCount int, baseMinutes, maxMinutes float64) (float64, error) {
	if failureCount < 0 {
		return 0, fmt.Errorf("ratelimit: failure_count must be non-negative, got %d", failureCount)
	}
	factor := math.Pow(2, math.Floor(float64(failureCount)/3))
	cooldown := baseMinutes * factor
	if cooldown > maxMinutes {
		cooldown = maxMinutes
	}
	if cooldown < baseMinutes {
		cooldown = baseMinutes
	}
	return cooldown, nil
}

// CalculateTotalDelay sums backoff without jitter across maxRetries attempts,
// useful for asserting that an early-fail path saves wall-clock time (§8
// scenario 6).
func CalculateTotalDelay(maxRetries int, cfg BackoffConfig) time.Duration {
	var total time.Duration
	for attempt := 0; attempt < maxRetries; attempt++ {
		total += CalculateBackoff(attempt, cfg, false)
	}
	return total
}
