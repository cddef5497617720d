package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Profile is the credential tier a provider is accessed under.
type Profile string

const (
	ProfileAnonymous    Profile = "anonymous"
	ProfileAuthenticated Profile = "authenticated"
	ProfileIdentified   Profile = "identified"
)

// ProfileLimits are the rate-limit parameters for one profile tier.
type ProfileLimits struct {
	MinInterval time.Duration
	MaxParallel int
}

// ProviderConfig supplies the static profile table a RateLimiter selects
// from at first use, plus the credentials used to choose a profile.
type ProviderConfig struct {
	HasAPIKey      bool
	HasContactEmail bool
	Profiles       map[Profile]ProfileLimits
}

type providerState struct {
	mu sync.Mutex

	profile Profile

	configMaxParallel  int
	currentMaxParallel int
	configMinInterval  time.Duration
	currentMinInterval time.Duration

	consecutiveOK int
	lastBackoffAt time.Time

	sem     chan struct{}
	spacing *rate.Limiter
}

// spacingLimit converts a minimum inter-request interval into the
// equivalent token-bucket rate, burst 1 so Wait always blocks for at least
// one full interval after the previous token was taken.
func spacingLimit(minInterval time.Duration) rate.Limit {
	if minInterval <= 0 {
		return rate.Inf
	}
	return rate.Every(minInterval)
}

// Limiter is a process-wide, per-provider rate limiter: token-spacing via a
// minimum interval between request starts, plus a concurrency semaphore. It
// auto-backs-off under repeated 429s and auto-recovers after a stable run of
// successes.
type Limiter struct {
	mu        sync.Mutex
	providers map[string]*providerState
	configs   map[string]ProviderConfig

	// RecoveryStableDuration is how long a provider must run without a 429
	// before its min_interval steps back down toward the configured value.
	RecoveryStableDuration time.Duration

	logger *slog.Logger
}

// NewLimiter builds a Limiter. configs maps provider name to its static
// profile table; an enabled provider missing an "anonymous" entry is a
// configuration error the caller should catch at startup (§6).
func NewLimiter(configs map[string]ProviderConfig, logger *slog.Logger) *Limiter {
	return &Limiter{
		providers:              make(map[string]*providerState),
		configs:                configs,
		RecoveryStableDuration: 30 * time.Second,
		logger:                 logger,
	}
}

func (l *Limiter) stateFor(provider string) *providerState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.providers[provider]; ok {
		return st
	}

	cfg := l.configs[provider]
	profile := ProfileAnonymous
	switch {
	case cfg.HasContactEmail:
		profile = ProfileIdentified
	case cfg.HasAPIKey:
		profile = ProfileAuthenticated
	}

	limits, ok := cfg.Profiles[profile]
	if !ok {
		limits = cfg.Profiles[ProfileAnonymous]
	}
	if limits.MaxParallel <= 0 {
		limits.MaxParallel = 1
	}

	st := &providerState{
		profile:            profile,
		configMaxParallel:  limits.MaxParallel,
		currentMaxParallel: limits.MaxParallel,
		configMinInterval:  limits.MinInterval,
		currentMinInterval: limits.MinInterval,
		sem:                make(chan struct{}, limits.MaxParallel),
		spacing:            rate.NewLimiter(spacingLimit(limits.MinInterval), 1),
	}
	l.providers[provider] = st
	return st
}

// Slot represents an acquired rate-limit slot. Release MUST be called
// exactly once, before any retry backoff sleep (I6).
type Slot struct {
	st       *providerState
	released bool
	mu       sync.Mutex
}

// Acquire blocks until the provider's concurrency slot and min-interval
// spacing are satisfied, or ctx is cancelled. The returned Slot's Release
// MUST run on every exit path (use defer).
func (l *Limiter) Acquire(ctx context.Context, provider string) (*Slot, error) {
	st := l.stateFor(provider)

	select {
	case st.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := st.spacing.Wait(ctx); err != nil {
		<-st.sem
		return nil, err
	}

	return &Slot{st: st}, nil
}

// Release returns the concurrency slot. Idempotent.
func (s *Slot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	<-s.st.sem
}

// OnSuccess is called by RetryEngine on any non-429 successful outcome. It
// increments the consecutive-OK counter and, once RecoveryStableDuration has
// passed since the last 429 or the last recovery step, halves the current
// min_interval, never going below the configured value.
func (l *Limiter) OnSuccess(provider string) {
	st := l.stateFor(provider)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.consecutiveOK++
	if st.currentMinInterval > st.configMinInterval &&
		!st.lastBackoffAt.IsZero() &&
		time.Since(st.lastBackoffAt) > l.RecoveryStableDuration {
		next := st.currentMinInterval / 2
		if next <= st.configMinInterval {
			next = st.configMinInterval
			st.lastBackoffAt = time.Time{}
		} else {
			st.lastBackoffAt = time.Now()
		}
		st.currentMinInterval = next
		st.spacing.SetLimit(spacingLimit(st.currentMinInterval))
	}
}

// OnRateLimited doubles the provider's min_interval (capped at 16x the
// configured value) and lowers the max_parallel reported by GetLimits by one,
// down to 1. The semaphore keeps the capacity it was created with, so the
// number of concurrent requests is not reduced.
func (l *Limiter) OnRateLimited(provider string) {
	st := l.stateFor(provider)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.consecutiveOK = 0
	st.lastBackoffAt = time.Now()

	next := st.currentMinInterval * 2
	maxBackoff := st.configMinInterval * 16
	if maxBackoff > 0 && next > maxBackoff {
		next = maxBackoff
	}
	if next < st.configMinInterval {
		next = st.configMinInterval
	}
	st.currentMinInterval = next
	st.spacing.SetLimit(spacingLimit(st.currentMinInterval))

	if st.currentMaxParallel > 1 {
		st.currentMaxParallel--
	}
}

// OnOtherFailure is a non-429, non-success outcome: it does not affect the
// backoff state, matching §4.3 ("any non-429 outcome resets this counter"
// refers to RetryEngine's own consecutive_429 counter, not the limiter's).
func (l *Limiter) OnOtherFailure(provider string) {}

// DowngradeProfile moves a provider permanently to the anonymous profile and
// applies that profile's min_interval and max_parallel values. Idempotent;
// never re-upgrades. The semaphore keeps the capacity it was created with,
// so the new max_parallel is reported by GetLimits but not enforced.
func (l *Limiter) DowngradeProfile(provider string) {
	st := l.stateFor(provider)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.profile == ProfileAnonymous {
		return
	}
	cfg := l.configs[provider]
	limits := cfg.Profiles[ProfileAnonymous]
	st.profile = ProfileAnonymous
	st.configMinInterval = limits.MinInterval
	st.currentMinInterval = limits.MinInterval
	st.spacing.SetLimit(spacingLimit(st.currentMinInterval))
	if limits.MaxParallel <= 0 {
		limits.MaxParallel = 1
	}
	st.configMaxParallel = limits.MaxParallel
	st.currentMaxParallel = limits.MaxParallel
}

// GetLimits reports the provider's current effective limits, for
// diagnostics/metrics.
func (l *Limiter) GetLimits(provider string) (Profile, time.Duration, int) {
	st := l.stateFor(provider)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.profile, st.currentMinInterval, st.currentMaxParallel
}

// ResetForTest clears all per-provider state. Exposed only for test
// harnesses; production code MUST NOT call it (§6).
func (l *Limiter) ResetForTest() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.providers = make(map[string]*providerState)
}
