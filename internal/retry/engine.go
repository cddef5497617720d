// Package retry wraps a fallible operation with classified retry,
// consecutive-429 early-fail, and rate-limiter feedback. Grounded on
// internal/errors/retry.go's RetryExecutor shape (config/classifier/stats
// held under a mutex, select{ctx.Done, time.After} sleep loop) and on
// original_source/src/utils/api_retry.py's disjoint-status-set policy and
// original_source/src/utils/backoff.py's delay math (internal/ratelimit).
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lancet-project/lancet/internal/ratelimit"
)

// Policy configures one Engine. Retryable and non-retryable status sets MUST
// be disjoint; NewPolicy validates this at construction (§4.3, Error
// Handling Design §7: "Configuration ... overlapping retryable/non-retryable
// status sets ... Fatal at initialization").
type Policy struct {
	MaxRetries              int
	Backoff                 ratelimit.BackoffConfig
	RetryableStatusCodes    map[int]bool
	NonRetryableStatusCodes map[int]bool
	MaxConsecutive429       int
	ProfileMaxConsecutive429 map[string]int
}

// NewPolicy validates and returns a Policy.
func NewPolicy(maxRetries int, backoff ratelimit.BackoffConfig, retryable, nonRetryable []int) (Policy, error) {
	if maxRetries < 0 {
		return Policy{}, fmt.Errorf("retry: max_retries must be non-negative, got %d", maxRetries)
	}
	if err := backoff.Validate(); err != nil {
		return Policy{}, err
	}

	retryableSet := make(map[int]bool, len(retryable))
	for _, s := range retryable {
		retryableSet[s] = true
	}
	nonRetryableSet := make(map[int]bool, len(nonRetryable))
	for _, s := range nonRetryable {
		nonRetryableSet[s] = true
	}
	for s := range retryableSet {
		if nonRetryableSet[s] {
			return Policy{}, fmt.Errorf("retry: status code %d cannot be both retryable and non-retryable", s)
		}
	}

	return Policy{
		MaxRetries:              maxRetries,
		Backoff:                 backoff,
		RetryableStatusCodes:    retryableSet,
		NonRetryableStatusCodes: nonRetryableSet,
		MaxConsecutive429:       2,
		ProfileMaxConsecutive429: map[string]int{
			string(ratelimit.ProfileAuthenticated): 5,
			string(ratelimit.ProfileIdentified):    5,
		},
	}, nil
}

// AcademicAPIPolicy matches original_source's ACADEMIC_API_POLICY: more
// lenient retries appropriate for official academic metadata APIs.
func AcademicAPIPolicy() Policy {
	p, _ := NewPolicy(5, ratelimit.BackoffConfig{
		BaseDelay:       time.Second,
		MaxDelay:        120 * time.Second,
		ExponentialBase: 2.0,
		JitterFactor:    0.1,
	}, []int{429, 500, 502, 503, 504}, []int{400, 401, 403, 404, 410})
	return p
}

// RateLimiterFeedback lets an Engine report outcomes back to a RateLimiter
// so it can auto-backoff or recover. ratelimit.Limiter satisfies this
// interface directly.
type RateLimiterFeedback interface {
	OnSuccess(provider string)
	OnRateLimited(provider string)
	OnOtherFailure(provider string)
}

// ProfileLookup resolves a provider's current credential profile, used to
// pick the profile-aware consecutive-429 ceiling.
type ProfileLookup func(provider string) ratelimit.Profile

// Engine executes operations under a Policy.
type Engine struct {
	policy        Policy
	feedback      RateLimiterFeedback
	profileLookup ProfileLookup
	logger        *slog.Logger

	mu             sync.Mutex
	consecutive429 map[string]int
}

// NewEngine builds an Engine. feedback and profileLookup may be nil.
func NewEngine(policy Policy, feedback RateLimiterFeedback, profileLookup ProfileLookup, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		policy:         policy,
		feedback:       feedback,
		profileLookup:  profileLookup,
		logger:         logger,
		consecutive429: make(map[string]int),
	}
}

func (e *Engine) maxConsecutive429(provider string) int {
	if e.profileLookup == nil {
		return e.policy.MaxConsecutive429
	}
	profile := e.profileLookup(provider)
	if v, ok := e.policy.ProfileMaxConsecutive429[string(profile)]; ok {
		return v
	}
	return e.policy.MaxConsecutive429
}

func (e *Engine) bump429(provider string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutive429[provider]++
	return e.consecutive429[provider]
}

func (e *Engine) clear429(provider string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.consecutive429, provider)
}

// Execute runs fn, retrying on retryable failures per the configured
// Policy. provider is used for rate-limiter feedback and the
// consecutive-429 counter; pass "" if not applicable.
//
// fn should return a *StatusError for HTTP-status failures and a
// *RetryableError for transient network failures; any other error type is
// treated as non-retryable and returned immediately without sleeping (I7).
func (e *Engine) Execute(ctx context.Context, operation, provider string, fn func() error) error {
	totalAttempts := e.policy.MaxRetries + 1
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < totalAttempts; attempt++ {
		err := fn()
		if err == nil {
			e.clear429(provider)
			if e.feedback != nil {
				e.feedback.OnSuccess(provider)
			}
			return nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			lastStatus = statusErr.Status

			if statusErr.Status == 429 {
				n := e.bump429(provider)
				if e.feedback != nil {
					e.feedback.OnRateLimited(provider)
				}
				if n >= e.maxConsecutive429(provider) {
					return &APIRetryError{
						Message:    fmt.Sprintf("%s: consecutive 429 limit reached after %d attempts", operation, attempt+1),
						Attempts:   attempt + 1,
						LastError:  err,
						LastStatus: 429,
					}
				}
			} else {
				e.clear429(provider)
				if e.feedback != nil {
					e.feedback.OnOtherFailure(provider)
				}
			}

			if e.policy.NonRetryableStatusCodes[statusErr.Status] || !e.policy.RetryableStatusCodes[statusErr.Status] {
				return err
			}
		} else {
			var retryable *RetryableError
			if !errors.As(err, &retryable) {
				e.clear429(provider)
				return err
			}
			e.clear429(provider)
			if e.feedback != nil {
				e.feedback.OnOtherFailure(provider)
			}
		}

		if attempt == totalAttempts-1 {
			break
		}

		delay := ratelimit.CalculateBackoff(attempt, e.policy.Backoff, true)

		e.logger.Warn("retrying after failure",
			slog.String("operation", operation),
			slog.String("provider", provider),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &APIRetryError{
		Message:    fmt.Sprintf("%s failed after %d attempts", operation, totalAttempts),
		Attempts:   totalAttempts,
		LastError:  lastErr,
		LastStatus: lastStatus,
	}
}
