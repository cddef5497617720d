package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancet-project/lancet/internal/ratelimit"
)

func fastPolicy(t *testing.T) Policy {
	t.Helper()
	p, err := NewPolicy(3, ratelimit.BackoffConfig{
		BaseDelay:       time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		ExponentialBase: 2.0,
		JitterFactor:    0,
	}, []int{429, 500, 502, 503, 504}, []int{400, 401, 403, 404, 410})
	require.NoError(t, err)
	return p
}

func TestNewPolicy_RejectsOverlappingStatusSets(t *testing.T) {
	_, err := NewPolicy(3, ratelimit.DefaultBackoffConfig(), []int{429, 404}, []int{404})
	assert.Error(t, err)
}

func TestEngine_SucceedsWithoutRetry(t *testing.T) {
	engine := NewEngine(fastPolicy(t), nil, nil, nil)
	calls := 0
	err := engine.Execute(context.Background(), "op", "provider", func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEngine_NonRetryableStatusNeverSleeps(t *testing.T) {
	engine := NewEngine(fastPolicy(t), nil, nil, nil)
	calls := 0
	start := time.Now()
	err := engine.Execute(context.Background(), "op", "provider", func() error {
		calls++
		return NewStatusError(404)
	})
	elapsed := time.Since(start)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Status)
	assert.Equal(t, 1, calls, "non-retryable status must not be retried")
	assert.Less(t, elapsed, 5*time.Millisecond, "I7: never sleeps after a non-retryable error")
}

func TestEngine_RetriesRetryableStatusThenSucceeds(t *testing.T) {
	engine := NewEngine(fastPolicy(t), nil, nil, nil)
	calls := 0
	err := engine.Execute(context.Background(), "op", "provider", func() error {
		calls++
		if calls < 3 {
			return NewStatusError(503)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestEngine_ConsecutiveRateLimitEarlyFail(t *testing.T) {
	policy := fastPolicy(t)
	policy.MaxConsecutive429 = 3
	engine := NewEngine(policy, nil, nil, nil)

	calls := 0
	err := engine.Execute(context.Background(), "op", "flaky", func() error {
		calls++
		return NewStatusError(429)
	})

	var apiErr *APIRetryError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.LastStatus)
	assert.Equal(t, 3, calls, "must fail on the third consecutive 429 without a fourth attempt")
}

func TestEngine_UnknownErrorTypeIsNonRetryable(t *testing.T) {
	engine := NewEngine(fastPolicy(t), nil, nil, nil)
	sentinel := errors.New("boom")
	calls := 0
	err := engine.Execute(context.Background(), "op", "provider", func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestEngine_ExhaustionReturnsAPIRetryError(t *testing.T) {
	policy := fastPolicy(t)
	policy.MaxRetries = 2
	engine := NewEngine(policy, nil, nil, nil)

	calls := 0
	err := engine.Execute(context.Background(), "op", "provider", func() error {
		calls++
		return NewStatusError(503)
	})

	var apiErr *APIRetryError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, apiErr.Attempts)
	assert.Equal(t, 3, calls)
}

type fakeFeedback struct {
	successes, rateLimited, otherFailures int
}

func (f *fakeFeedback) OnSuccess(string)      { f.successes++ }
func (f *fakeFeedback) OnRateLimited(string)  { f.rateLimited++ }
func (f *fakeFeedback) OnOtherFailure(string) { f.otherFailures++ }

func TestEngine_ReportsFeedbackToRateLimiter(t *testing.T) {
	policy := fastPolicy(t)
	policy.MaxConsecutive429 = 10
	fb := &fakeFeedback{}
	engine := NewEngine(policy, fb, nil, nil)

	calls := 0
	_ = engine.Execute(context.Background(), "op", "provider", func() error {
		calls++
		if calls == 1 {
			return NewStatusError(429)
		}
		return nil
	})

	assert.Equal(t, 1, fb.rateLimited)
	assert.Equal(t, 1, fb.successes)
}
