package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanRequestToDomain_DeniesAtLimit(t *testing.T) {
	m := NewManager(func(domain string) (DomainPolicy, bool) {
		return DomainPolicy{MaxRequestsPerDay: 2, MaxPagesPerDay: 1}, true
	}, nil)

	ctx := context.Background()
	d1 := m.CanRequestToDomain(ctx, "example.com")
	require.True(t, d1.Allowed)
	m.RecordDomainRequest("example.com", false)

	d2 := m.CanRequestToDomain(ctx, "example.com")
	require.True(t, d2.Allowed)
	m.RecordDomainRequest("example.com", false)

	d3 := m.CanRequestToDomain(ctx, "example.com")
	assert.False(t, d3.Allowed)
	assert.Contains(t, d3.Reason, "request_limit_exceeded:2/2")
}

func TestCanRequestToDomain_ZeroMeansUnlimited(t *testing.T) {
	m := NewManager(func(domain string) (DomainPolicy, bool) {
		return DomainPolicy{MaxRequestsPerDay: 0, MaxPagesPerDay: 0}, true
	}, nil)
	for i := 0; i < 1000; i++ {
		m.RecordDomainRequest("unlimited.example", true)
	}
	d := m.CanRequestToDomain(context.Background(), "unlimited.example")
	assert.True(t, d.Allowed)
}

func TestCanRequestToDomain_FailsOpenOnPanic(t *testing.T) {
	m := NewManager(func(domain string) (DomainPolicy, bool) {
		panic("policy store unavailable")
	}, nil)
	d := m.CanRequestToDomain(context.Background(), "broken.example")
	assert.True(t, d.Allowed)
	assert.Contains(t, d.Reason, "check_error_failopen")
}

func TestBudget_ResetsOnDateChange(t *testing.T) {
	m := NewManager(nil, nil)
	day1 := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return day1 }
	m.today = day1.Format("2006-01-02")

	m.RecordDomainRequest("example.com", false)
	b := m.GetDomainBudget("example.com")
	assert.Equal(t, 1, b.RequestsToday)

	day2 := day1.Add(2 * time.Hour)
	m.now = func() time.Time { return day2 }

	b2 := m.GetDomainBudget("example.com")
	assert.Equal(t, 0, b2.RequestsToday, "I8: counters reset when the date changes")
	assert.Equal(t, day2.Format("2006-01-02"), b2.Date)
}

func TestDailyBudget_PagesNeverExceedRequests(t *testing.T) {
	m := NewManager(nil, nil)
	m.RecordDomainRequest("example.com", true)
	b := m.GetDomainBudget("example.com")
	assert.LessOrEqual(t, b.PagesToday, b.RequestsToday)
}
