// Package budget implements the per-domain daily request/page budget with
// automatic midnight reset and fail-open semantics (§4.8), grounded on
// original_source/src/scheduler/domain_budget.py's DomainDailyBudgetManager.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lancet-project/lancet/internal/messaging"
)

const (
	DefaultMaxRequestsPerDay = 200
	DefaultMaxPagesPerDay    = 100
)

// DailyBudget mirrors spec.md §3's DomainDailyBudget record.
type DailyBudget struct {
	Domain            string
	Date              string
	RequestsToday     int
	PagesToday        int
	MaxRequestsPerDay int
	MaxPagesPerDay    int
}

// RequestsRemaining returns the derived remaining-requests count; 0 means
// unlimited and is reported as -1 (no ceiling) to distinguish from
// "zero remaining".
func (b DailyBudget) RequestsRemaining() int {
	if b.MaxRequestsPerDay == 0 {
		return -1
	}
	if r := b.MaxRequestsPerDay - b.RequestsToday; r > 0 {
		return r
	}
	return 0
}

// PagesRemaining mirrors RequestsRemaining for pages.
func (b DailyBudget) PagesRemaining() int {
	if b.MaxPagesPerDay == 0 {
		return -1
	}
	if r := b.MaxPagesPerDay - b.PagesToday; r > 0 {
		return r
	}
	return 0
}

// DomainPolicy supplies per-domain limits; a zero value on either field
// means unlimited for that field.
type DomainPolicy struct {
	MaxRequestsPerDay int
	MaxPagesPerDay    int
}

// PolicyLookup resolves a domain's configured limits. Returning ok=false
// falls back to the package defaults.
type PolicyLookup func(domain string) (DomainPolicy, bool)

// Decision is the result of CanRequestToDomain.
type Decision struct {
	Allowed           bool
	Reason            string
	RequestsRemaining int
	PagesRemaining    int
}

// Manager is a process-wide, thread-safe per-domain budget tracker. The
// spec's "thread-safe singleton" (§4.8, §9 design note) is realized here as
// a service instance owned by an explicit root context rather than a
// package-level global; callers construct exactly one Manager and share it.
type Manager struct {
	mu      sync.Mutex
	budgets map[string]*DailyBudget
	today   string

	policyLookup PolicyLookup
	logger       *slog.Logger
	now          func() time.Time
	messaging    *messaging.Client
}

// NewManager builds a Manager. policyLookup may be nil, in which case every
// domain uses the package defaults.
func NewManager(policyLookup PolicyLookup, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		budgets:      make(map[string]*DailyBudget),
		policyLookup: policyLookup,
		logger:       logger,
		now:          time.Now,
	}
	m.today = m.now().UTC().Format("2006-01-02")
	return m
}

// WithMessaging attaches an event publisher; budget-denied events are only
// published once one is set.
func (m *Manager) WithMessaging(client *messaging.Client) *Manager {
	m.messaging = client
	return m
}

func (m *Manager) publishDenied(ctx context.Context, domain, reason string, requestsUsed, pagesUsed int) {
	if m.messaging == nil {
		return
	}
	event := messaging.NewBudgetDeniedEvent(domain, reason, requestsUsed, pagesUsed)
	if err := m.messaging.PublishAsync(ctx, messaging.SubjectBudgetDenied, event); err != nil {
		m.logger.Warn("failed to publish budget denied event", slog.String("error", err.Error()))
	}
}

func (m *Manager) limitsFor(domain string) (int, int) {
	if m.policyLookup != nil {
		if policy, ok := m.policyLookup(domain); ok {
			return policy.MaxRequestsPerDay, policy.MaxPagesPerDay
		}
	}
	return DefaultMaxRequestsPerDay, DefaultMaxPagesPerDay
}

// checkDateResetLocked clears all budgets when the wall-clock date has advanced.
// Must be called with m.mu held.
func (m *Manager) checkDateResetLocked() {
	today := m.now().UTC().Format("2006-01-02")
	if today != m.today {
		m.budgets = make(map[string]*DailyBudget)
		m.today = today
	}
}

func (m *Manager) getOrCreateLocked(domain string) *DailyBudget {
	if b, ok := m.budgets[domain]; ok {
		return b
	}
	maxReq, maxPages := m.limitsFor(domain)
	b := &DailyBudget{
		Domain:            domain,
		Date:              m.today,
		MaxRequestsPerDay: maxReq,
		MaxPagesPerDay:    maxPages,
	}
	m.budgets[domain] = b
	return b
}

// CanRequestToDomain reports whether a request to domain is currently
// allowed. Any internal error is caught and the request is allowed
// fail-open, with a "check_error_failopen:<err>" reason (§4.8, §7).
func (m *Manager) CanRequestToDomain(ctx context.Context, domain string) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			decision = Decision{Allowed: true, Reason: fmt.Sprintf("check_error_failopen:%v", r)}
			m.logger.Warn("domain budget check panicked, failing open", slog.String("domain", domain), slog.Any("panic", r))
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkDateResetLocked()
	b := m.getOrCreateLocked(domain)

	if b.MaxRequestsPerDay > 0 && b.RequestsToday >= b.MaxRequestsPerDay {
		m.publishDenied(ctx, domain, "requests_exhausted", b.RequestsToday, b.PagesToday)
		return Decision{
			Allowed:           false,
			Reason:            fmt.Sprintf("request_limit_exceeded:%d/%d", b.RequestsToday, b.MaxRequestsPerDay),
			RequestsRemaining: b.RequestsRemaining(),
			PagesRemaining:    b.PagesRemaining(),
		}
	}
	if b.MaxPagesPerDay > 0 && b.PagesToday >= b.MaxPagesPerDay {
		m.publishDenied(ctx, domain, "pages_exhausted", b.RequestsToday, b.PagesToday)
		return Decision{
			Allowed:           false,
			Reason:            fmt.Sprintf("page_limit_exceeded:%d/%d", b.PagesToday, b.MaxPagesPerDay),
			RequestsRemaining: b.RequestsRemaining(),
			PagesRemaining:    b.PagesRemaining(),
		}
	}

	return Decision{
		Allowed:           true,
		RequestsRemaining: b.RequestsRemaining(),
		PagesRemaining:    b.PagesRemaining(),
	}
}

// RecordDomainRequest increments the domain's counters. isPage also bumps
// pages_today; pages_today <= requests_today is preserved by always
// incrementing requests_today.
func (m *Manager) RecordDomainRequest(domain string, isPage bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkDateResetLocked()
	b := m.getOrCreateLocked(domain)
	b.RequestsToday++
	if isPage {
		b.PagesToday++
	}
}

// GetDomainBudget returns a copy of the domain's current budget.
func (m *Manager) GetDomainBudget(domain string) DailyBudget {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkDateResetLocked()
	return *m.getOrCreateLocked(domain)
}

// GetAllBudgets returns a snapshot of every tracked domain's budget.
func (m *Manager) GetAllBudgets() map[string]DailyBudget {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkDateResetLocked()
	out := make(map[string]DailyBudget, len(m.budgets))
	for domain, b := range m.budgets {
		out[domain] = *b
	}
	return out
}

// ResetForTest clears all tracked budgets. Exposed only for test harnesses;
// production code MUST NOT call it (§6).
func (m *Manager) ResetForTest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets = make(map[string]*DailyBudget)
}
