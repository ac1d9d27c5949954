package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter     *rate.Limiter
	bannedUntil time.Time
	lastSeen    time.Time
}

// Memory keeps one token bucket per key inside the process
type Memory struct {
	policy Policy
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
}

var _ Throttler = (*Memory)(nil)

// NewMemory builds an in-process throttler. now may be nil to use the wall clock
func NewMemory(policy Policy, now func() time.Time) (m *Memory, err error) {
	policy, err = policy.Normalize()
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}

	m = &Memory{
		policy:  policy,
		now:     now,
		entries: make(map[string]*entry),
	}
	return m, nil
}

func (m *Memory) Decide(ctx context.Context, gatewayId uint64, client string) (verdict Verdict, err error) {
	if err = ctx.Err(); err != nil {
		return Allow, fmt.Errorf("failed to decide: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	key := Key(gatewayId, client)
	e, found := m.entries[key]
	if !found {
		e = &entry{
			limiter: rate.NewLimiter(rate.Every(m.policy.Period/time.Duration(m.policy.Limit)), m.policy.Limit),
		}
		m.entries[key] = e
	}
	e.lastSeen = now

	if now.Before(e.bannedUntil) {
		return Deny, nil
	}
	if e.limiter.AllowN(now, 1) {
		return Allow, nil
	}

	e.bannedUntil = now.Add(m.policy.BanDuration)
	return Deny, nil
}

// sweep drops keys idle long enough to have a full bucket and no ban
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.policy.Period {
		return
	}
	m.lastSweep = now

	idle := max(m.policy.Period, m.policy.BanDuration)
	for key, e := range m.entries {
		if now.Sub(e.lastSeen) > idle && !now.Before(e.bannedUntil) {
			delete(m.entries, key)
		}
	}
}

// Len is the number of tracked keys
func (m *Memory) Len() (n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
