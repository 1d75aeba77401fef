package scrape

import (
	"context"
	"sync"
	"time"
)

// HostLimiter enforces a minimum interval between requests to the same
// host. Each platform lives on its own domain, so platforms are
// independently limited; a refresh hitting leetcode does not delay the
// following github fetch more than necessary.
type HostLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time

	// overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		interval: interval,
		last:     map[string]time.Time{},
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until a request to `host` is allowed, then records the
// reservation. Returns early with the context error on cancellation.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.now()
	wait := l.interval - now.Sub(l.last[host])
	if wait < 0 {
		wait = 0
	}
	l.last[host] = now.Add(wait)
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}
