package fetcher

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostGate enforces a minimum interval between fetches of the same host
// (§4.1, §9): one golang.org/x/time/rate.Limiter per host, refilling one
// token every interval with a burst of 1, so a fetch for host h blocks
// until its limiter has a token to spend. Distinct hosts never block each
// other; a limiter is allocated lazily per host and kept for the gate's
// lifetime.
type HostGate struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostGate creates a gate with the given minimum interval.
func NewHostGate(interval time.Duration) *HostGate {
	return &HostGate{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (g *HostGate) limiterFor(host string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(g.interval), 1)
		g.limiters[host] = l
	}
	return l
}

// Wait blocks until host may be fetched, then reserves the slot. It returns
// the duration actually waited, for metrics.
func (g *HostGate) Wait(host string) time.Duration {
	l := g.limiterFor(host)

	start := time.Now()
	r := l.ReserveN(start, 1)
	delay := r.DelayFrom(start)
	if delay > 0 {
		time.Sleep(delay)
	}
	return delay
}
