package scrape

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces politeness per target host: at most one in-flight
// request and a minimum spacing between consecutive requests.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*hostState
	delay time.Duration
}

type hostState struct {
	limiter  *rate.Limiter
	inflight chan struct{}
}

// NewHostLimiter builds a limiter with the given minimum inter-request delay.
// Delays below one second are raised to one second.
func NewHostLimiter(delay time.Duration) *HostLimiter {
	if delay < time.Second {
		delay = time.Second
	}
	return &HostLimiter{
		hosts: make(map[string]*hostState),
		delay: delay,
	}
}

// Acquire blocks until the URL's host has a free slot and the politeness
// delay since the previous request has elapsed. The returned release function
// must be called when the request finishes.
func (l *HostLimiter) Acquire(ctx context.Context, rawURL string) (func(), error) {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	l.mu.Lock()
	state, ok := l.hosts[host]
	if !ok {
		state = &hostState{
			limiter:  rate.NewLimiter(rate.Every(l.delay), 1),
			inflight: make(chan struct{}, 1),
		}
		l.hosts[host] = state
	}
	l.mu.Unlock()

	select {
	case state.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("host slot wait canceled: %w", ctx.Err())
	}
	if err := state.limiter.Wait(ctx); err != nil {
		<-state.inflight
		return nil, fmt.Errorf("politeness wait: %w", err)
	}
	return func() { <-state.inflight }, nil
}
