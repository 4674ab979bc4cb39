package http

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// DomainLimiter keeps one token bucket per host. Requests to one host never
// wait on another host's bucket.
type DomainLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewDomainLimiter allows rps requests per second per host without
// bursting. A non-positive rps disables limiting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &DomainLimiter{limit: limit, burst: 1, hosts: make(map[string]*rate.Limiter)}
}

// Wait blocks until a request to host is allowed or ctx ends.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	return d.bucket(host).Wait(ctx)
}

func (d *DomainLimiter) bucket(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.hosts[host]
	if !ok {
		l = rate.NewLimiter(d.limit, d.burst)
		d.hosts[host] = l
	}
	return l
}
