package util

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// LookupLimiter paces outbound calls per lookup service ("hunter", "github",
// "ddg"), each with its own token bucket so one slow service never spends
// another's budget.
type LookupLimiter struct {
	mu       sync.Mutex
	services map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func NewLookupLimiter(reqPerSec float64, burst int) *LookupLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &LookupLimiter{
		services: make(map[string]*rate.Limiter),
		r:        rate.Limit(reqPerSec),
		b:        burst,
	}
}

func (ll *LookupLimiter) bucket(service string) *rate.Limiter {
	service = strings.ToLower(strings.TrimSpace(service))
	if service == "" {
		service = "_"
	}

	ll.mu.Lock()
	defer ll.mu.Unlock()
	lim, ok := ll.services[service]
	if !ok {
		lim = rate.NewLimiter(ll.r, ll.b)
		ll.services[service] = lim
	}
	return lim
}

// Wait blocks until service may be called again. A nil limiter never blocks.
func (ll *LookupLimiter) Wait(ctx context.Context, service string) error {
	if ll == nil {
		return nil
	}
	return ll.bucket(service).Wait(ctx)
}
