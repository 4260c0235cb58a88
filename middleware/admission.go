package middleware

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/xraph/usecase"
)

type limitState struct {
	config  usecase.Limit
	limiter *rate.Limiter
	active  int
}

func newLimitState(cfg usecase.Limit) *limitState {
	ls := &limitState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		ls.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return ls
}

// Limits tracks admission state per use case name. Unlike RateLimit it
// never waits: a run over its limit fails at once with
// usecase.ErrThrottled. It is safe for concurrent use.
type Limits struct {
	mu     sync.Mutex
	states map[string]*limitState
}

// NewLimits creates a Limits with the given configurations. Use cases not
// listed have no limits.
func NewLimits(configs ...usecase.Limit) *Limits {
	l := &Limits{states: make(map[string]*limitState, len(configs))}
	for _, cfg := range configs {
		l.states[cfg.Name] = newLimitState(cfg)
	}
	return l
}

// Acquire reports whether a run of name may start and, if so, counts it
// as active. The caller must call Release when the run settles.
func (l *Limits) Acquire(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ls := l.states[name]
	if ls == nil {
		return true
	}
	if ls.config.MaxConcurrency > 0 && ls.active >= ls.config.MaxConcurrency {
		return false
	}
	if ls.limiter != nil && !ls.limiter.Allow() {
		return false
	}
	ls.active++
	return true
}

// Release decrements the active count for name.
func (l *Limits) Release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ls := l.states[name]; ls != nil && ls.active > 0 {
		ls.active--
	}
}

// Set updates (or creates) the limits for cfg.Name, keeping the current
// active count.
func (l *Limits) Set(cfg usecase.Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ls := newLimitState(cfg)
	if existing := l.states[cfg.Name]; existing != nil {
		ls.active = existing.active
	}
	l.states[cfg.Name] = ls
}

// Active returns the number of admitted runs of name that have not settled.
func (l *Limits) Active(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ls := l.states[name]; ls != nil {
		return ls.active
	}
	return 0
}

// Admission returns middleware that enforces l. An admitted run holds
// its slot until Execute returns, panics, or its future settles.
func Admission(l *Limits) Middleware {
	return func(ctx context.Context, r *usecase.Run, next Handler) (any, error) {
		if !l.Acquire(r.Name) {
			return nil, fmt.Errorf("admission %s: %w", r.Name, usecase.ErrThrottled)
		}
		return Settle(ctx, next, func(any, error) { l.Release(r.Name) })
	}
}
