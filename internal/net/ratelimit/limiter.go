package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter provides per-route-class rate limiting using token buckets. The
// Marquee API throttles workspace CRUD, report scheduling and data queries
// independently, so each route class gets its own bucket rather than one
// global limiter starving cheap calls behind expensive ones.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	classes  map[string]Class
	fallback Class
}

// Class is the token bucket shape for one route class.
type Class struct {
	RPS   float64
	Burst int
}

// NewLimiter creates a limiter with per-class overrides and a fallback shape
// for route classes not listed.
func NewLimiter(fallback Class, classes map[string]Class) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		classes:  classes,
		fallback: fallback,
	}
}

func (l *Limiter) getLimiter(class string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[class]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[class]; exists {
		return limiter
	}

	shape, ok := l.classes[class]
	if !ok {
		shape = l.fallback
	}
	limiter = rate.NewLimiter(rate.Limit(shape.RPS), shape.Burst)
	l.limiters[class] = limiter
	return limiter
}

// Allow reports whether a request in the given route class may proceed now.
func (l *Limiter) Allow(class string) bool {
	return l.getLimiter(class).Allow()
}

// Wait blocks until a request in the given route class is allowed or the
// context is cancelled.
func (l *Limiter) Wait(ctx context.Context, class string) error {
	return l.getLimiter(class).Wait(ctx)
}
