package crossref

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 50
	defaultInterval  = time.Second
)

// Limiter paces registry requests. Its rate follows the X-Rate-Limit-Limit and
// X-Rate-Limit-Interval headers Crossref sends with every response, and a
// Retry-After header pauses all requests until it expires.
type Limiter struct {
	lim *rate.Limiter

	mu       sync.Mutex
	limit    int
	interval time.Duration
	cooldown time.Time
	now      func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		lim:      rate.NewLimiter(perSecond(defaultRateLimit, defaultInterval), defaultRateLimit),
		limit:    defaultRateLimit,
		interval: defaultInterval,
		now:      time.Now,
	}
}

func perSecond(limit int, interval time.Duration) rate.Limit {
	return rate.Limit(float64(limit) / interval.Seconds())
}

// Wait blocks until a request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	wait := l.cooldown.Sub(l.now())
	l.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.lim.Wait(ctx)
}

// Limit returns the current number of requests allowed per interval.
func (l *Limiter) Limit() (int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit, l.interval
}

func (l *Limiter) UpdateFromResponse(resp *http.Response) {
	if l == nil || resp == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			until := l.now().Add(time.Duration(seconds) * time.Second)
			if until.After(l.cooldown) {
				l.cooldown = until
			}
		}
	}

	limit, interval := l.limit, l.interval
	if v := resp.Header.Get("X-Rate-Limit-Limit"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			limit = n
		}
	}
	if v := resp.Header.Get("X-Rate-Limit-Interval"); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			interval = d
		}
	}

	if limit != l.limit || interval != l.interval {
		l.limit, l.interval = limit, interval
		l.lim.SetLimit(perSecond(limit, interval))
		l.lim.SetBurst(limit)
	}
}
