package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget tracks the REST rate limit reported by GitHub and makes
// callers wait once it is exhausted.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	cooldown  time.Time
	now       func() time.Time
	changed   chan struct{}
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: -1,
		now:       time.Now,
		changed:   make(chan struct{}),
	}
}

// Remaining returns the last observed remaining request count, or -1 before
// the first response.
func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire returns once a request may be sent: immediately while requests
// remain (or nothing is known yet), otherwise after the reset or Retry-After
// deadline passes or a newer response refreshes the budget.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		var until time.Time
		switch {
		case now.Before(b.cooldown):
			until = b.cooldown
		case b.remaining == 0 && now.Before(b.reset):
			until = b.reset
		default:
			if b.remaining > 0 {
				b.remaining--
			}
			b.mu.Unlock()
			return nil
		}
		ch := b.changed
		b.mu.Unlock()

		timer := time.NewTimer(until.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-ch:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Observe records Retry-After and X-RateLimit-* headers.
func (b *RequestBudget) Observe(resp *http.Response) {
	if b == nil || resp == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false
	if v, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && v > 0 {
		if until := b.now().Add(time.Duration(v) * time.Second); until.After(b.cooldown) {
			b.cooldown = until
			changed = true
		}
	}
	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil && v >= 0 && v != b.remaining {
		b.remaining = v
		changed = true
	}
	if v, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil && v > 0 {
		if reset := time.Unix(v, 0); !reset.Equal(b.reset) {
			b.reset = reset
			changed = true
		}
	}

	if changed {
		close(b.changed)
		b.changed = make(chan struct{})
	}
}
