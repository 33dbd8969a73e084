package github

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitResponse(remaining, reset, retryAfter string) *http.Response {
	resp := &http.Response{Header: make(http.Header)}
	if remaining != "" {
		resp.Header.Set("X-RateLimit-Remaining", remaining)
	}
	if reset != "" {
		resp.Header.Set("X-RateLimit-Reset", reset)
	}
	if retryAfter != "" {
		resp.Header.Set("Retry-After", retryAfter)
	}
	return resp
}

func TestRequestBudget(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("unknown budget does not block", func(t *testing.T) {
		b := NewRequestBudget()
		require.NoError(t, b.Acquire(context.Background()))
		assert.Equal(t, -1, b.Remaining())
	})

	t.Run("observe sets remaining and reset", func(t *testing.T) {
		b := NewRequestBudget()
		b.now = func() time.Time { return fixedNow }
		b.Observe(rateLimitResponse("10", "1700000000", ""))

		assert.Equal(t, 10, b.Remaining())
		assert.True(t, b.reset.Equal(time.Unix(1700000000, 0)))

		require.NoError(t, b.Acquire(context.Background()))
		assert.Equal(t, 9, b.Remaining())
	})

	t.Run("ignores malformed headers", func(t *testing.T) {
		b := NewRequestBudget()
		b.Observe(rateLimitResponse("abc", "-5", "soon"))
		assert.Equal(t, -1, b.Remaining())
		b.Observe(nil)
	})

	t.Run("exhausted budget waits for context", func(t *testing.T) {
		b := NewRequestBudget()
		b.now = func() time.Time { return fixedNow }
		b.Observe(rateLimitResponse("0", "1900000000", ""))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, b.Acquire(ctx), context.DeadlineExceeded)
	})

	t.Run("exhausted budget resumes after refresh", func(t *testing.T) {
		b := NewRequestBudget()
		b.now = func() time.Time { return fixedNow }
		b.Observe(rateLimitResponse("0", "1900000000", ""))

		done := make(chan error, 1)
		go func() { done <- b.Acquire(context.Background()) }()

		time.Sleep(10 * time.Millisecond)
		b.Observe(rateLimitResponse("100", "", ""))

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Acquire did not resume after budget refresh")
		}
	})

	t.Run("retry after sets cooldown", func(t *testing.T) {
		b := NewRequestBudget()
		b.now = func() time.Time { return fixedNow }
		b.Observe(rateLimitResponse("", "", "30"))
		assert.True(t, b.cooldown.Equal(fixedNow.Add(30*time.Second)))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, b.Acquire(ctx), context.Canceled)
	})
}
