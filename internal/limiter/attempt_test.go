package limiter

import (
	"testing"
	"time"

	"github.com/mediashelf/mediashelf/internal/config"
)

// newTestLimiter returns a limiter with a controllable clock and the sweep
// goroutine stopped.
func newTestLimiter(t *testing.T, threshold int, window, cooldown time.Duration) (*AttemptLimiter, *time.Time) {
	t.Helper()

	l := NewAttemptLimiter(config.AuthLimitConfig{
		Threshold:     threshold,
		Window:        window,
		Cooldown:      cooldown,
		SweepInterval: time.Hour,
	})
	t.Cleanup(l.Close)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAttemptLimiter(t *testing.T) {
	t.Run("AllowsUpToThreshold", func(t *testing.T) {
		l, _ := newTestLimiter(t, 3, time.Minute, time.Minute)

		for i := 0; i < 3; i++ {
			if ok, _ := l.Allow("a@example.com"); !ok {
				t.Fatalf("attempt %d should be allowed", i+1)
			}
		}
		ok, retry := l.Allow("a@example.com")
		if ok {
			t.Fatal("attempt over threshold should be blocked")
		}
		if retry != time.Minute {
			t.Errorf("retryAfter = %v, want %v", retry, time.Minute)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1, time.Minute, time.Minute)

		l.Allow("a@example.com")
		l.Allow("a@example.com") // blocks a
		if ok, _ := l.Allow("b@example.com"); !ok {
			t.Fatal("unrelated key should not be affected")
		}
	})

	t.Run("BlockPersistsThroughCooldown", func(t *testing.T) {
		l, now := newTestLimiter(t, 1, time.Minute, 10*time.Minute)

		l.Allow("a@example.com")
		l.Allow("a@example.com")

		*now = now.Add(5 * time.Minute)
		ok, retry := l.Allow("a@example.com")
		if ok {
			t.Fatal("should still be blocked mid-cooldown")
		}
		if retry != 5*time.Minute {
			t.Errorf("retryAfter = %v, want %v", retry, 5*time.Minute)
		}
	})

	t.Run("AllowsAgainAfterCooldown", func(t *testing.T) {
		l, now := newTestLimiter(t, 1, time.Minute, 10*time.Minute)

		l.Allow("a@example.com")
		l.Allow("a@example.com")

		*now = now.Add(11 * time.Minute)
		if ok, _ := l.Allow("a@example.com"); !ok {
			t.Fatal("should be allowed after cooldown")
		}
	})

	t.Run("WindowExpiryResetsCount", func(t *testing.T) {
		l, now := newTestLimiter(t, 2, time.Minute, time.Minute)

		l.Allow("a@example.com")
		l.Allow("a@example.com")

		*now = now.Add(2 * time.Minute)
		if ok, _ := l.Allow("a@example.com"); !ok {
			t.Fatal("fresh window should allow again")
		}
		if ok, _ := l.Allow("a@example.com"); !ok {
			t.Fatal("second attempt in fresh window should be allowed")
		}
	})

	t.Run("ResetClearsKey", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1, time.Minute, time.Minute)

		l.Allow("a@example.com")
		l.Allow("a@example.com")

		l.Reset("a@example.com")
		if ok, _ := l.Allow("a@example.com"); !ok {
			t.Fatal("reset key should be allowed")
		}
	})

	t.Run("SweepDropsStaleRecords", func(t *testing.T) {
		l, now := newTestLimiter(t, 5, time.Minute, time.Minute)

		l.Allow("stale@example.com")
		*now = now.Add(3 * time.Minute)
		l.sweep()

		l.mu.Lock()
		_, exists := l.records["stale@example.com"]
		l.mu.Unlock()
		if exists {
			t.Fatal("stale record should have been swept")
		}
	})

	t.Run("SweepKeepsBlockedRecords", func(t *testing.T) {
		l, now := newTestLimiter(t, 1, time.Minute, 30*time.Minute)

		l.Allow("blocked@example.com")
		l.Allow("blocked@example.com")

		*now = now.Add(5 * time.Minute)
		l.sweep()

		if ok, _ := l.Allow("blocked@example.com"); ok {
			t.Fatal("blocked key must survive a sweep mid-cooldown")
		}
	})
}
