// Package limiter implements the in-process attempt limiter guarding
// authentication-related actions (login, registration, invite-code checks).
// Unlike the Redis token bucket in the middleware package, which shapes
// overall request throughput, this limiter counts failed-style attempts per
// key (an email address or invite code) in a fixed window and blocks the key
// for a cool-down once a threshold is crossed.
package limiter

import (
	"sync"
	"time"

	"github.com/mediashelf/mediashelf/internal/config"
)

type attemptRecord struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

// AttemptLimiter tracks per-key attempt counts. All methods are safe for
// concurrent use.
type AttemptLimiter struct {
	mu      sync.Mutex
	records map[string]*attemptRecord

	threshold int
	window    time.Duration
	cooldown  time.Duration

	now  func() time.Time // injectable clock for tests
	stop chan struct{}
}

// NewAttemptLimiter builds a limiter from config. Call Close to stop the
// background sweep.
func NewAttemptLimiter(cfg config.AuthLimitConfig) *AttemptLimiter {
	l := &AttemptLimiter{
		records:   make(map[string]*attemptRecord),
		threshold: cfg.Threshold,
		window:    cfg.Window,
		cooldown:  cfg.Cooldown,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go l.sweepLoop(cfg.SweepInterval)
	return l
}

// Allow records one attempt for key and reports whether it may proceed.
// Crossing the threshold within the window blocks the key until the
// cool-down elapses; attempts during the cool-down are rejected without
// extending it. retryAfter is zero when allowed.
func (l *AttemptLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		l.records[key] = &attemptRecord{count: 1, windowStart: now}
		return true, 0
	}

	if !rec.blockedUntil.IsZero() {
		if now.Before(rec.blockedUntil) {
			return false, rec.blockedUntil.Sub(now)
		}
		// Cool-down over; start a fresh window.
		*rec = attemptRecord{count: 1, windowStart: now}
		return true, 0
	}

	if now.Sub(rec.windowStart) > l.window {
		*rec = attemptRecord{count: 1, windowStart: now}
		return true, 0
	}

	rec.count++
	if rec.count > l.threshold {
		rec.blockedUntil = now.Add(l.cooldown)
		return false, l.cooldown
	}
	return true, 0
}

// Reset clears the record for key, e.g. after a successful login.
func (l *AttemptLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.records, key)
	l.mu.Unlock()
}

// Close stops the background sweep goroutine.
func (l *AttemptLimiter) Close() {
	close(l.stop)
}

func (l *AttemptLimiter) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			l.sweep()
		}
	}
}

// sweep drops records whose window and cool-down have both lapsed.
func (l *AttemptLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	for key, rec := range l.records {
		stale := now.Sub(rec.windowStart) > l.window
		if !rec.blockedUntil.IsZero() && now.Before(rec.blockedUntil) {
			stale = false
		}
		if stale {
			delete(l.records, key)
		}
	}
	l.mu.Unlock()
}
