package repository

import (
	"testing"
	"time"
)

func TestWatchedTransition(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("TurningOnStampsWatchedAt", func(t *testing.T) {
		watched, watchedAt := watchedTransition(false, now)
		if !watched {
			t.Error("toggle from unwatched should mark the item watched")
		}
		if !watchedAt.Valid || !watchedAt.Time.Equal(now) {
			t.Errorf("watchedAt = %+v, want stamped with %v", watchedAt, now)
		}
	})

	t.Run("TurningOffClearsStamp", func(t *testing.T) {
		watched, watchedAt := watchedTransition(true, now)
		if watched {
			t.Error("toggle from watched should mark the item unwatched")
		}
		if watchedAt.Valid {
			t.Errorf("watchedAt = %+v, want cleared", watchedAt)
		}
	})

	t.Run("DoubleToggleRoundTrips", func(t *testing.T) {
		mid, _ := watchedTransition(false, now)
		final, finalAt := watchedTransition(mid, now.Add(time.Hour))
		if final || finalAt.Valid {
			t.Errorf("double toggle ended at watched=%v watchedAt=%+v, want the initial state", final, finalAt)
		}
	})
}
