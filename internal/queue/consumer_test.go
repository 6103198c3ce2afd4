package queue

import (
	"errors"
	"strings"
	"testing"
)

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestSessionWith(t *testing.T) {
	t.Run("ClosesConnectionOnError", func(t *testing.T) {
		conn := &countingCloser{}
		want := errors.New("deliveries channel closed")
		if err := sessionWith(conn, func() error { return want }); err != want {
			t.Errorf("err = %v, want %v", err, want)
		}
		if conn.closed != 1 {
			t.Errorf("closed %d times, want exactly once per session", conn.closed)
		}
	})

	t.Run("ClosesConnectionOnCleanReturn", func(t *testing.T) {
		conn := &countingCloser{}
		if err := sessionWith(conn, func() error { return nil }); err != nil {
			t.Errorf("err = %v, want nil", err)
		}
		if conn.closed != 1 {
			t.Errorf("closed %d times, want exactly once", conn.closed)
		}
	})
}

func TestFormatNotification(t *testing.T) {
	t.Run("Sent", func(t *testing.T) {
		line := formatNotification(RecommendationEvent{
			Kind:             KindSent,
			RecommendationID: 7,
			Title:            "Heat",
			MediaType:        "movie",
			SenderName:       "ana",
			RecipientName:    "ben",
			OccurredAt:       "2025-06-01T12:00:00Z",
		})
		for _, want := range []string{"Recommendation sent", "id=7", `"Heat"`, `from="ana"`, `to="ben"`} {
			if !strings.Contains(line, want) {
				t.Errorf("line %q missing %q", line, want)
			}
		}
	})

	t.Run("Resolved", func(t *testing.T) {
		line := formatNotification(RecommendationEvent{
			Kind:             KindResolved,
			RecommendationID: 7,
			Title:            "Heat",
			MediaType:        "movie",
			RecipientName:    "ben",
			Status:           "HIT",
			OccurredAt:       "2025-06-02T09:30:00Z",
		})
		for _, want := range []string{"Recommendation resolved", "verdict=HIT", `by="ben"`} {
			if !strings.Contains(line, want) {
				t.Errorf("line %q missing %q", line, want)
			}
		}
	})
}
