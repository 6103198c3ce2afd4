// Package queue defines recommendation events exchanged over RabbitMQ and
// the background consumer turning them into notification log lines.
package queue

// Routing keys double as queue names on the default exchange.
const (
	RecommendationQueue = "recommendation.events"
)

// Event kinds carried in RecommendationEvent.Kind.
const (
	KindSent     = "sent"
	KindResolved = "resolved"
)

// RecommendationEvent is published when a recommendation is sent or when the
// recipient resolves it to hit/miss. It carries enough to notify or log
// without querying the primary database.
type RecommendationEvent struct {
	EventID          string `json:"event_id"`
	Kind             string `json:"kind"`
	RecommendationID uint64 `json:"recommendation_id"`
	SenderID         uint64 `json:"sender_id"`
	SenderName       string `json:"sender_name"`
	RecipientID      uint64 `json:"recipient_id"`
	RecipientName    string `json:"recipient_name"`
	MediaType        string `json:"media_type"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	OccurredAt       string `json:"occurred_at"`
}
