package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartRecommendationConsumer connects to RabbitMQ, declares the durable
// recommendation queue and consumes events, appending one notification line
// per event to logs/notifications.log. It runs a reconnect loop with capped
// exponential backoff and keeps running across broker restarts; processing
// errors are logged and the offending message rejected without requeue so a
// poison message cannot wedge the consumer.
func StartRecommendationConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("recommendation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := sessionWith(conn, func() error { return consumeLoop(conn) }); err != nil {
			log.Printf("recommendation-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

// sessionWith runs one consume session and closes the connection no matter
// how the session ends. The old connection must be gone before re-dialing;
// a broker hiccup would otherwise leak one connection per reconnect.
func sessionWith(conn io.Closer, session func() error) error {
	err := session()
	_ = conn.Close()
	return err
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("recommendation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(RecommendationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(RecommendationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("recommendation-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev RecommendationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatNotification(ev) + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatNotification renders one human-readable line per event.
func formatNotification(ev RecommendationEvent) string {
	switch ev.Kind {
	case KindResolved:
		return fmt.Sprintf("[%s] Recommendation resolved | id=%d | %q (%s) | by=%q | verdict=%s",
			ev.OccurredAt, ev.RecommendationID, ev.Title, ev.MediaType, ev.RecipientName, ev.Status)
	default:
		return fmt.Sprintf("[%s] Recommendation sent | id=%d | %q (%s) | from=%q to=%q",
			ev.OccurredAt, ev.RecommendationID, ev.Title, ev.MediaType, ev.SenderName, ev.RecipientName)
	}
}
