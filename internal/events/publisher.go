package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "connections"

// ConnectionEvent notifies downstream workers that a provider connection
// changed. The meeting-to-task pipeline subscribes to these to know when a
// user's Slack or Zoom account becomes usable.
type ConnectionEvent struct {
	EventID   string    `json:"event_id"`
	Event     string    `json:"event"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	TeamID    string    `json:"team_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits connection events to a RabbitMQ topic exchange. Publishing
// is best effort: a broker outage must never fail a user's connect flow.
type Publisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
}

// NewPublisherFromEnv connects to RabbitMQ when AMQP_URL is set. It returns
// (nil, nil) when eventing is not configured; a nil Publisher no-ops.
func NewPublisherFromEnv() (*Publisher, error) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		return nil, nil
	}

	p := &Publisher{url: url}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = channel
	return nil
}

// PublishUpserted emits a connection.upserted event. Errors are returned for
// logging only; callers must not fail the request on them.
func (p *Publisher) PublishUpserted(ctx context.Context, userID, provider, teamID string) error {
	if p == nil {
		return nil
	}

	event := ConnectionEvent{
		EventID:   uuid.New().String(),
		Event:     "connection.upserted",
		UserID:    userID,
		Provider:  provider,
		TeamID:    teamID,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	routingKey := fmt.Sprintf("connection.upserted.%s", provider)
	return p.channel.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    event.Timestamp,
		Body:         payload,
	})
}

// Close shuts down the broker connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
