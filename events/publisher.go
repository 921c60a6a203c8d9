// Package events publishes order lifecycle events to a RabbitMQ topic
// exchange so downstream consumers (notifications, dashboards) can subscribe
// instead of polling. Publishing is best-effort: the REST API never fails a
// request because the broker is down, and the whole package degrades to a
// no-op when no broker is configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"food-ordering-api/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderEvent is the JSON payload emitted for every created order and every
// committed status transition.
type OrderEvent struct {
	OrderID       uint               `json:"order_id"`
	CustomerID    uint               `json:"customer_id"`
	RestaurantID  uint               `json:"restaurant_id"`
	DeliveryGuyID *uint              `json:"delivery_guy_id,omitempty"`
	FromStatus    models.OrderStatus `json:"from_status,omitempty"`
	Status        models.OrderStatus `json:"status"`
	TotalAmount   float64            `json:"total_amount"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// Publisher emits order events. Implementations must be safe for concurrent
// use.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
	Close() error
}

// Default is the process-wide publisher, a no-op until Init succeeds.
var Default Publisher = noopPublisher{}

type noopPublisher struct{}

func (noopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
func (noopPublisher) Close() error                                        { return nil }

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Init connects to the broker and installs an AMQP-backed Default publisher.
// An empty URL leaves the no-op in place.
func Init(url, exchange string) error {
	if url == "" {
		return nil
	}
	p, err := NewAMQPPublisher(url, exchange)
	if err != nil {
		return err
	}
	Default = p
	return nil
}

// NewAMQPPublisher dials the broker and declares the topic exchange.
func NewAMQPPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *amqpPublisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Routing key carries the new status so consumers can bind selectively,
	// e.g. "order.status.delivered".
	key := "order.status." + string(ev.Status)
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Emit publishes ev on Default and logs on failure. Callers treat eventing as
// fire-and-forget.
func Emit(ctx context.Context, ev OrderEvent) {
	if err := Default.PublishOrderEvent(ctx, ev); err != nil {
		log.Printf("events: publish order %d failed: %v", ev.OrderID, err)
	}
}
