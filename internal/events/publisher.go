// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/retail-pos/internal/order"
)

const (
	EventsExchange         = "retail.events"
	OrderCreatedRoutingKey = "order.created.v1"
	EventTypeOrderCreated  = "OrderCreated"
	defaultProducer        = "retail-pos"
	publishTimeout         = 3 * time.Second
)

type OrderCreatedItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID      string             `json:"orderId"`
	CustomerName string             `json:"customerName"`
	TotalAmount  decimal.Decimal    `json:"totalAmount"`
	Status       string             `json:"status"`
	Items        []OrderCreatedItem `json:"items"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch       Channel
	producer string
	now      func() time.Time
}

// Dial connects to the broker at url.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	log.Info().Msg("Connected to RabbitMQ")
	return conn, nil
}

// NewPublisher opens a channel on conn and declares the events exchange.
func NewPublisher(conn *amqp.Connection, producer string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return NewChannelPublisher(ch, producer), nil
}

func NewChannelPublisher(ch Channel, producer string) *Publisher {
	if producer == "" {
		producer = defaultProducer
	}
	return &Publisher{ch: ch, producer: producer, now: time.Now}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o order.Order) error {
	payload := OrderCreatedPayload{
		OrderID:      o.ID.String(),
		CustomerName: o.CustomerName,
		TotalAmount:  o.TotalAmount,
		Status:       o.Status.String(),
		Items:        make([]OrderCreatedItem, 0, len(o.Items)),
		CreatedAt:    o.CreatedAt,
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, OrderCreatedItem{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated payload: %w", err)
	}

	eventID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}

	env := EventEnvelope{
		EventName:    EventTypeOrderCreated,
		EventVersion: 1,
		EventID:      eventID.String(),
		Producer:     p.producer,
		PartitionKey: o.ID.String(),
		OccurredAt:   p.now().UTC(),
		Payload:      raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated envelope: %w", err)
	}

	if err := p.publishJSON(ctx, OrderCreatedRoutingKey, env.EventID, body); err != nil {
		return fmt.Errorf("publish OrderCreated: %w", err)
	}

	log.Debug().Stringer("order_id", o.ID).Str("event_id", env.EventID).Msg("events: order created published")
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
