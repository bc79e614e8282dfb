package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/retail-pos/internal/order"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []publishedMessage
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_PublishOrderCreated(t *testing.T) {
	ch := &fakeChannel{}
	p := NewChannelPublisher(ch, "")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	o := order.Order{
		ID:           uuid.Must(uuid.NewV4()),
		CustomerName: "Jane",
		TotalAmount:  decimal.NewFromInt(250),
		Status:       order.StatusPending,
		CreatedAt:    now,
		Items: []order.Item{
			{ProductID: uuid.Must(uuid.NewV4()), ProductName: "Product A", Price: decimal.NewFromInt(100), Quantity: 2},
			{ProductID: uuid.Must(uuid.NewV4()), ProductName: "Product B", Price: decimal.NewFromInt(50), Quantity: 1},
		},
	}

	require.NoError(t, p.PublishOrderCreated(context.Background(), o))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, EventsExchange, got.exchange)
	assert.Equal(t, OrderCreatedRoutingKey, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(got.msg.Body, &env))
	require.NoError(t, env.Validate(EventTypeOrderCreated, 1))
	assert.Equal(t, defaultProducer, env.Producer)
	assert.Equal(t, o.ID.String(), env.PartitionKey)
	assert.Equal(t, env.EventID, got.msg.MessageId)
	assert.True(t, now.Equal(env.OccurredAt))

	var payload OrderCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "Jane", payload.CustomerName)
	assert.Equal(t, "pending", payload.Status)
	assert.True(t, decimal.NewFromInt(250).Equal(payload.TotalAmount))
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "Product A", payload.Items[0].ProductName)
	assert.Equal(t, 2, payload.Items[0].Quantity)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewChannelPublisher(ch, "pos-test")

	err := p.PublishOrderCreated(context.Background(), order.Order{ID: uuid.Must(uuid.NewV4())})
	require.Error(t, err)
	assert.ErrorIs(t, err, ch.err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestEnvelope_Validate(t *testing.T) {
	valid := EventEnvelope{EventName: EventTypeOrderCreated, EventVersion: 1, EventID: "e1", PartitionKey: "o1"}

	tests := []struct {
		name   string
		mutate func(e *EventEnvelope)
	}{
		{name: "wrong name", mutate: func(e *EventEnvelope) { e.EventName = "StockReserved" }},
		{name: "wrong version", mutate: func(e *EventEnvelope) { e.EventVersion = 2 }},
		{name: "missing partition key", mutate: func(e *EventEnvelope) { e.PartitionKey = "" }},
		{name: "missing event id", mutate: func(e *EventEnvelope) { e.EventID = "" }},
	}

	require.NoError(t, valid.Validate(EventTypeOrderCreated, 1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			assert.Error(t, e.Validate(EventTypeOrderCreated, 1))
		})
	}
}
