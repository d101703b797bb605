package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/config"
	"ms-storefront/internal/models"
)

type message struct {
	topic, key string
	value      []byte
}

type memPublisher struct {
	sent []message
}

func (m *memPublisher) Publish(ctx context.Context, topic, key string, value []byte) error {
	m.sent = append(m.sent, message{topic, key, value})
	return nil
}

func (m *memPublisher) Close() error { return nil }

func TestProducerTopicsAndKeys(t *testing.T) {
	pub := &memPublisher{}
	p := NewProducer(pub, config.Load().Kafka.Topics)
	ctx := context.Background()

	eventID := int64(7)
	require.NoError(t, p.PublishOrderCreated(ctx, models.OrderWithTickets{
		Order:   models.Order{OrderNumber: "LV1", OrderType: models.OrderTypeEvent},
		EventID: &eventID,
		Tickets: []string{"LVT1", "LVT2"},
	}))
	require.NoError(t, p.TicketsIssued(ctx, []models.Ticket{{TicketNumber: "LVT1"}, {TicketNumber: "LVT2"}}))
	require.NoError(t, p.TicketVerified(ctx, models.Ticket{TicketNumber: "LVT1", Status: models.TicketStatusUsed}))
	require.NoError(t, p.PublishOrderUpdated(ctx, models.Order{OrderNumber: "LV1", Status: models.OrderStatusShipped}))

	require.Len(t, pub.sent, 5)
	assert.Equal(t, "storefront.order.created", pub.sent[0].topic)
	assert.Equal(t, "LV1", pub.sent[0].key)
	assert.Equal(t, "storefront.ticket.issued", pub.sent[1].topic)
	assert.Equal(t, "LVT2", pub.sent[2].key)
	assert.Equal(t, "storefront.ticket.verified", pub.sent[3].topic)
	assert.Equal(t, "storefront.order.updated", pub.sent[4].topic)

	var created OrderEvent
	require.NoError(t, json.Unmarshal(pub.sent[0].value, &created))
	assert.Equal(t, "order.created", created.Type)
	assert.Equal(t, []string{"LVT1", "LVT2"}, created.Tickets)
	require.NotNil(t, created.EventID)
	assert.Equal(t, int64(7), *created.EventID)
}
