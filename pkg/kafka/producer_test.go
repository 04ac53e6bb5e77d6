package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() models.OrderPlacedEvent {
	order := models.NewOrder(bson.NewObjectID())
	order.ID = bson.NewObjectID()
	details := []models.OrderDetail{
		{ItemID: bson.NewObjectID(), Qty: 2, Price: 7.5},
	}
	return models.NewOrderPlacedEvent(*order, details)
}

func TestPublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "order.placed", log: zap.NewNop()}
	evt := sampleEvent()

	require.NoError(t, p.PublishOrderPlaced(context.Background(), evt))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, evt.UserID.Hex(), string(msg.Key))

	var decoded models.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.OrderID, decoded.OrderID)
	assert.Equal(t, 15.0, decoded.Total)
	assert.Equal(t, models.EventOrderPlaced, decoded.Event)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishOrderPlacedWrapsWriterError(t *testing.T) {
	brokerDown := errors.New("dial tcp: connection refused")
	p := &Producer{writer: &fakeWriter{err: brokerDown}, topic: "order.placed", log: zap.NewNop()}

	err := p.PublishOrderPlaced(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, brokerDown)
}
