package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order lifecycle events keyed by user id, so one user's
// events stay on one partition.
type Producer struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	log.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &Producer{writer: w, topic: topic, log: log.Named("kafka")}
}

func (p *Producer) PublishOrderPlaced(ctx context.Context, evt models.OrderPlacedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Event, err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.UserID.Hex()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(evt.Event)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s order=%s topic=%s: %w", evt.Event, evt.OrderID.Hex(), p.topic, err)
	}

	p.log.Info("Order event published",
		zap.String("event", evt.Event),
		zap.String("order_id", evt.OrderID.Hex()),
		zap.Float64("total", evt.Total))
	return nil
}

func (p *Producer) Close() error {
	p.log.Info("Closing Kafka writer", zap.String("topic", p.topic))
	return p.writer.Close()
}
