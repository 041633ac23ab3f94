package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"catalog/internal/domain/model"

	"github.com/segmentio/kafka-go"
)

// 商品イベントを Kafka に送る。キーは商品IDなので同じ商品のイベントは順序が保たれる。
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            3,
			WriteBackoffMin:        100 * time.Millisecond,
			WriteBackoffMax:        time.Second,
		},
	}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event model.ProductEvent) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(event model.ProductEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal product event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.ProductID, 10)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}, nil
}
