package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: no brokers configured")
	}
	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		Transport: &kafka.Transport{
			SASL: mechanism,
			TLS:  tlsConfig(cfg),
		},
	}
	return newKafkaPublisher(writer, cfg.Topic), nil
}

func newKafkaPublisher(writer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish implements domain.PublisherPort
func (k *KafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now()
	km := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}
	return k.writer.WriteMessages(ctx, km...)
}

// PublishLockdownEvent keys by location so all events of a location land in one partition
func (k *KafkaPublisher) PublishLockdownEvent(ctx context.Context, event LockdownEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lockdown event: %w", err)
	}
	return k.Publish(ctx, k.topic, domain.Message{Key: []byte(event.LocationID), Value: v})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
