package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type DefaultKafkaSubscriber struct {
	cfg    KafkaConfig
	dialer *kafka.Dialer
	log    *zap.Logger
}

func NewDefaultKafkaSubscriber(cfg KafkaConfig, log *zap.Logger) (*DefaultKafkaSubscriber, error) {
	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka subscriber: %w", err)
	}
	return &DefaultKafkaSubscriber{
		cfg: cfg,
		dialer: &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           tlsConfig(cfg),
		},
		log: log,
	}, nil
}

// Subscribe streams messages until ctx is cancelled or the reader fails; the channel is
// closed in both cases.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.cfg.Brokers,
		Topic:   topic,
		GroupID: groupID,
		Dialer:  k.dialer,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					k.log.Error("kafka read failed", zap.String("topic", topic), zap.Error(err))
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
