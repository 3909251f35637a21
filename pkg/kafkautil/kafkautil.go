// Package kafkautil wraps segmentio/kafka-go with a JSON producer and a
// consumer group loop with bounded retry.
package kafkautil

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers      []string      `yaml:"brokers"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

type Producer struct {
	w *kafka.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              cfg.BatchSize,
			BatchTimeout:           cfg.BatchTimeout,
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v any) error {
	if p == nil || p.w == nil {
		return errors.New("producer not initialized")
	}

	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

type ConsumerConfig struct {
	Brokers    []string `yaml:"brokers"`
	GroupID    string   `yaml:"group_id"`
	Topic      string   `yaml:"topic"`
	MaxRetries int      `yaml:"max_retries"`
}

type ConsumerGroup struct {
	r   *kafka.Reader
	cfg ConsumerConfig
}

func NewConsumerGroup(cfg ConsumerConfig) *ConsumerGroup {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &ConsumerGroup{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       cfg.Topic,
			StartOffset: kafka.FirstOffset,
			MaxWait:     500 * time.Millisecond,
		}),
		cfg: cfg,
	}
}

// Run fetches messages until the context ends. A message that still fails
// after MaxRetries attempts is committed and skipped; losing one archive row
// beats stalling the partition.
func (cg *ConsumerGroup) Run(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error {
	for {
		msg, err := cg.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		for attempt := 0; ; attempt++ {
			err = handler(ctx, msg.Key, msg.Value)
			if err == nil {
				break
			}
			if attempt >= cg.cfg.MaxRetries {
				zap.S().Errorw("message dropped after retries",
					"topic", msg.Topic, "offset", msg.Offset, "err", err)
				break
			}
			select {
			case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := cg.r.CommitMessages(ctx, msg); err != nil {
			zap.S().Errorw("commit failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
	}
}

func (cg *ConsumerGroup) Close() error {
	if cg == nil || cg.r == nil {
		return nil
	}
	return cg.r.Close()
}
