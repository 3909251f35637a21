package sink

import (
	"context"

	"github.com/joripage/matching-engine/pkg/engine/model"
	"github.com/joripage/matching-engine/pkg/kafkautil"
)

// KafkaExecutionSink publishes execution reports to a Kafka topic, keyed by
// symbol so fills for one symbol stay ordered within a partition.
type KafkaExecutionSink struct {
	producer *kafkautil.Producer
	topic    string
}

func NewKafkaExecutionSink(producer *kafkautil.Producer, topic string) *KafkaExecutionSink {
	return &KafkaExecutionSink{
		producer: producer,
		topic:    topic,
	}
}

func (s *KafkaExecutionSink) Report(ctx context.Context, report *model.ExecutionReport) error {
	return s.producer.PublishJSON(ctx, s.topic, report.Symbol, report)
}
