package sink

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/joripage/matching-engine/pkg/engine"
)

// RedisMarketDataSink publishes book snapshots to a per-symbol Redis channel.
type RedisMarketDataSink struct {
	client         *redis.Client
	channelPrefix  string
	snapshotPrefix string
}

func NewRedisMarketDataSink(client *redis.Client) *RedisMarketDataSink {
	return &RedisMarketDataSink{
		client:         client,
		channelPrefix:  "book.",
		snapshotPrefix: "book:snapshot:",
	}
}

// Publish fans the snapshot out on the symbol's channel and keeps the latest
// snapshot readable for late joiners.
func (s *RedisMarketDataSink) Publish(ctx context.Context, snapshot *engine.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	if err := s.client.Publish(ctx, s.channelPrefix+snapshot.Symbol, payload).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, s.snapshotPrefix+snapshot.Symbol, payload, 0).Err()
}
