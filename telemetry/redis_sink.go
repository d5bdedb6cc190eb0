package telemetry

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisStreamSink appends telemetry events to a Redis Stream via XADD,
// demonstrating that the sink is "chosen externally" (spec.md §1
// Non-goals: no persistent storage baked into the core) while remaining
// append-only. Each event is stored as a single "payload" field holding
// its JSON encoding, so consumers can decode with the same Event schema
// the JSONL sink uses.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	// MaxLen caps the stream length with approximate trimming (XADD
	// MAXLEN ~). Zero means no cap.
	MaxLen int64
}

// NewRedisStreamSink constructs a sink that appends to the named stream
// using client.
func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream}
}

// Emit appends event to the configured Redis stream.
func (s *RedisStreamSink) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"payload": payload},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}
