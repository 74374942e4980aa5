package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldstation/dsengine/internal/events"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSink publishes every event to a Redis stream via XADD — one
// stream, MaxLen-bounded, Approx trimming.
type RedisSink struct {
	client         *redis.Client
	streamKey      string
	maxLen         int64
	compressAbove  int
	encoder        *zstd.Encoder
	log            *zap.Logger
}

// NewRedisSink connects to redisURL and prepares a stream publisher.
// compressAbove is the payload-size threshold (bytes) past which the
// marshaled event is zstd-compressed before being stored.
func NewRedisSink(redisURL, streamKey string, compressAbove int, log *zap.Logger) (*RedisSink, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder init failed: %w", err)
	}
	if streamKey == "" {
		streamKey = "dsengine:events"
	}
	return &RedisSink{
		client:        client,
		streamKey:     streamKey,
		maxLen:        100000,
		compressAbove: compressAbove,
		encoder:       enc,
		log:           log,
	}, nil
}

// Publish XADDs one event to the configured stream.
func (r *RedisSink) Publish(ctx context.Context, rec events.Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	compressed := false
	if r.compressAbove > 0 && len(payload) > r.compressAbove {
		payload = r.encoder.EncodeAll(payload, make([]byte, 0, len(payload)))
		compressed = true
	}

	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.streamKey,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"kind":       string(rec.Kind),
			"payload":    string(payload),
			"compressed": compressed,
		},
	}).Err()
}

// Close releases the Redis connection and the zstd encoder.
func (r *RedisSink) Close() error {
	r.encoder.Close()
	return r.client.Close()
}
