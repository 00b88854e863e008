package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStreamWriter appends audit events to a Redis stream, one entry per
// event, so audit consumers can read them with XREAD/XREADGROUP.
type RedisStreamWriter struct {
	client *redis.Client
	maxLen int64
}

func NewRedisStreamWriter(client *redis.Client) *RedisStreamWriter {
	return &RedisStreamWriter{client: client, maxLen: 100000}
}

func (r *RedisStreamWriter) Write(ctx context.Context, topic string, kind string, e AuditEvent) error {
	fields, err := json.Marshal(e.BlockedFields)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: topic,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"kind":           kind,
			"job_id":         e.JobID,
			"actor_id":       e.ActorID,
			"blocked_fields": string(fields),
			"source":         e.Source,
			"timestamp":      e.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", topic, err)
	}
	return nil
}

func (r *RedisStreamWriter) Close(_ context.Context) error {
	return r.client.Close()
}
