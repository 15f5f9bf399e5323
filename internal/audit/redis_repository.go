package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps the newest entries in a capped list at
// "<prefix>:audit", newest at the head.
type RedisRepository struct {
	client   *redis.Client
	key      string
	capacity int64
}

// NewRedisRepository creates a Redis-backed audit trail. A capacity <= 0
// uses DefaultCapacity.
func NewRedisRepository(client *redis.Client, prefix string, capacity int) *RedisRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisRepository{client: client, key: prefix + ":audit", capacity: int64(capacity)}
}

// Create pushes log onto the list and trims it to capacity.
func (r *RedisRepository) Create(ctx context.Context, log *AuditLog) error {
	prepare(log, time.Now())

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshalling audit log: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, 0, r.capacity-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// List returns audit logs matching the filter, most recent first.
func (r *RedisRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}

	logs := make([]AuditLog, 0, len(raw))
	for _, entry := range raw {
		var log AuditLog
		if err := json.Unmarshal([]byte(entry), &log); err != nil {
			return nil, fmt.Errorf("decoding audit log: %w", err)
		}
		logs = append(logs, log)
	}

	return page(logs, filter), nil
}
