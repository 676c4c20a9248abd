package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartpilot/server/internal/agent/model"
	errx "github.com/cartpilot/server/internal/core/error"
	logx "github.com/cartpilot/server/pkg/logger"
)

// RedisAuditLog appends session audit entries to a per-session Redis list.
type RedisAuditLog struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisAuditLog(rdb redis.Cmdable, ttl time.Duration) *RedisAuditLog {
	return &RedisAuditLog{rdb: rdb, ttl: ttl}
}

func (r *RedisAuditLog) auditKey(sessionID string) string {
	return fmt.Sprintf("session:%s:audit", sessionID)
}

func (r *RedisAuditLog) Append(ctx context.Context, sessionID string, memoryType model.MemoryType, content any) error {
	entry := model.MemoryEntry{
		SessionID: sessionID,
		Type:      memoryType,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal audit entry")
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	key := r.auditKey(sessionID)

	// append entry
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push audit entry to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on audit key")
		}
	}
	return nil
}

// LoadTrail returns all audit entries for a session in append order.
func (r *RedisAuditLog) LoadTrail(ctx context.Context, sessionID string) ([]model.MemoryEntry, error) {
	key := r.auditKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.MemoryEntry{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load audit trail from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.MemoryEntry, 0, len(rows))
	for i, s := range rows {
		var e model.MemoryEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal audit entry")
			return nil, fmt.Errorf("unmarshal audit entry at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear removes a session's audit trail.
func (r *RedisAuditLog) Clear(ctx context.Context, sessionID string) error {
	key := r.auditKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete audit trail from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.AuditLog = (*RedisAuditLog)(nil)
