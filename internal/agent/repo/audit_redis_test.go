package repo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartpilot/server/internal/agent/model"
)

// fakeRedis implements just the list commands the audit log uses; the
// embedded interface panics on anything else.
type fakeRedis struct {
	redis.Cmdable
	lists map[string][]string
	ttls  map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: map[string][]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		switch val := v.(type) {
		case []byte:
			f.lists[key] = append(f.lists[key], string(val))
		case string:
			f.lists[key] = append(f.lists[key], val)
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(f.lists[key])))
	return cmd
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	_, ok := f.lists[key]
	if ok {
		f.ttls[key] = ttl
	}
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(ok)
	return cmd
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(append([]string(nil), f.lists[key]...))
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.lists[key]; ok {
			delete(f.lists, key)
			delete(f.ttls, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func TestAppendAndLoadTrailRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	audit := NewRedisAuditLog(rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, audit.Append(ctx, "s1", model.MemoryParsing, map[string]any{"items": 2}))
	require.NoError(t, audit.Append(ctx, "s1", model.MemoryCheckout, map[string]any{"total": 625.0}))

	trail, err := audit.LoadTrail(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, trail, 2)

	assert.Equal(t, model.MemoryParsing, trail[0].Type)
	assert.Equal(t, model.MemoryCheckout, trail[1].Type)
	assert.Equal(t, "s1", trail[0].SessionID)
	assert.False(t, trail[0].CreatedAt.IsZero())

	// The TTL is refreshed on every append.
	assert.Equal(t, time.Hour, rdb.ttls["session:s1:audit"])
}

func TestLoadTrailOnUnknownSessionIsEmpty(t *testing.T) {
	audit := NewRedisAuditLog(newFakeRedis(), time.Hour)

	trail, err := audit.LoadTrail(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestLoadTrailRejectsCorruptEntry(t *testing.T) {
	rdb := newFakeRedis()
	rdb.lists["session:s1:audit"] = []string{"{not json"}
	audit := NewRedisAuditLog(rdb, time.Hour)

	_, err := audit.LoadTrail(context.Background(), "s1")
	assert.Error(t, err)
}

func TestClearDropsTheTrail(t *testing.T) {
	rdb := newFakeRedis()
	audit := NewRedisAuditLog(rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, audit.Append(ctx, "s1", model.MemoryUserFeedback, map[string]any{"input": "confirm"}))
	require.NoError(t, audit.Clear(ctx, "s1"))

	trail, err := audit.LoadTrail(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, trail)
	assert.NotContains(t, rdb.lists, "session:s1:audit")
}
