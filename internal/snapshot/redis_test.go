package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
)

// memRedis answers the handful of commands RedisStore sends from a map.
type memRedis struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	err    error
	closed bool
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = append([]byte(nil), value.([]byte)...)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Ping(context.Context) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	return redis.NewStatusResult("PONG", m.err)
}

func (m *memRedis) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestRedisStore(t *testing.T) {
	client := newMemRedis()
	s := NewRedisStore(client, "inspection:draft", 24*time.Hour)

	exerciseStore(t, s)

	require.NoError(t, s.Health(context.Background()))
	require.NoError(t, s.Close())
	assert.True(t, client.closed)
}

func TestRedisStore_KeyAndTTL(t *testing.T) {
	ctx := context.Background()
	client := newMemRedis()
	a := NewRedisStore(client, "a", time.Hour)
	b := NewRedisStore(client, "b", 0)

	require.NoError(t, a.Save(ctx, []byte(`"a"`)))
	assert.Equal(t, time.Hour, client.ttls["a"])

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRedisStore_ConnectionErrors(t *testing.T) {
	ctx := context.Background()
	client := newMemRedis()
	client.err = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	s := NewRedisStore(client, "draft", 0)

	_, err := s.Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), `load snapshot "draft"`)

	assert.Error(t, s.Save(ctx, []byte(`{}`)))
	assert.Error(t, s.Delete(ctx))
	assert.Error(t, s.Health(ctx))
}
