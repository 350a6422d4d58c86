package repositories

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (*miniredis.Miniredis, CacheRepositoryInterface) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCacheRepository(client)
}

func TestRedisCacheRepository_SetExistsDel(t *testing.T) {
	mr, repo := newCacheFixture(t)
	ctx := t.Context()

	require.NoError(t, repo.Set(ctx, "lockout:1", "locked", time.Minute))
	exists, err := repo.Exists(ctx, "lockout:1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, time.Minute, mr.TTL("lockout:1"))

	require.NoError(t, repo.Del(ctx, "lockout:1", "login_attempts:1"))
	exists, err = repo.Exists(ctx, "lockout:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCacheRepository_IncrWithTTL(t *testing.T) {
	mr, repo := newCacheFixture(t)
	ctx := t.Context()

	n, err := repo.IncrWithTTL(ctx, "login_attempts:1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, mr.TTL("login_attempts:1"))

	mr.FastForward(40 * time.Second)
	n, err = repo.IncrWithTTL(ctx, "login_attempts:1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	// Окно считается от первой попытки.
	assert.Equal(t, 20*time.Second, mr.TTL("login_attempts:1"))

	mr.FastForward(21 * time.Second)
	exists, err := repo.Exists(ctx, "login_attempts:1")
	require.NoError(t, err)
	assert.False(t, exists)
}
