package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-intake/internal/common/config"
)

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := NewRedis(config.RedisConfig{Address: mr.Addr(), TTL: 60})
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisClient_RememberAndLookup(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Lookup(ctx, "drive:folder:Invoices")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Remember(ctx, "drive:folder:Invoices", "folder-123"))

	val, ok, err := c.Lookup(ctx, "drive:folder:Invoices")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "folder-123", val)

	assert.True(t, mr.Exists("invoice-intake:drive:folder:Invoices"))
	assert.Equal(t, 60*time.Second, mr.TTL("invoice-intake:drive:folder:Invoices"))

	require.NoError(t, c.Forget(ctx, "drive:folder:Invoices"))
	_, ok, err = c.Lookup(ctx, "drive:folder:Invoices")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisClient_Expiry(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Remember(ctx, "sheet:x", "id"))
	mr.FastForward(61 * time.Second)

	_, ok, err := c.Lookup(ctx, "sheet:x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisClient_LookupError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	mock.ExpectGet("invoice-intake:broken").SetErr(errors.New("connection reset"))

	_, ok, err := c.Lookup(context.Background(), "broken")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_RememberError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	mock.ExpectSet("invoice-intake:k", "v", time.Minute).SetErr(errors.New("readonly"))

	err := c.Remember(context.Background(), "k", "v")
	assert.ErrorContains(t, err, "readonly")
	assert.NoError(t, mock.ExpectationsWereMet())
}

var _ Store = (*RedisClient)(nil)
