package cache

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemory()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory()
	c.Set("k", []byte("v"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemory()
	c.Set("k", []byte("v"), 0)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	c := NewMemory()
	val := []byte("original")
	c.Set("k", val, time.Minute)
	val[0] = 'X'

	got, _ := c.Get("k")
	assert.Equal(t, []byte("original"), got)
}

func TestRedisCacheGetSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedis(db)

	mock.ExpectSet("k", []byte("v"), time.Minute).SetVal("OK")
	c.Set("k", []byte("v"), time.Minute)

	mock.ExpectGet("k").SetVal("v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissAndErrorDegradeToMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedis(db)

	mock.ExpectGet("absent").RedisNil()
	_, ok := c.Get("absent")
	assert.False(t, ok)

	mock.ExpectGet("broken").SetErr(assert.AnError)
	_, ok = c.Get("broken")
	assert.False(t, ok)
}

func TestNewAuto(t *testing.T) {
	assert.IsType(t, &memory{}, NewAuto(""))
	assert.IsType(t, &redisCache{}, NewAuto("localhost:6379"))
}
