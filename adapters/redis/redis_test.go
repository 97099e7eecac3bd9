package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, opts Options) (*Adapter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, opts), mr
}

func TestAdapter_RoundTrip(t *testing.T) {
	a, mr := newTestAdapter(t, Options{})
	ctx := context.Background()

	require.NoError(t, a.Ping(ctx))
	require.NoError(t, a.Put(ctx, map[string]string{"authToken": "t", "authUser": `{"id":1}`}))

	assert.True(t, mr.Exists("assessgate:authToken"))
	assert.Equal(t, `{"id":1}`, mustGet(t, mr, "assessgate:authUser"))

	got, err := a.Get(ctx, "authToken", "authUser", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"authToken": "t", "authUser": `{"id":1}`}, got)

	require.NoError(t, a.Delete(ctx, "authToken", "authUser"))
	require.NoError(t, a.Delete(ctx, "authToken", "authUser"))

	got, err = a.Get(ctx, "authToken", "authUser")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAdapter_PrefixAndTTL(t *testing.T) {
	a, mr := newTestAdapter(t, Options{Prefix: "console:", TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, map[string]string{"authToken": "t"}))

	assert.True(t, mr.Exists("console:authToken"))
	assert.Equal(t, time.Hour, mr.TTL("console:authToken"))

	mr.FastForward(2 * time.Hour)

	got, err := a.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Empty(t, got, "entries should expire with the TTL")
}

func TestAdapter_ServerDown(t *testing.T) {
	a, mr := newTestAdapter(t, Options{})
	mr.Close()

	_, err := a.Get(context.Background(), "authToken")
	assert.Error(t, err)
	assert.Error(t, a.Put(context.Background(), map[string]string{"authToken": "t"}))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
