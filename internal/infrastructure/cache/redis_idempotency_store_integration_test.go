//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisContainerClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisIdempotencyStore_ReserveAndRelease(t *testing.T) {
	client := newRedisContainerClient(t)
	store := NewRedisIdempotencyStoreWithClient(client, "")
	defer store.Close()
	ctx := context.Background()

	stored, reserved, err := store.Reserve(ctx, "payment-submit:u:v:k", "p-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, "p-1", stored)

	stored, reserved, err = store.Reserve(ctx, "payment-submit:u:v:k", "p-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "p-1", stored)

	ttl, err := client.TTL(ctx, defaultKeyPrefix+"payment-submit:u:v:k").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Release(ctx, "payment-submit:u:v:k"))
	_, reserved, err = store.Reserve(ctx, "payment-submit:u:v:k", "p-3", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}
