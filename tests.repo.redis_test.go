package main

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newDockerPool returns a reachable docker pool or skips the test.
func newDockerPool(t *testing.T) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping docker based test in short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Failed to start Dockertest: %+v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("Could not connect to Docker: %+v", err)
	}
	return pool
}

func startRedisDockerContainer(t *testing.T) (string, func()) {
	t.Helper()
	pool := newDockerPool(t)

	resource, err := pool.Run("redis", "7.0.10-alpine", nil)
	if err != nil {
		t.Fatalf("Failed to start redis: %+v", err)
	}

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		t.Fatalf("Failed to ping Redis: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return addr, destroyFunc
}

func TestRedisStore(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()

	client, err := GetRedisClient(context.Background(), addr, &RedisConfig{})
	require.NoError(t, err)
	defer client.Close()

	runBookStorageSuite(t, func(t *testing.T) BookStorage {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		return NewRedisBookStorage(zap.NewNop(), client)
	})

	t.Run("Remove Twice", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		rs := NewRedisBookStorage(zap.NewNop(), client)
		b, err := rs.Create(context.Background(), BookUpdate{})
		require.NoError(t, err)
		assert.NoError(t, rs.Remove(context.Background(), b.ID))
		assert.ErrorIs(t, rs.Remove(context.Background(), b.ID), ErrBookNotFound)
	})

	t.Run("Self Healing", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		rs := NewRedisBookStorage(zap.NewNop(), client)
		createSampleBooks(t, rs)
		require.NoError(t, client.HSet(context.Background(), HBooks, "100", "{not json").Err())

		books, err := rs.List(context.Background(), Criteria{})
		require.NoError(t, err)
		assert.Len(t, books, 3)
		exists, err := client.HExists(context.Background(), HBooks, "100").Result()
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Update Never Recreates Removed Book", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		rs := NewRedisBookStorage(zap.NewNop(), client)
		b, err := rs.Create(context.Background(), BookUpdate{Title: StringPtr("racing")})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					_, err := rs.Update(context.Background(), b.ID, BookUpdate{Author: StringPtr("writer")})
					if errors.Is(err, ErrBookNotFound) {
						return
					}
				}
			}()
		}
		require.NoError(t, rs.Remove(context.Background(), b.ID))
		wg.Wait()

		_, err = rs.Find(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Queue Push Pop", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		q := NewRedisQueue(client)
		book := Book{ID: 3, Title: StringPtr("queued")}
		require.NoError(t, q.Push(context.Background(), UpdateQueue, book))
		qid, got, err := q.Pop(context.Background(), CreateQueue, UpdateQueue, RemoveQueue)
		require.NoError(t, err)
		assert.Equal(t, UpdateQueue, qid)
		assert.Equal(t, book, got)
	})
}
