package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type queueEvent struct {
	qid  string
	book Book
}

// newChannelQueue returns a queue whose Pop serves the given events
// then blocks until the context is done.
func newChannelQueue(events ...queueEvent) *MockQueuer {
	ch := make(chan queueEvent, len(events))
	for _, e := range events {
		ch <- e
	}
	return &MockQueuer{
		PushFunc: func(ctx context.Context, qid string, book Book) error {
			return nil
		},
		PopFunc: func(ctx context.Context, qids ...string) (string, Book, error) {
			select {
			case e := <-ch:
				return e.qid, e.book, nil
			case <-ctx.Done():
				return "", Book{}, ctx.Err()
			}
		},
	}
}

func TestReplicaConsumer(t *testing.T) {
	replica := newTestBoltStore(t)
	q := newChannelQueue(
		queueEvent{CreateQueue, Book{ID: 1, Title: StringPtr("first")}},
		queueEvent{CreateQueue, Book{ID: 2, Title: StringPtr("second")}},
		queueEvent{UpdateQueue, Book{ID: 1, Title: StringPtr("first edited")}},
		queueEvent{RemoveQueue, Book{ID: 2}},
		queueEvent{"catalog:unknown", Book{ID: 3}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewReplicaConsumer(zap.NewNop(), q, replica).Consume(ctx, CreateQueue, UpdateQueue, RemoveQueue)
	}()

	require.Eventually(t, func() bool {
		books, err := replica.List(context.Background(), Criteria{})
		return err == nil && len(books) == 1 && *books[0].Title == "first edited"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}

	_, err := replica.Find(context.Background(), 3)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReplicaConsumer_PopFailures(t *testing.T) {
	var calls int32
	q := &MockQueuer{
		PopFunc: func(ctx context.Context, qids ...string) (string, Book, error) {
			atomic.AddInt32(&calls, 1)
			return "", Book{}, errors.New("connection refused")
		},
	}
	replica := &MockBookReplica{}
	consumer := &replicaConsumer{logger: zap.NewNop(), queue: q, replica: replica, retry: 50 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 175*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.NoError(t, consumer.Consume(ctx, CreateQueue))
	assert.Less(t, time.Since(start), time.Second)
	n := atomic.LoadInt32(&calls)
	assert.GreaterOrEqual(t, n, int32(2))
	assert.LessOrEqual(t, n, int32(5), "pop is retried after a pause")
}

func TestBookServicePublishes(t *testing.T) {
	var pushed []string
	q := &MockQueuer{
		PushFunc: func(ctx context.Context, qid string, book Book) error {
			pushed = append(pushed, qid)
			return nil
		},
	}
	bs := NewBookService(zap.NewNop(), &Config{}, NewMemoryBookStorage(zap.NewNop()), q)
	ctx := context.Background()

	b, err := bs.Create(ctx, BookUpdate{Title: StringPtr("t")})
	require.NoError(t, err)
	_, err = bs.Update(ctx, b.ID, BookUpdate{Author: StringPtr("a")})
	require.NoError(t, err)
	removed, err := bs.Remove(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", *removed.Author)
	assert.Equal(t, []string{CreateQueue, UpdateQueue, RemoveQueue}, pushed)

	// failures are not published.
	_, err = bs.Remove(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = bs.Update(ctx, b.ID, BookUpdate{})
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Len(t, pushed, 3)
}

func TestBookServiceIgnoresQueueFailures(t *testing.T) {
	q := &MockQueuer{
		PushFunc: func(ctx context.Context, qid string, book Book) error {
			return errors.New("queue down")
		},
	}
	bs := NewBookService(zap.NewNop(), &Config{}, NewMemoryBookStorage(zap.NewNop()), q)
	b, err := bs.Create(context.Background(), BookUpdate{Title: StringPtr("t")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)
}

// Ensure removal reports a missing book even with an idempotent storage.
func TestBookServiceRemoveFindsFirst(t *testing.T) {
	bs := NewBookService(zap.NewNop(), &Config{}, newTestSQLiteStore(t), nil)
	_, err := bs.Remove(context.Background(), 5)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(5), nf.ID)
}
