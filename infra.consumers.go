package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BookReplica receives replicated changes. Books keep the id
// assigned by the primary storage.
type BookReplica interface {
	Put(ctx context.Context, book Book) error
	Purge(ctx context.Context, id int64) error
}

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// PopRetryDelay is the pause after a failed queue pop.
const PopRetryDelay = time.Second

type replicaConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	replica BookReplica
	retry   time.Duration
}

func NewReplicaConsumer(logger *zap.Logger, q Queuer, replica BookReplica) Consumer {
	return &replicaConsumer{logger, q, replica, PopRetryDelay}
}

// Consume applies queued changes to the replica until ctx is done.
func (rc *replicaConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := rc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			rc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			rc.logger.Error("consumer: error on queue pop call", zap.Duration("retry.in", rc.retry), zap.Error(err))
			select {
			case <-ctx.Done():
				rc.logger.Info("consumer: retry wait: context is done: exit", zap.String("reason", ctx.Err().Error()))
				return nil
			case <-time.After(rc.retry):
			}
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue:
			if err = rc.replica.Put(ctx, book); err != nil {
				rc.logger.Error("consumer: failed to store", zap.String("qid", qid), zap.Int64("book.id", book.ID), zap.Error(err))
			}
		case RemoveQueue:
			if err = rc.replica.Purge(ctx, book.ID); err != nil {
				rc.logger.Error("consumer: failed to remove", zap.Int64("book.id", book.ID), zap.Error(err))
			}
		default:
			rc.logger.Warn("consumer: received book on unknown queue id", zap.String("qid", qid), zap.Int64("book.id", book.ID))
		}
	}
}
