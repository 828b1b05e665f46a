package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context, criteria Criteria) ([]Book, error)
	Find(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, u BookUpdate) (Book, error)
	Update(ctx context.Context, id int64, u BookUpdate) (Book, error)
	Remove(ctx context.Context, id int64) (Book, error)
}

// BookService routes requests to the storage and, when a queue is
// configured, publishes every successful change for replication.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	storage BookStorage
	queue   Queuer
}

// NewBookService provides a BookService. The queue may be nil.
func NewBookService(logger *zap.Logger, config *Config, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) List(ctx context.Context, criteria Criteria) ([]Book, error) {
	return bs.storage.List(ctx, criteria)
}

func (bs *BookService) Find(ctx context.Context, id int64) (Book, error) {
	return bs.storage.Find(ctx, id)
}

func (bs *BookService) Create(ctx context.Context, u BookUpdate) (Book, error) {
	book, err := bs.storage.Create(ctx, u)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) Update(ctx context.Context, id int64, u BookUpdate) (Book, error) {
	book, err := bs.storage.Update(ctx, id, u)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

// Remove resolves the book first so that a missing id is reported
// the same way whatever the storage removal semantics are.
func (bs *BookService) Remove(ctx context.Context, id int64) (Book, error) {
	book, err := bs.storage.Find(ctx, id)
	if err != nil {
		return book, err
	}
	if err = bs.storage.Remove(ctx, id); err != nil {
		return book, err
	}
	bs.publish(ctx, RemoveQueue, book)
	return book, nil
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.Int64("book.id", book.ID), zap.Error(err))
	}
}
