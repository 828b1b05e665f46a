package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var _ BookStorage = (*memoryBookStorage)(nil)

// memoryBookStorage keeps books in process memory. The records slice is
// always sorted by id since ids are handed out in increasing order.
type memoryBookStorage struct {
	logger *zap.Logger
	mu     sync.Mutex
	nextID int64
	books  []*Book
}

// NewMemoryBookStorage provides an empty in-memory book storage.
func NewMemoryBookStorage(logger *zap.Logger) BookStorage {
	return &memoryBookStorage{
		logger: logger,
		nextID: 1,
	}
}

// List returns the books matching the criteria ordered by id.
func (ms *memoryBookStorage) List(_ context.Context, criteria Criteria) ([]Book, error) {
	match := criteria.Predicate()
	ms.mu.Lock()
	defer ms.mu.Unlock()
	books := []Book{}
	for _, b := range ms.books {
		if match(*b) {
			books = append(books, b.Clone())
		}
	}
	return books, nil
}

// Find retrieves a book by its id.
func (ms *memoryBookStorage) Find(_ context.Context, id int64) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, b := ms.find(id)
	if b == nil {
		return Book{}, NewNotFoundError(id)
	}
	return b.Clone(), nil
}

// Create stores a new book and assigns it the next id.
func (ms *memoryBookStorage) Create(_ context.Context, u BookUpdate) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	b := NewBook(ms.nextID, u)
	ms.nextID++
	ms.books = append(ms.books, &b)
	return b.Clone(), nil
}

// Update merges the set fields of u into the stored book.
func (ms *memoryBookStorage) Update(_ context.Context, id int64, u BookUpdate) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, b := ms.find(id)
	if b == nil {
		return Book{}, NewNotFoundError(id)
	}
	b.Merge(u)
	return b.Clone(), nil
}

// Remove deletes a book. It fails if the id is unknown.
func (ms *memoryBookStorage) Remove(_ context.Context, id int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	i, b := ms.find(id)
	if b == nil {
		return NewNotFoundError(id)
	}
	ms.books = append(ms.books[:i], ms.books[i+1:]...)
	return nil
}

// Close is a no-op for the memory storage.
func (ms *memoryBookStorage) Close() error {
	return nil
}

// find must be called with the lock held.
func (ms *memoryBookStorage) find(id int64) (int, *Book) {
	for i, b := range ms.books {
		if b.ID == id {
			return i, b
		}
	}
	return -1, nil
}
