package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	ListFunc   func(ctx context.Context, criteria Criteria) ([]Book, error)
	FindFunc   func(ctx context.Context, id int64) (Book, error)
	CreateFunc func(ctx context.Context, u BookUpdate) (Book, error)
	UpdateFunc func(ctx context.Context, id int64, u BookUpdate) (Book, error)
	RemoveFunc func(ctx context.Context, id int64) error
}

// List mocks the behavior of listing books by the repository.
func (m *MockBookStorage) List(ctx context.Context, criteria Criteria) ([]Book, error) {
	return m.ListFunc(ctx, criteria)
}

// Find mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) Find(ctx context.Context, id int64) (Book, error) {
	return m.FindFunc(ctx, id)
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, u BookUpdate) (Book, error) {
	return m.CreateFunc(ctx, u)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id int64, u BookUpdate) (Book, error) {
	return m.UpdateFunc(ctx, id, u)
}

// Remove mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Remove(ctx context.Context, id int64) error {
	return m.RemoveFunc(ctx, id)
}

func (m *MockBookStorage) Close() error {
	return nil
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

func (mq *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return mq.PushFunc(ctx, qid, book)
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// MockBookReplica records replicated changes.
type MockBookReplica struct {
	PutFunc   func(ctx context.Context, book Book) error
	PurgeFunc func(ctx context.Context, id int64) error
}

func (mr *MockBookReplica) Put(ctx context.Context, book Book) error {
	return mr.PutFunc(ctx, book)
}

func (mr *MockBookReplica) Purge(ctx context.Context, id int64) error {
	return mr.PurgeFunc(ctx, id)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// NewTicker returns a real ticker.
func (mck *MockClocker) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}
