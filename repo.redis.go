package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks     string = "books"
	KBooksNext string = "books:next_id"
)

var _ BookStorage = (*redisBookStorage)(nil)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client for the given address.
func GetRedisClient(ctx context.Context, addr string, config *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		PoolTimeout:  config.PoolTimeout,
		Password:     config.Password,
		Username:     config.Username,
		DB:           config.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(ctx).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Close closes the underlying redis client.
func (rs *redisBookStorage) Close() error {
	return rs.client.Close()
}

// Create reserves the next id with INCR then stores the book.
func (rs *redisBookStorage) Create(ctx context.Context, u BookUpdate) (Book, error) {
	id, err := rs.client.Incr(ctx, KBooksNext).Result()
	if err != nil {
		return Book{}, fmt.Errorf("failed to reserve book id: %w", err)
	}
	book := NewBook(id, u)
	if err = rs.save(ctx, book); err != nil {
		return Book{}, err
	}
	return book, nil
}

// Find retrieves a book record based on its ID.
func (rs *redisBookStorage) Find(ctx context.Context, id int64) (Book, error) {
	return findRedisBook(ctx, rs.client, id)
}

// UpdateMaxRetries bounds the optimistic update attempts.
const UpdateMaxRetries = 5

// Update merges u into the stored book. The hash is watched so that a
// concurrent removal aborts the write instead of recreating the book.
func (rs *redisBookStorage) Update(ctx context.Context, id int64, u BookUpdate) (Book, error) {
	field := strconv.FormatInt(id, 10)
	var book Book
	txf := func(tx *redis.Tx) error {
		var err error
		book, err = findRedisBook(ctx, tx, id)
		if err != nil {
			return err
		}
		book.Merge(u)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, field, bookBytes)
			return nil
		})
		return err
	}

	for i := 0; i < UpdateMaxRetries; i++ {
		err := rs.client.Watch(ctx, txf, HBooks)
		if errors.Is(err, redis.TxFailedErr) {
			rs.logger.Debug("redis storage: update conflict, retrying", zap.Int64("book.id", id), zap.Int("attempt", i+1))
			continue
		}
		if err != nil {
			return Book{}, err
		}
		return book, nil
	}
	return Book{}, fmt.Errorf("failed to update book %d: too many concurrent changes", id)
}

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// findRedisBook reads and decodes a book with either the client or a
// watching transaction.
func findRedisBook(ctx context.Context, c hashGetter, id int64) (Book, error) {
	var book Book
	bookJSONString, err := c.HGet(ctx, HBooks, strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return book, NewNotFoundError(id)
	}
	if err != nil {
		return book, err
	}
	if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
		return Book{}, fmt.Errorf("%w: %d: %v", ErrCorruptRecord, id, err)
	}
	return book, nil
}

// Remove deletes a book record. It fails when no field was removed.
func (rs *redisBookStorage) Remove(ctx context.Context, id int64) error {
	n, err := rs.client.HDel(ctx, HBooks, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError(id)
	}
	return nil
}

// List loads all books, drops the undecodable ones and returns
// the matching books ordered by id.
func (rs *redisBookStorage) List(ctx context.Context, criteria Criteria) ([]Book, error) {
	mapBooks, err := rs.client.HGetAll(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	match := criteria.Predicate()
	books := []Book{}
	var corrupted []string
	for field, bookJSONString := range mapBooks {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			corrupted = append(corrupted, field)
			continue
		}
		if match(book) {
			books = append(books, book)
		}
	}
	if len(corrupted) != 0 {
		rs.logger.Warn("redis storage: removing corrupt book records", zap.Strings("book.ids", corrupted))
		if err = rs.client.HDel(ctx, HBooks, corrupted...).Err(); err != nil {
			return nil, err
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (rs *redisBookStorage) save(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HBooks, strconv.FormatInt(book.ID, 10), bookBytes).Err()
}
