package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var (
	_ BookStorage = (*boltBookStorage)(nil)
	_ BookReplica = (*boltBookStorage)(nil)
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient opens the database file and ensures the bucket exists.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *boltBookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// OpenBoltBookStorage opens the bolt file described by config.
func OpenBoltBookStorage(logger *zap.Logger, config *BoltDBConfig) (*boltBookStorage, error) {
	client, err := GetBoltDBClient(config)
	if err != nil {
		return nil, err
	}
	return NewBoltBookStorage(logger, config, client), nil
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// Create inserts a new book under the next bucket sequence value.
func (bs *boltBookStorage) Create(_ context.Context, u BookUpdate) (Book, error) {
	var book Book
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		book = NewBook(int64(seq), u)
		return putBook(b, book)
	})
	return book, err
}

// Find retrieves a book record based on its ID.
func (bs *boltBookStorage) Find(_ context.Context, id int64) (Book, error) {
	var book Book
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return book, err
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get(itob(id))
	if result == nil {
		return book, NewNotFoundError(id)
	}
	if err = json.Unmarshal(result, &book); err != nil {
		return Book{}, fmt.Errorf("%w: %d: %v", ErrCorruptRecord, id, err)
	}
	return book, nil
}

// Update merges u into the stored book inside a single write transaction.
func (bs *boltBookStorage) Update(_ context.Context, id int64, u BookUpdate) (Book, error) {
	var book Book
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		result := b.Get(itob(id))
		if result == nil {
			return NewNotFoundError(id)
		}
		if err := json.Unmarshal(result, &book); err != nil {
			return fmt.Errorf("%w: %d: %v", ErrCorruptRecord, id, err)
		}
		book.Merge(u)
		return putBook(b, book)
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// Remove deletes a book record. It fails when the book does not exist.
func (bs *boltBookStorage) Remove(_ context.Context, id int64) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		if b.Get(itob(id)) == nil {
			return NewNotFoundError(id)
		}
		return b.Delete(itob(id))
	})
}

// List walks the bucket in key order and keeps the matching books.
// Values which do not decode are dropped from the bucket.
func (bs *boltBookStorage) List(_ context.Context, criteria Criteria) ([]Book, error) {
	match := criteria.Predicate()
	books := []Book{}
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		var corrupted [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var book Book
			if err := json.Unmarshal(v, &book); err != nil {
				corrupted = append(corrupted, append([]byte(nil), k...))
				continue
			}
			if match(book) {
				books = append(books, book)
			}
		}
		for _, k := range corrupted {
			bs.logger.Warn("bolt storage: removing corrupt book record", zap.Binary("book.key", k))
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Put stores the book under its own id. It is used to apply
// replicated changes and never touches the bucket sequence.
func (bs *boltBookStorage) Put(_ context.Context, book Book) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		return putBook(tx.Bucket([]byte(bs.config.BucketName)), book)
	})
}

// Purge deletes the book with the given id if present.
func (bs *boltBookStorage) Purge(_ context.Context, id int64) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Delete(itob(id))
	})
}

func putBook(b *bolt.Bucket, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return b.Put(itob(book.ID), bookBytes)
}

// itob returns an 8-byte big endian representation of v
// so that the bucket cursor iterates by ascending id.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
