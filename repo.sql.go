package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // postgres driver.
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // sqlite driver.
)

var _ BookStorage = (*sqlBookStorage)(nil)

const bookColumns = "id, author, title, published_date"

// sqlBookStorage stores books in a single relational table. Every
// operation runs inside its own transaction.
type sqlBookStorage struct {
	logger  *zap.Logger
	db      *sql.DB
	dialect dialect
}

// OpenSQLiteBookStorage opens (or creates) the sqlite database file at path.
func OpenSQLiteBookStorage(ctx context.Context, logger *zap.Logger, path string) (BookStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite serializes writers. A single connection avoids SQLITE_BUSY
	// between the pool connections of this process.
	db.SetMaxOpenConns(1)
	return NewSQLBookStorage(ctx, logger, db, sqliteDialect{})
}

// OpenPostgresBookStorage connects to the postgres server described by dsn.
func OpenPostgresBookStorage(ctx context.Context, logger *zap.Logger, dsn string) (BookStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	return NewSQLBookStorage(ctx, logger, db, postgresDialect{})
}

// NewSQLBookStorage checks the connection and creates the books table
// if it does not exist yet. It takes ownership of db.
func NewSQLBookStorage(ctx context.Context, logger *zap.Logger, db *sql.DB, d dialect) (BookStorage, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", d.name(), err)
	}
	ss := &sqlBookStorage{logger: logger, db: db, dialect: d}
	err := ss.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, d.createTable())
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up books table: %w", err)
	}
	return ss, nil
}

// Close releases the connection pool.
func (ss *sqlBookStorage) Close() error {
	return ss.db.Close()
}

// withTx runs fn in a transaction. It commits when fn succeeds and
// rolls back on any error, including a panic in fn.
func (ss *sqlBookStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// List selects the books matching the criteria. Rows which cannot be read
// back into a valid book are deleted and left out of the result.
func (ss *sqlBookStorage) List(ctx context.Context, criteria Criteria) ([]Book, error) {
	where, args := ss.whereClause(criteria.Conditions())
	query := "SELECT " + bookColumns + " FROM books" + where + " ORDER BY id"

	var books []Book
	err := ss.withTx(ctx, func(tx *sql.Tx) error {
		var corrupted []int64
		var err error
		books, corrupted, err = ss.scanBooks(ctx, tx, query, args...)
		if err != nil {
			return err
		}
		for _, id := range corrupted {
			if err = ss.purgeCorrupt(ctx, tx, id); err != nil {
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

// Find retrieves a single book by its primary key.
func (ss *sqlBookStorage) Find(ctx context.Context, id int64) (Book, error) {
	var book Book
	var purged bool
	err := ss.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		book, purged, err = ss.findTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return Book{}, err
	}
	if purged {
		return Book{}, NewNotFoundError(id)
	}
	return book, nil
}

// Create inserts a new row and returns it as persisted.
func (ss *sqlBookStorage) Create(ctx context.Context, u BookUpdate) (Book, error) {
	var book Book
	err := ss.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		query := ss.dialect.rebind("INSERT INTO books (author, title, published_date) VALUES (?, ?, ?) RETURNING id")
		err := tx.QueryRowContext(ctx, query, nullString(u.Author), nullString(u.Title), nullDate(u.PublishedDate)).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert book: %w", err)
		}
		var purged bool
		book, purged, err = ss.findTx(ctx, tx, id)
		if err == nil && purged {
			err = fmt.Errorf("%w: %d: unreadable after insert", ErrCorruptRecord, id)
		}
		return err
	})
	return book, err
}

// Update sets only the columns provided in u. An empty update leaves the
// row untouched.
func (ss *sqlBookStorage) Update(ctx context.Context, id int64, u BookUpdate) (Book, error) {
	var book Book
	var purged bool
	err := ss.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if book, purged, err = ss.findTx(ctx, tx, id); err != nil || purged || u.IsEmpty() {
			return err
		}
		var sets []string
		var args []interface{}
		if u.Author != nil {
			sets = append(sets, string(FieldAuthor)+" = ?")
			args = append(args, *u.Author)
		}
		if u.Title != nil {
			sets = append(sets, string(FieldTitle)+" = ?")
			args = append(args, *u.Title)
		}
		if u.PublishedDate != nil {
			sets = append(sets, string(FieldPublishedDate)+" = ?")
			args = append(args, u.PublishedDate.String())
		}
		args = append(args, id)
		query := ss.dialect.rebind("UPDATE books SET " + strings.Join(sets, ", ") + " WHERE id = ?")
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update book %d: %w", id, err)
		}
		book, purged, err = ss.findTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return Book{}, err
	}
	if purged {
		return Book{}, NewNotFoundError(id)
	}
	return book, nil
}

// Remove deletes the row with the given id. Deleting a missing
// row is not an error.
func (ss *sqlBookStorage) Remove(ctx context.Context, id int64) error {
	return ss.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, ss.dialect.rebind("DELETE FROM books WHERE id = ?"), id)
		return err
	})
}

// findTx reads the row with the given id. A corrupt row is deleted and
// reported with purged set, so that the caller commits the deletion
// before answering not found.
func (ss *sqlBookStorage) findTx(ctx context.Context, tx *sql.Tx, id int64) (book Book, purged bool, err error) {
	query := ss.dialect.rebind("SELECT " + bookColumns + " FROM books WHERE id = ?")
	var r bookRow
	err = tx.QueryRowContext(ctx, query, id).Scan(&r.id, &r.author, &r.title, &r.publishedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, false, NewNotFoundError(id)
	}
	if err != nil {
		return Book{}, false, err
	}
	book, err = r.book()
	if errors.Is(err, ErrCorruptRecord) {
		if err = ss.purgeCorrupt(ctx, tx, id); err != nil {
			return Book{}, false, err
		}
		return Book{}, true, nil
	}
	return book, false, err
}

func (ss *sqlBookStorage) purgeCorrupt(ctx context.Context, tx *sql.Tx, id int64) error {
	ss.logger.Warn("sql storage: removing corrupt book record", zap.Int64("book.id", id), zap.String("storage.engine", ss.dialect.name()))
	if _, err := tx.ExecContext(ctx, ss.dialect.rebind("DELETE FROM books WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to remove corrupt book %d: %w", id, err)
	}
	return nil
}

// scanBooks reads every row of the query. It returns the valid books and,
// separately, the ids of the rows which failed to parse.
func (ss *sqlBookStorage) scanBooks(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]Book, []int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	books := []Book{}
	var corrupted []int64
	for rows.Next() {
		var r bookRow
		if err = rows.Scan(&r.id, &r.author, &r.title, &r.publishedDate); err != nil {
			return nil, nil, err
		}
		book, err := r.book()
		if errors.Is(err, ErrCorruptRecord) {
			corrupted = append(corrupted, r.id)
			continue
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}
	return books, corrupted, nil
}

// whereClause translates the conditions into an AND-joined predicate
// with positional arguments. It returns an empty clause when there is
// nothing to filter on.
func (ss *sqlBookStorage) whereClause(conds []Condition) (string, []interface{}) {
	if len(conds) == 0 {
		return "", nil
	}
	predicates := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds))
	for _, c := range conds {
		col := string(c.Field)
		switch c.Op {
		case OpEqual:
			predicates = append(predicates, col+" = ?")
			args = append(args, c.Text)
		case OpGlob:
			predicates = append(predicates, ss.dialect.globExpr(col))
			args = append(args, ss.dialect.globPattern(c.Text))
		case OpAfter:
			predicates = append(predicates, ss.dialect.dateExpr(col)+" > "+ss.dialect.dateExpr("?"))
			args = append(args, c.Date.String())
		case OpBefore:
			predicates = append(predicates, ss.dialect.dateExpr(col)+" < "+ss.dialect.dateExpr("?"))
			args = append(args, c.Date.String())
		}
	}
	return ss.dialect.rebind(" WHERE " + strings.Join(predicates, " AND ")), args
}

// bookRow mirrors a books table row with nullable columns.
type bookRow struct {
	id            int64
	author        sql.NullString
	title         sql.NullString
	publishedDate sql.NullString
}

// book converts the row into a valid Book or fails with ErrCorruptRecord.
func (r bookRow) book() (Book, error) {
	b := Book{ID: r.id}
	if r.author.Valid {
		b.Author = StringPtr(r.author.String)
	}
	if r.title.Valid {
		b.Title = StringPtr(r.title.String)
	}
	if r.publishedDate.Valid {
		d, err := ParseDate(r.publishedDate.String)
		if err != nil {
			return Book{}, fmt.Errorf("%w: %d: %v", ErrCorruptRecord, r.id, err)
		}
		b.PublishedDate = &d
	}
	u := BookUpdate{Author: b.Author, Title: b.Title}
	if err := u.Validate(); err != nil {
		return Book{}, fmt.Errorf("%w: %d: %v", ErrCorruptRecord, r.id, err)
	}
	return b, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDate(d *Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
