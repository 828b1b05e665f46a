package main

import (
	"bytes"
	"context"
	"encoding/json"
)

// MaxFieldLength is the maximum number of characters accepted for
// the free text fields of a book (author and title).
const MaxFieldLength = 1024

// BookUpdate holds the fields a client may send to create or update a book.
// A nil field means "not provided".
type BookUpdate struct {
	Author        *string `json:"author"`
	Title         *string `json:"title"`
	PublishedDate *Date   `json:"published_date"`
}

// Book represents a persisted book entity.
type Book struct {
	ID            int64   `json:"id"`
	Author        *string `json:"author"`
	Title         *string `json:"title"`
	PublishedDate *Date   `json:"published_date"`
}

// NewBook builds a fresh record with the given id from all fields of u.
// Unset fields stay null.
func NewBook(id int64, u BookUpdate) Book {
	b := Book{ID: id}
	b.Author = cloneString(u.Author)
	b.Title = cloneString(u.Title)
	b.PublishedDate = cloneDate(u.PublishedDate)
	return b
}

// Merge overwrites each field of the book which is set in u.
// Fields left nil in u keep their stored value.
func (b *Book) Merge(u BookUpdate) {
	if u.Author != nil {
		b.Author = cloneString(u.Author)
	}
	if u.Title != nil {
		b.Title = cloneString(u.Title)
	}
	if u.PublishedDate != nil {
		b.PublishedDate = cloneDate(u.PublishedDate)
	}
}

// Clone returns a deep copy so callers never share pointers with a store.
func (b Book) Clone() Book {
	return Book{
		ID:            b.ID,
		Author:        cloneString(b.Author),
		Title:         cloneString(b.Title),
		PublishedDate: cloneDate(b.PublishedDate),
	}
}

// IsEmpty reports whether no field is set.
func (u BookUpdate) IsEmpty() bool {
	return u.Author == nil && u.Title == nil && u.PublishedDate == nil
}

// UnmarshalJSON decodes a request body. An empty published date string
// means "not provided", like a null one.
func (u *BookUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Author        *string         `json:"author"`
		Title         *string         `json:"title"`
		PublishedDate json.RawMessage `json:"published_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Author, u.Title, u.PublishedDate = raw.Author, raw.Title, nil
	pd := bytes.TrimSpace(raw.PublishedDate)
	if len(pd) == 0 || bytes.Equal(pd, []byte("null")) || bytes.Equal(pd, []byte(`""`)) {
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(pd); err != nil {
		return err
	}
	u.PublishedDate = &d
	return nil
}

// Validate checks the length constraints of the text fields.
func (u BookUpdate) Validate() error {
	if u.Author != nil && len([]rune(*u.Author)) > MaxFieldLength {
		return fieldTooLongError("author")
	}
	if u.Title != nil && len([]rune(*u.Title)) > MaxFieldLength {
		return fieldTooLongError("title")
	}
	return nil
}

// BookStorage defines the operations every storage backend provides.
type BookStorage interface {
	List(ctx context.Context, criteria Criteria) ([]Book, error)
	Find(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, u BookUpdate) (Book, error)
	Update(ctx context.Context, id int64, u BookUpdate) (Book, error)
	Remove(ctx context.Context, id int64) error
	Close() error
}

// StringPtr is a small helper to build optional string fields.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
