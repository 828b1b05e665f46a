package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storageFactory returns an empty storage. Cleanup is registered on t.
type storageFactory func(t *testing.T) BookStorage

func sampleBooks() []BookUpdate {
	return []BookUpdate{
		{Author: StringPtr("John Doe"), Title: StringPtr("Awesome Novel"), PublishedDate: DatePtr("1980-02-15")},
		{Author: StringPtr("John Doe"), Title: StringPtr("Tricky Story"), PublishedDate: DatePtr("1981-04-20")},
		{Author: StringPtr("Jack Daniel"), Title: StringPtr("Awesome Story"), PublishedDate: DatePtr("1982-06-25")},
	}
}

func createSampleBooks(t *testing.T, s BookStorage) []Book {
	t.Helper()
	var books []Book
	for _, u := range sampleBooks() {
		b, err := s.Create(context.Background(), u)
		require.NoError(t, err)
		books = append(books, b)
	}
	return books
}

func titles(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		if b.Title != nil {
			out = append(out, *b.Title)
		}
	}
	return out
}

// runBookStorageSuite checks the behavior every storage backend must share.
//
//nolint:funlen
func runBookStorageSuite(t *testing.T, newStorage storageFactory) {
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		s := newStorage(t)
		books, err := s.List(ctx, Criteria{})
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("ids strictly increase and are never reused", func(t *testing.T) {
		s := newStorage(t)
		var last int64
		for i := 0; i < 3; i++ {
			b, err := s.Create(ctx, BookUpdate{Title: StringPtr("t")})
			require.NoError(t, err)
			assert.Greater(t, b.ID, last)
			last = b.ID
		}
		require.NoError(t, s.Remove(ctx, last))
		b, err := s.Create(ctx, BookUpdate{Title: StringPtr("after remove")})
		require.NoError(t, err)
		assert.Greater(t, b.ID, last)
	})

	t.Run("find after create", func(t *testing.T) {
		s := newStorage(t)
		created, err := s.Create(ctx, sampleBooks()[0])
		require.NoError(t, err)
		found, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, found)
		assert.Equal(t, "John Doe", *found.Author)
		assert.Equal(t, "Awesome Novel", *found.Title)
		assert.Equal(t, "1980-02-15", found.PublishedDate.String())
	})

	t.Run("unset fields stay null", func(t *testing.T) {
		s := newStorage(t)
		created, err := s.Create(ctx, BookUpdate{Title: StringPtr("Only a title")})
		require.NoError(t, err)
		found, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Author)
		assert.Nil(t, found.PublishedDate)
		assert.Equal(t, "Only a title", *found.Title)
	})

	t.Run("find missing book", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.Find(ctx, 42)
		assert.ErrorIs(t, err, ErrBookNotFound)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, int64(42), nf.ID)
		assert.Equal(t, "Book with ID 42 not found", err.Error())
	})

	t.Run("find after remove", func(t *testing.T) {
		s := newStorage(t)
		created, err := s.Create(ctx, sampleBooks()[1])
		require.NoError(t, err)
		require.NoError(t, s.Remove(ctx, created.ID))
		_, err = s.Find(ctx, created.ID)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, created.ID, nf.ID)
	})

	t.Run("sparse update", func(t *testing.T) {
		s := newStorage(t)
		created, err := s.Create(ctx, sampleBooks()[0])
		require.NoError(t, err)
		updated, err := s.Update(ctx, created.ID, BookUpdate{Title: StringPtr("X")})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "X", *updated.Title)
		assert.Equal(t, "John Doe", *updated.Author)
		assert.Equal(t, "1980-02-15", updated.PublishedDate.String())

		found, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, found)
	})

	t.Run("empty update keeps the book", func(t *testing.T) {
		s := newStorage(t)
		created, err := s.Create(ctx, sampleBooks()[2])
		require.NoError(t, err)
		updated, err := s.Update(ctx, created.ID, BookUpdate{})
		require.NoError(t, err)
		assert.Equal(t, created, updated)
	})

	t.Run("update missing book", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.Update(ctx, 7, BookUpdate{Title: StringPtr("X")})
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, int64(7), nf.ID)
	})

	t.Run("list by author and title patterns", func(t *testing.T) {
		s := newStorage(t)
		createSampleBooks(t, s)

		books, err := s.List(ctx, Criteria{Author: StringPtr("John Doe")})
		require.NoError(t, err)
		assert.Equal(t, []string{"Awesome Novel", "Tricky Story"}, titles(books))

		books, err = s.List(ctx, Criteria{Title: StringPtr("Awesome*")})
		require.NoError(t, err)
		assert.Equal(t, []string{"Awesome Novel", "Awesome Story"}, titles(books))

		books, err = s.List(ctx, Criteria{Title: StringPtr("*Story")})
		require.NoError(t, err)
		assert.Equal(t, []string{"Tricky Story", "Awesome Story"}, titles(books))

		books, err = s.List(ctx, Criteria{Author: StringPtr("J??n Doe")})
		require.NoError(t, err)
		assert.Len(t, books, 2)

		books, err = s.List(ctx, Criteria{Title: StringPtr("Awesome")})
		require.NoError(t, err)
		assert.Empty(t, books, "pattern without wildcard is an exact match")
	})

	t.Run("list by published date range", func(t *testing.T) {
		s := newStorage(t)
		createSampleBooks(t, s)

		books, err := s.List(ctx, Criteria{
			PublishedDateFrom: DatePtr("1980-06-15"),
			PublishedDateTo:   DatePtr("1982-06-15"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Tricky Story"}, titles(books))

		books, err = s.List(ctx, Criteria{PublishedDateFrom: DatePtr("1981-04-20")})
		require.NoError(t, err)
		assert.Equal(t, []string{"Awesome Story"}, titles(books), "lower bound is strict")

		books, err = s.List(ctx, Criteria{PublishedDateTo: DatePtr("1981-04-20")})
		require.NoError(t, err)
		assert.Equal(t, []string{"Awesome Novel"}, titles(books), "upper bound is strict")
	})

	t.Run("null fields never match", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.Create(ctx, BookUpdate{})
		require.NoError(t, err)
		for _, c := range []Criteria{
			{Author: StringPtr("*")},
			{Title: StringPtr("*")},
			{PublishedDateFrom: DatePtr("1900")},
			{PublishedDateTo: DatePtr("2100")},
		} {
			books, err := s.List(ctx, c)
			require.NoError(t, err)
			assert.Empty(t, books)
		}
		books, err := s.List(ctx, Criteria{})
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		s := newStorage(t)
		created := createSampleBooks(t, s)
		books, err := s.List(ctx, Criteria{})
		require.NoError(t, err)
		assert.Equal(t, created, books)
	})

	t.Run("returned books are copies", func(t *testing.T) {
		s := newStorage(t)
		created, err := s.Create(ctx, sampleBooks()[0])
		require.NoError(t, err)
		*created.Title = "changed by caller"
		found, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Awesome Novel", *found.Title)
	})
}
