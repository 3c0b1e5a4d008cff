package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredBook(id string, rating float64, createdAt time.Time) Book {
	ts := Timestamp(createdAt)
	return Book{
		ID:          id,
		Title:       "title of " + id,
		Author:      "Jerome Amon",
		Description: "description of " + id,
		Rating:      rating,
		Reviews:     []Review{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// runBookStorageTests checks the behavior every BookStorage must provide.
// The store must be empty.
func runBookStorageTests(t *testing.T, store BookStorage) {
	ctx := context.Background()
	base := time.Date(2023, 7, 1, 20, 19, 10, 0, time.UTC)
	first := newStoredBook("b:1", 5, base)

	t.Run("Empty Catalog", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("Add Book", func(t *testing.T) {
		require.NoError(t, store.Add(ctx, first))
		book, err := store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first, book)
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, "b:unknown")
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})

	t.Run("Add Reviews In Order", func(t *testing.T) {
		_, err := store.AddReview(ctx, first.ID, Review{UserFullName: "Jane", ReviewText: "first"}, Timestamp(base.Add(time.Minute)))
		require.NoError(t, err)
		book, err := store.AddReview(ctx, first.ID, Review{UserFullName: "John", ReviewText: "second"}, Timestamp(base.Add(2*time.Minute)))
		require.NoError(t, err)
		require.Len(t, book.Reviews, 2)
		assert.Equal(t, "first", book.Reviews[0].ReviewText)
		assert.Equal(t, "second", book.Reviews[1].ReviewText)
		assert.Equal(t, Timestamp(base.Add(2*time.Minute)), book.UpdatedAt)

		stored, err := store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, book, stored)
	})

	t.Run("Update Keeps Reviews", func(t *testing.T) {
		changes := BookChanges{Title: "new title", Author: "new author", Description: "new description", Rating: 8}
		book, err := store.Update(ctx, first.ID, changes, Timestamp(base.Add(3*time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, "new title", book.Title)
		assert.Equal(t, 8.0, book.Rating)
		assert.Len(t, book.Reviews, 2)
		assert.Equal(t, first.CreatedAt, book.CreatedAt)
		assert.Equal(t, Timestamp(base.Add(3*time.Minute)), book.UpdatedAt)

		stored, err := store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, book, stored)
	})

	t.Run("Update NonExistent Book", func(t *testing.T) {
		_, err := store.Update(ctx, "b:unknown", BookChanges{Title: "x", Author: "x", Description: "x", Rating: 1}, Timestamp(base))
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = store.GetOne(ctx, "b:unknown")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Review NonExistent Book", func(t *testing.T) {
		_, err := store.AddReview(ctx, "b:unknown", Review{UserFullName: "Jane", ReviewText: "lost"}, Timestamp(base))
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get All Books By Rating", func(t *testing.T) {
		require.NoError(t, store.Add(ctx, newStoredBook("b:2", 3, base.Add(time.Second))))
		require.NoError(t, store.Add(ctx, newStoredBook("b:4", 9.5, base.Add(3*time.Second))))
		require.NoError(t, store.Add(ctx, newStoredBook("b:3", 3, base.Add(2*time.Second))))
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(books))
		for _, b := range books {
			ids = append(ids, b.ID)
		}
		// equal ratings keep the creation order.
		assert.Equal(t, []string{"b:4", "b:1", "b:2", "b:3"}, ids)
	})

	t.Run("Concurrent Reviews", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.AddReview(ctx, "b:2", Review{UserFullName: "user", ReviewText: fmt.Sprintf("review %d", i)}, Timestamp(base))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		book, err := store.GetOne(ctx, "b:2")
		require.NoError(t, err)
		assert.Len(t, book.Reviews, 5)
	})

	t.Run("Delete Existent Book", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, first.ID))
		_, err := store.GetOne(ctx, first.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		for _, b := range books {
			assert.NotEqual(t, first.ID, b.ID)
		}
	})

	t.Run("Delete NonExistent Book", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, first.ID))
	})
}
