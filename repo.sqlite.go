package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var (
	_ BookStorage = (*sqliteBookStorage)(nil)
	_ BookReplica = (*sqliteBookStorage)(nil)
)

// sqliteBookStorage keeps each book as a json document. The rating and
// created_at columns are copies of the document fields used for ordering.
type sqliteBookStorage struct {
	logger *zap.Logger
	db     *sql.DB
}

// GetSqliteClient opens the sqlite database file and ensures the books table exists.
func GetSqliteClient(config *SqliteConfig) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database folder: %v", err)
	}
	db, err := sql.Open("sqlite3", config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	// sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		rating REAL NOT NULL,
		created_at TEXT NOT NULL,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create books table: %v", err)
	}
	return db, nil
}

// NewSqliteBookStorage provides an instance of sqlite-based book storage.
func NewSqliteBookStorage(logger *zap.Logger, db *sql.DB) *sqliteBookStorage {
	return &sqliteBookStorage{logger: logger, db: db}
}

// Close shuts down the sqlite-based book storage.
func (ss *sqliteBookStorage) Close() error {
	return ss.db.Close()
}

// Add inserts a new book record.
func (ss *sqliteBookStorage) Add(ctx context.Context, book Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return err
	}
	_, err = ss.db.ExecContext(ctx,
		"INSERT INTO books (id, rating, created_at, data) VALUES (?, ?, ?, ?)",
		book.ID, book.Rating, book.CreatedAt, string(data),
	)
	return err
}

// Save inserts or replaces a book snapshot.
func (ss *sqliteBookStorage) Save(ctx context.Context, book Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return err
	}
	_, err = ss.db.ExecContext(ctx,
		`INSERT INTO books (id, rating, created_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET rating = excluded.rating, data = excluded.data`,
		book.ID, book.Rating, book.CreatedAt, string(data),
	)
	return err
}

// GetOne retrieves a book record based on its ID.
func (ss *sqliteBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	var raw string
	err := ss.db.QueryRowContext(ctx, "SELECT data FROM books WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(raw), &book)
	return book, err
}

// GetAll retrieves all books ordered by rating from the highest.
func (ss *sqliteBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	rows, err := ss.db.QueryContext(ctx, "SELECT data FROM books ORDER BY rating DESC, created_at ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var raw string
		if err = rows.Scan(&raw); err != nil {
			return nil, err
		}
		var book Book
		if err = json.Unmarshal([]byte(raw), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Update replaces the editable fields of an existing book.
func (ss *sqliteBookStorage) Update(ctx context.Context, id string, changes BookChanges, updatedAt string) (Book, error) {
	return ss.modify(ctx, id, func(book *Book) {
		changes.Apply(book)
		book.UpdatedAt = updatedAt
	})
}

// AddReview appends a review to an existing book.
func (ss *sqliteBookStorage) AddReview(ctx context.Context, id string, review Review, updatedAt string) (Book, error) {
	return ss.modify(ctx, id, func(book *Book) {
		book.Reviews = append(book.Reviews, review)
		book.UpdatedAt = updatedAt
	})
}

// Delete removes a book record based on its ID.
func (ss *sqliteBookStorage) Delete(ctx context.Context, id string) error {
	_, err := ss.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	return err
}

// modify reads, changes and writes back a book inside a single transaction.
func (ss *sqliteBookStorage) modify(ctx context.Context, id string, change func(*Book)) (Book, error) {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT data FROM books WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}

	var book Book
	if err = json.Unmarshal([]byte(raw), &book); err != nil {
		return Book{}, err
	}
	change(&book)
	data, err := json.Marshal(book)
	if err != nil {
		return Book{}, err
	}
	if _, err = tx.ExecContext(ctx, "UPDATE books SET rating = ?, data = ? WHERE id = ?", book.Rating, string(data), id); err != nil {
		return Book{}, err
	}
	if err = tx.Commit(); err != nil {
		return Book{}, err
	}
	return book, nil
}
