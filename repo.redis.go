package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks string = "books"
	// maxTxRetries bounds the optimistic transaction attempts on concurrent edits of the books hash.
	maxTxRetries = 10
)

var ErrTooManyConflicts = errors.New("storage: too many concurrent modifications")

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

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Add inserts a new book record.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HBooks, book.ID, bookBytes).Err()
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// GetAll retrieves all books ordered by rating from the highest.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	values, err := rs.client.HVals(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(values))
	for _, bookJSONString := range values {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	SortBooksByRating(books)
	return books, nil
}

// Update replaces the editable fields of an existing book.
func (rs *redisBookStorage) Update(ctx context.Context, id string, changes BookChanges, updatedAt string) (Book, error) {
	return rs.modify(ctx, id, func(book *Book) {
		changes.Apply(book)
		book.UpdatedAt = updatedAt
	})
}

// AddReview appends a review to an existing book.
func (rs *redisBookStorage) AddReview(ctx context.Context, id string, review Review, updatedAt string) (Book, error) {
	return rs.modify(ctx, id, func(book *Book) {
		book.Reviews = append(book.Reviews, review)
		book.UpdatedAt = updatedAt
	})
}

// Delete removes a book record based on its ID. Removing
// a missing book is not an error.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	return rs.client.HDel(ctx, HBooks, id).Err()
}

// modify runs a read-modify-write of a single book under an optimistic
// transaction on the books hash. It retries when another client wrote
// to the hash between the read and the write.
func (rs *redisBookStorage) modify(ctx context.Context, id string, change func(*Book)) (Book, error) {
	var book Book
	txf := func(tx *redis.Tx) error {
		bookJSONString, err := tx.HGet(ctx, HBooks, id).Result()
		if err == redis.Nil {
			return ErrBookNotFound
		}
		if err != nil {
			return err
		}
		book = Book{}
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return err
		}
		change(&book)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, id, bookBytes)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := rs.client.Watch(ctx, txf, HBooks)
		if err == nil {
			return book, nil
		}
		if err == redis.TxFailedErr {
			rs.logger.Debug("storage: books hash changed during transaction, retrying", zap.String("book.id", id), zap.Int("attempt", i+1))
			continue
		}
		return Book{}, err
	}
	return Book{}, ErrTooManyConflicts
}
