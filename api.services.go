package main

import (
	"context"

	"go.uber.org/zap"
)

// BookServiceProvider is the catalog repository used by the handlers.
type BookServiceProvider interface {
	GetAll(ctx context.Context) ([]Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Add(ctx context.Context, changes BookChanges) (Book, error)
	Update(ctx context.Context, id string, changes BookChanges) (Book, error)
	AddReview(ctx context.Context, id string, review Review) (Book, error)
	Delete(ctx context.Context, id string) error
}

// BookService validates changes, stamps them and forwards each of them as a single
// storage call. Successful writes are published on the queue when one is set.
type BookService struct {
	logger    *zap.Logger
	clock     Clocker
	ids       UIDHandler
	validator *BookValidator
	storage   BookStorage
	queue     Queuer
}

func NewBookService(logger *zap.Logger, clock Clocker, ids UIDHandler, validator *BookValidator, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:    logger,
		clock:     clock,
		ids:       ids,
		validator: validator,
		storage:   storage,
		queue:     queue,
	}
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

// Add creates a book with a new id and no reviews.
func (bs *BookService) Add(ctx context.Context, changes BookChanges) (Book, error) {
	book := Book{Reviews: []Review{}}
	changes.Apply(&book)
	if err := bs.validator.Check(book); err != nil {
		return Book{}, err
	}
	now := Timestamp(bs.clock.Now())
	book.ID = bs.ids.Generate(BookIDPrefix)
	book.CreatedAt, book.UpdatedAt = now, now
	if err := bs.storage.Add(ctx, book); err != nil {
		return Book{}, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

// Update replaces title, author, description and rating. Reviews are kept.
func (bs *BookService) Update(ctx context.Context, id string, changes BookChanges) (Book, error) {
	if err := bs.validator.Check(changes); err != nil {
		return Book{}, err
	}
	book, err := bs.storage.Update(ctx, id, changes, Timestamp(bs.clock.Now()))
	if err != nil {
		return Book{}, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

// AddReview appends the review at the end of the book reviews.
func (bs *BookService) AddReview(ctx context.Context, id string, review Review) (Book, error) {
	if err := bs.validator.Check(review); err != nil {
		return Book{}, err
	}
	book, err := bs.storage.AddReview(ctx, id, review, Timestamp(bs.clock.Now()))
	if err != nil {
		return Book{}, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, Book{ID: id})
	return nil
}

// publish is best effort: the primary write already succeeded.
func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}
