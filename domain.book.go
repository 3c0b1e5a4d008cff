package main

import "context"

// Book represents a book entity of the catalog.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"required"`
	Author      string   `json:"author" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Rating      float64  `json:"rating" validate:"rating"`
	Reviews     []Review `json:"reviews" validate:"dive"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// Review is a reader opinion embedded into a book. It has no
// identity of its own and can only be appended to its book.
type Review struct {
	UserFullName string `json:"userFullName" validate:"required"`
	ReviewText   string `json:"reviewText" validate:"required"`
}

// BookChanges holds the only fields an edit is allowed to replace.
type BookChanges struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Rating      float64 `json:"rating" validate:"rating"`
}

// Apply sets the edited fields on the book and leaves the others untouched.
func (c BookChanges) Apply(book *Book) {
	book.Title = c.Title
	book.Author = c.Author
	book.Description = c.Description
	book.Rating = c.Rating
}

// BookStorage defines possible operations on book entity. Read-modify-write
// operations (Update and AddReview) must be atomic inside each storage.
// The updatedAt value is provided by the caller.
type BookStorage interface {
	Add(ctx context.Context, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id string, changes BookChanges, updatedAt string) (Book, error)
	AddReview(ctx context.Context, id string, review Review, updatedAt string) (Book, error)
	Delete(ctx context.Context, id string) error
}

// BookReplica is a storage able to mirror book snapshots.
type BookReplica interface {
	Save(ctx context.Context, book Book) error
	Delete(ctx context.Context, id string) error
}
