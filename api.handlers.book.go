package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index sends visitors to the list of books.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Hello. Book catalog is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// bookID extracts the book id from the path and checks its format.
func (api *APIHandler) bookID(ps httprouter.Params) (string, error) {
	id := ps.ByName("bookId")
	if !api.idsHandler.IsValid(id, BookIDPrefix) {
		return id, ErrInvalidBookID
	}
	return id, nil
}

// BookAddress is the address of the details page of a book.
func BookAddress(id string) string {
	return "/book/" + id
}

// ListBooks renders all books, the best rated first.
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		return err
	}
	data := &PageData{RequestID: GetValueFromContext(r.Context(), RequestIDContextKey), Books: books}
	return api.views.Render(w, http.StatusOK, ViewBookList, data)
}

// ShowBook renders a single book. An unknown id renders the page without book.
func (api *APIHandler) ShowBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	return api.renderOneBook(w, r, ps, ViewBookDetails)
}

// ShowBookForm renders the empty creation form.
func (api *APIHandler) ShowBookForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	data := &PageData{RequestID: GetValueFromContext(r.Context(), RequestIDContextKey)}
	return api.views.Render(w, http.StatusOK, ViewBookForm, data)
}

// CreateBook stores the submitted book then redirects to its page.
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	changes, err := DecodeBookForm(r)
	if err != nil {
		return err
	}
	book, err := api.bookService.Add(r.Context(), changes)
	if err != nil {
		return err
	}
	api.logger.Info("success to create book", zap.String("book.id", book.ID), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	http.Redirect(w, r, BookAddress(book.ID), http.StatusSeeOther)
	return nil
}

// ShowEditForm renders the edit form filled with the current book values.
func (api *APIHandler) ShowEditForm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	return api.renderOneBook(w, r, ps, ViewBookEdit)
}

// EditBook replaces the editable fields then redirects to the book page.
func (api *APIHandler) EditBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := api.bookID(ps)
	if err != nil {
		return err
	}
	changes, err := DecodeBookForm(r)
	if err != nil {
		return err
	}
	if _, err = api.bookService.Update(r.Context(), id, changes); err != nil {
		return err
	}
	api.logger.Info("success to update book", zap.String("book.id", id), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	http.Redirect(w, r, BookAddress(id), http.StatusSeeOther)
	return nil
}

// DeleteBook removes the book then redirects to the list.
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := api.bookID(ps)
	if err != nil {
		return err
	}
	if err = api.bookService.Delete(r.Context(), id); err != nil {
		return err
	}
	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	http.Redirect(w, r, "/books", http.StatusSeeOther)
	return nil
}

// AddReview appends the submitted review then redirects to the book page.
func (api *APIHandler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := api.bookID(ps)
	if err != nil {
		return err
	}
	review, err := DecodeReviewForm(r)
	if err != nil {
		return err
	}
	if _, err = api.bookService.AddReview(r.Context(), id, review); err != nil {
		return err
	}
	api.logger.Info("success to add review", zap.String("book.id", id), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	http.Redirect(w, r, BookAddress(id), http.StatusSeeOther)
	return nil
}

func (api *APIHandler) renderOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params, view string) error {
	id, err := api.bookID(ps)
	if err != nil {
		return err
	}
	data := &PageData{RequestID: GetValueFromContext(r.Context(), RequestIDContextKey)}
	book, err := api.bookService.GetOne(r.Context(), id)
	switch {
	case err == nil:
		data.Book = &book
	case errors.Is(err, ErrBookNotFound):
		api.logger.Info("book does not exist", zap.String("book.id", id), zap.String("request.id", data.RequestID))
	default:
		return err
	}
	return api.views.Render(w, http.StatusOK, view, data)
}
