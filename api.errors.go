package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// AppHandle is a catalog handler. It either writes its own success
// response or returns the error to be rendered by the boundary.
type AppHandle func(http.ResponseWriter, *http.Request, httprouter.Params) error

// Handle converts an AppHandle into an httprouter.Handle. It is the single
// place where a failed catalog operation turns into an error page.
func (api *APIHandler) Handle(h AppHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := h(w, r, ps); err != nil {
			api.RenderError(w, r, err, ps.ByName("bookId"))
		}
	}
}

// ErrorStatus maps an error kind to its http status code.
func ErrorStatus(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrInvalidBookID), errors.Is(err, ErrInvalidForm):
		return http.StatusBadRequest
	case errors.Is(err, ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorView builds the user facing description of err. Storage failures
// are never detailed to the user, only logged.
func NewErrorView(err error) *ErrorView {
	status := ErrorStatus(err)
	view := &ErrorView{Status: status}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		view.Message = "the submitted data is not valid."
		view.Fields = verr.Fields
	case errors.Is(err, ErrInvalidBookID):
		view.Message = "book id provided is not valid."
	case errors.Is(err, ErrInvalidForm):
		view.Message = "the submitted form could not be read."
	case errors.Is(err, ErrBookNotFound):
		view.Message = "book does not exist."
	case status == http.StatusGatewayTimeout:
		view.Message = "processing took too long. please try again."
	default:
		view.Message = "failed to process the request."
	}
	return view
}

// RenderError logs err and renders the error page. When the client is gone
// or the request timed out only the status is recorded, nothing is sent.
func (api *APIHandler) RenderError(w http.ResponseWriter, r *http.Request, err error, bookID string) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	view := NewErrorView(err)
	logger := api.logger.With(
		zap.String("request.id", requestID),
		zap.String("request.method", r.Method),
		zap.String("request.path", r.URL.Path),
		zap.Int("response.status", view.Status),
	)
	if bookID != "" {
		logger = logger.With(zap.String("book.id", bookID))
	}
	if view.Status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Info("request rejected", zap.Error(err))
	}

	if cerr := r.Context().Err(); cerr != nil {
		if errors.Is(cerr, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return
	}

	data := &PageData{RequestID: requestID, Error: view}
	if rerr := api.views.Render(w, view.Status, ViewError, data); rerr != nil {
		logger.Error("failed to render error page", zap.Error(rerr))
		http.Error(w, http.StatusText(view.Status), view.Status)
	}
}

// NotFound renders the error page for unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		data := &PageData{
			RequestID: requestID,
			Error:     &ErrorView{Status: http.StatusNotFound, Message: "page does not exist."},
		}
		if err := api.views.Render(w, http.StatusNotFound, ViewError, data); err != nil {
			api.logger.Error("failed to render not found page", zap.String("request.path", r.URL.Path), zap.Error(err))
			http.NotFound(w, r)
		}
	})
}
