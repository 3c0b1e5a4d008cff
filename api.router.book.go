package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the catalog endpoints. Reads render a page
// while every write answers with a redirect.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/books", m.public(api.Handle(api.ListBooks)))
	router.GET("/book-add", m.public(api.Handle(api.ShowBookForm)))
	router.POST("/process-book", m.public(api.Handle(api.CreateBook)))
	router.GET("/book/:bookId", m.public(api.Handle(api.ShowBook)))
	router.GET("/book/:bookId/edit", m.public(api.Handle(api.ShowEditForm)))
	router.POST("/book/:bookId/process-edit", m.public(api.Handle(api.EditBook)))
	router.GET("/book/:bookId/delete", m.public(api.Handle(api.DeleteBook)))
	router.POST("/book/:bookId/process-review", m.public(api.Handle(api.AddReview)))
	return router
}
