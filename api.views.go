package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Names of the catalog templates.
const (
	ViewBookList    = "book-list"
	ViewBookDetails = "book-details"
	ViewBookForm    = "book-form"
	ViewBookEdit    = "book-edit"
	ViewError       = "error"
)

// ViewRenderer turns a named template and its data into an html response.
type ViewRenderer interface {
	Render(w http.ResponseWriter, status int, name string, data *PageData) error
}

// PageData is the context handed to every template. Book is nil
// on the details and edit pages when no book matches the id.
type PageData struct {
	RequestID string
	Books     []Book
	Book      *Book
	Error     *ErrorView
}

// ErrorView describes a failure to the user.
type ErrorView struct {
	Status  int
	Message string
	Fields  map[string]string
}

type htmlRenderer struct {
	views map[string]*template.Template
}

// NewHTMLRenderer parses all embedded pages, each one combined with the shared layout.
func NewHTMLRenderer() (ViewRenderer, error) {
	pages := []string{ViewBookList, ViewBookDetails, ViewBookForm, ViewBookEdit, ViewError}
	views := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).ParseFS(templatesFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		views[page] = t
	}
	return &htmlRenderer{views: views}, nil
}

// Render executes the template into a buffer first so that a failing
// template never leaves a partial page with a success status.
func (hr *htmlRenderer) Render(w http.ResponseWriter, status int, name string, data *PageData) error {
	t, ok := hr.views[name]
	if !ok {
		return fmt.Errorf("view %q does not exist", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
