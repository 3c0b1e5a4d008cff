package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLRenderer(t *testing.T) {
	views, err := NewHTMLRenderer()
	require.NoError(t, err)

	book := &Book{
		ID:          testBookID,
		Title:       "The <Go> Book",
		Author:      "Alan Donovan",
		Description: "Go book",
		Rating:      4.5,
		Reviews:     []Review{{UserFullName: "Jane Doe", ReviewText: "Great read"}},
	}

	testCases := []struct {
		name     string
		view     string
		status   int
		data     *PageData
		contains []string
	}{
		{"list", ViewBookList, http.StatusOK, &PageData{Books: []Book{*book}}, []string{"/book/" + testBookID, "The &lt;Go&gt; Book", "4.5"}},
		{"empty list", ViewBookList, http.StatusOK, &PageData{}, []string{"No books yet."}},
		{"details", ViewBookDetails, http.StatusOK, &PageData{Book: book}, []string{"Great read", "/book/" + testBookID + "/process-review", "/book/" + testBookID + "/delete"}},
		{"details without book", ViewBookDetails, http.StatusOK, &PageData{}, []string{"Book not found"}},
		{"creation form", ViewBookForm, http.StatusOK, &PageData{}, []string{`action="/process-book"`, `name="rating"`}},
		{"edit form", ViewBookEdit, http.StatusOK, &PageData{Book: book}, []string{"/book/" + testBookID + "/process-edit", `value="4.5"`}},
		{"edit form without book", ViewBookEdit, http.StatusOK, &PageData{}, []string{"Book not found"}},
		{"error", ViewError, http.StatusBadRequest, &PageData{RequestID: "r:1", Error: &ErrorView{
			Status:  http.StatusBadRequest,
			Message: "the submitted data is not valid.",
			Fields:  map[string]string{"rating": "must be a number"},
		}}, []string{"400", "rating must be a number", "r:1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, views.Render(w, tc.status, tc.view, tc.data))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "text/html; charset=UTF-8", w.Header().Get("Content-Type"))
			for _, s := range tc.contains {
				assert.Contains(t, w.Body.String(), s)
			}
		})
	}
}

func TestHTMLRenderer_UnknownView(t *testing.T) {
	views, err := NewHTMLRenderer()
	require.NoError(t, err)
	w := httptest.NewRecorder()
	assert.Error(t, views.Render(w, http.StatusOK, "missing", &PageData{}))
	assert.Empty(t, w.Body.String())
}
