package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestIDsHandler(t *testing.T) {
	idh := NewIDsHandler()
	id := idh.Generate(BookIDPrefix)
	assert.True(t, idh.IsValid(id, BookIDPrefix))
	assert.False(t, idh.IsValid(id, RequestIDPrefix))
	assert.NotEqual(t, id, idh.Generate(BookIDPrefix))

	assert.False(t, idh.IsValid("b:", BookIDPrefix))
	assert.False(t, idh.IsValid("b:42", BookIDPrefix))
	assert.False(t, idh.IsValid("cb8f2136-fae4-4200-85d9-3533c7f8c70d", BookIDPrefix))
	assert.True(t, idh.IsValid(testBookID, BookIDPrefix))
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := Timestamp(time.Date(2023, 7, 1, 22, 19, 10, 5, loc))
	assert.Equal(t, "2023-07-01T20:19:10.000000005Z", ts)
	// fixed width keeps the string order equal to the time order.
	assert.Less(t, Timestamp(time.Date(2023, 7, 1, 20, 19, 10, 0, time.UTC)), Timestamp(time.Date(2023, 7, 1, 20, 19, 10, 100, time.UTC)))
}

func TestSortBooksByRating(t *testing.T) {
	books := []Book{
		{ID: "b:c", Rating: 2, CreatedAt: "2023-07-01T00:00:02.000000000Z"},
		{ID: "b:b", Rating: 7, CreatedAt: "2023-07-01T00:00:03.000000000Z"},
		{ID: "b:z", Rating: 2, CreatedAt: "2023-07-01T00:00:01.000000000Z"},
		{ID: "b:a", Rating: 2, CreatedAt: "2023-07-01T00:00:01.000000000Z"},
	}
	SortBooksByRating(books)
	ids := []string{}
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b:b", "b:a", "b:z", "b:c"}, ids)
}

func TestDecodeBookForm(t *testing.T) {
	testCases := []struct {
		name    string
		form    url.Values
		want    BookChanges
		invalid map[string]string
	}{
		{
			"trimmed values",
			url.Values{"title": {" Go "}, "author": {"Rob"}, "description": {"d"}, "rating": {" 7.5 "}},
			BookChanges{Title: "Go", Author: "Rob", Description: "d", Rating: 7.5},
			nil,
		},
		{
			"missing rating",
			url.Values{"title": {"Go"}},
			BookChanges{Title: "Go"},
			map[string]string{"rating": "is required"},
		},
		{
			"rating not a number",
			url.Values{"title": {"Go"}, "rating": {"ten"}},
			BookChanges{Title: "Go"},
			map[string]string{"rating": "must be a number"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			changes, err := DecodeBookForm(newFormRequest("/process-book", tc.form))
			if tc.invalid == nil {
				require.NoError(t, err)
				assert.Equal(t, tc.want, changes)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.invalid, verr.Fields)
		})
	}
}

func TestDecodeReviewForm(t *testing.T) {
	review, err := DecodeReviewForm(newFormRequest("/book/b:1/process-review", url.Values{"userFullName": {" Jane "}, "reviewText": {" ok "}}))
	require.NoError(t, err)
	assert.Equal(t, Review{UserFullName: "Jane", ReviewText: "ok"}, review)
}

func TestBookValidator(t *testing.T) {
	bv := NewBookValidator(1, 5)

	assert.NoError(t, bv.Check(BookChanges{Title: "Go", Author: "Rob", Description: "d", Rating: 1}))
	assert.NoError(t, bv.Check(BookChanges{Title: "Go", Author: "Rob", Description: "d", Rating: 5}))

	err := bv.Check(BookChanges{Rating: 5.5})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"title":       "is required",
		"author":      "is required",
		"description": "is required",
		"rating":      "must be between 1 and 5",
	}, verr.Fields)
	assert.Equal(t, "invalid fields: author is required, description is required, rating must be between 1 and 5, title is required", verr.Error())

	err = bv.Check(Book{Title: "Go", Author: "Rob", Description: "d", Rating: 3, Reviews: []Review{{UserFullName: "Jane"}}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["reviewText"])
}

func TestGetRequestSourceIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.RemoteAddr = "192.168.1.10:4000"
	assert.Equal(t, "192.168.1.10", GetRequestSourceIP(req))

	req.Header.Set("X-FORWARDED-FOR", "bad, 10.0.0.7")
	assert.Equal(t, "10.0.0.7", GetRequestSourceIP(req))

	req.Header.Set("X-REAL-IP", "10.0.0.9")
	assert.Equal(t, "10.0.0.9", GetRequestSourceIP(req))
}

func TestParseTrustedProxies(t *testing.T) {
	nets, err := ParseTrustedProxies([]string{"10.0.0.1", " 192.168.0.0/24 ", "::1"})
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.True(t, nets[0].Contains(net.ParseIP("10.0.0.1")))
	assert.False(t, nets[0].Contains(net.ParseIP("10.0.0.2")))
	assert.True(t, nets[1].Contains(net.ParseIP("192.168.0.200")))
	assert.True(t, nets[2].Contains(net.ParseIP("::1")))

	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/40"})
	assert.Error(t, err)
}

func TestGetRequestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"192.168.1.0/24"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	req.Header.Set("X-REAL-IP", "10.0.0.9")
	assert.Equal(t, "203.0.113.7", GetRequestClientIP(req, nil))
	assert.Equal(t, "203.0.113.7", GetRequestClientIP(req, trusted))

	req.RemoteAddr = "192.168.1.10:4000"
	assert.Equal(t, "192.168.1.10", GetRequestClientIP(req, nil))
	assert.Equal(t, "10.0.0.9", GetRequestClientIP(req, trusted))

	req.Header.Del("X-REAL-IP")
	assert.Equal(t, "192.168.1.10", GetRequestClientIP(req, trusted))
}

func TestDecodeFormsMalformedBody(t *testing.T) {
	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/process-book", strings.NewReader("title=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}
	_, err := DecodeBookForm(newRequest())
	assert.ErrorIs(t, err, ErrInvalidForm)
	_, err = DecodeReviewForm(newRequest())
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Equal(t, http.StatusBadRequest, ErrorStatus(err))
}

func TestCustomResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := NewCustomResponseWriter(rec)
	cw.WriteHeader(http.StatusCreated)
	cw.WriteHeader(http.StatusInternalServerError)
	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, cw.Status())
	assert.Equal(t, 5, cw.Bytes())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, rec, cw.Unwrap())
}

func TestSetupLogging(t *testing.T) {
	logFile, closer, err := OpenLogFile(filepath.Join(t.TempDir(), "logs", "catalog.log"))
	require.NoError(t, err)
	defer closer()

	config := &Config{IsProduction: true, GitCommit: "abc123", LogLevel: zapcore.InfoLevel}
	logger, flusher := SetupLogging(config, logFile)
	logger.Debug("hidden")
	logger.Info("book created", zap.String("book.id", "b:1"))
	require.NoError(t, flusher())

	data, err := os.ReadFile(logFile.Name())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"book created"`)
	assert.Contains(t, string(data), `"app.commit":"abc123"`)
	assert.Contains(t, string(data), `"book.id":"b:1"`)
}
