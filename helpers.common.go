package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrInvalidBookID = errors.New("book id provided is not valid")
	ErrInvalidForm   = errors.New("submitted form could not be read")
)

type ContextKey string

const (
	BookIDPrefix            string     = "b"
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

// ValidationError lists the fields of a submitted form which do not satisfy the
// catalog rules. The key is the form field name and the value a short reason.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+v.Fields[k])
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// DecodeBookForm reads the fields of a book creation or edit form.
// A rating which is not a number is reported as a validation error.
func DecodeBookForm(r *http.Request) (BookChanges, error) {
	var changes BookChanges
	if err := r.ParseForm(); err != nil {
		return changes, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	changes.Title = strings.TrimSpace(r.PostForm.Get("title"))
	changes.Author = strings.TrimSpace(r.PostForm.Get("author"))
	changes.Description = strings.TrimSpace(r.PostForm.Get("description"))

	raw := strings.TrimSpace(r.PostForm.Get("rating"))
	if raw == "" {
		return changes, &ValidationError{Fields: map[string]string{"rating": "is required"}}
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return changes, &ValidationError{Fields: map[string]string{"rating": "must be a number"}}
	}
	changes.Rating = rating
	return changes, nil
}

// DecodeReviewForm reads the fields of a review submission form.
func DecodeReviewForm(r *http.Request) (Review, error) {
	var review Review
	if err := r.ParseForm(); err != nil {
		return review, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	review.UserFullName = strings.TrimSpace(r.PostForm.Get("userFullName"))
	review.ReviewText = strings.TrimSpace(r.PostForm.Get("reviewText"))
	return review, nil
}

// SortBooksByRating orders books by rating from the highest to the lowest.
// Equal ratings keep a fixed order: oldest creation first then by id.
func SortBooksByRating(books []Book) {
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].Rating != books[j].Rating {
			return books[i].Rating > books[j].Rating
		}
		if books[i].CreatedAt != books[j].CreatedAt {
			return books[i].CreatedAt < books[j].CreatedAt
		}
		return books[i].ID < books[j].ID
	})
}

// ParseTrustedProxies reads a list of proxy addresses. Each entry is
// either a single IP or a CIDR block.
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipnet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %v", entry, err)
		}
		nets = append(nets, ipnet)
	}
	return nets, nil
}

// GetRequestClientIP returns the peer address of the connection. The forwarded
// headers are only honored when that peer is one of the trusted proxies.
func GetRequestClientIP(r *http.Request, trusted []*net.IPNet) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil {
		return host
	}
	for _, ipnet := range trusted {
		if ipnet.Contains(peer) {
			return GetRequestSourceIP(r)
		}
	}
	return peer.String()
}

// GetRequestSourceIP helps find the source IP of the caller. The forwarded
// headers are set by the client so the result is only fit for logging.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	if net.ParseIP(ip) != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	for _, ip := range strings.Split(r.Header.Get("X-FORWARDED-FOR"), ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
