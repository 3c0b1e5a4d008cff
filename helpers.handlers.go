package main

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

var (
	_ Clocker    = (*Clock)(nil)      // ensure Clock implements Clocker.
	_ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.
)

// TimestampLayout keeps a fixed width so stored timestamps sort as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// UIDHandler is an interface for getting and checking uids.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// Clock implements the Clocker interface.
type Clock struct{}

// NewClock returns a ready to use Clock.
func NewClock() *Clock {
	return &Clock{}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now()
}

// Timestamp formats t in UTC with the storage layout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid checks if a given string is a valid uuid after removal of custom prefix.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	if !strings.HasPrefix(id, prefix+":") {
		return false
	}
	return uuid.FromStringOrNil(strings.TrimPrefix(id, prefix+":")) != uuid.Nil
}
