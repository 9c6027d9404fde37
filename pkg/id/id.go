// Package id issues ULIDs for cycles and journal rows.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID stamped with the current time.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID stamped with t. IDs issued within the same
// millisecond still sort in issue order.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// Only possible if the monotonic entropy overflows within one ms.
		panic(err)
	}
	return id.String()
}

// Time extracts the timestamp of an id produced by New or NewAt.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}
