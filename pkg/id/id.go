package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID for the current time. IDs from one process sort in
// creation order, so status history can be ordered by id alone.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. t must not be before the Unix epoch;
// ulid cannot encode it.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}

// Time extracts the millisecond timestamp encoded in a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
