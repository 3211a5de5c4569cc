package id

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID. IDs minted within the same millisecond still sort in
// the order they were created.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Prefixed returns a ULID with a readable kind prefix, e.g. "payload_01H...".
func Prefixed(kind string) string {
	return kind + "_" + New()
}
