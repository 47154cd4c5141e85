package redis

import (
	"errors"
	"time"

	"github.com/mintybay/goapi/base/ctx"
)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = errors.New("key not found")

	// ErrGapTime is returned when no pool is available to serve the command
	ErrGapTime = errors.New("no available pool")
)

// Service abstracts the redis layer
type Service interface {
	// Get returns the value of the key, or ErrNotFound
	Get(context ctx.Ctx, key string) ([]byte, error)

	// Set stores the value under the key. A positive expire attaches a ttl.
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error

	// Del removes the keys and returns the number of keys removed
	Del(context ctx.Ctx, ks ...string) (int, error)

	// Exists reports whether the key exists
	Exists(context ctx.Ctx, key string) (bool, error)

	// TTL returns the remaining ttl of the key in seconds. -1 means the key
	// has no expire, -2 means the key does not exist.
	TTL(context ctx.Ctx, key string) (int, error)

	// Incrby increases the number stored at the key and returns the result
	Incrby(context ctx.Ctx, key string, val int) (int64, error)
}
