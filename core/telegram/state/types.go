package state

import (
	"context"
	"time"
)

// DefaultTTL is applied when a backend is constructed with a zero TTL.
const DefaultTTL = 24 * time.Hour

// Store persists one session value per conversation id. Put overwrites.
// Get reports ok=false for missing or expired sessions.
type Store[T any] interface {
	Get(ctx context.Context, id int64) (T, bool, error)
	Put(ctx context.Context, id int64, value T) error
	Clear(ctx context.Context, id int64) error
}

// Clock returns the current time. Backends take it as an option so tests
// can drive expiry.
type Clock func() time.Time
