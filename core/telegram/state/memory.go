package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/carhub/core/logger"
)

type memoryEntry[T any] struct {
	value   T
	touched time.Time
}

// Memory is an in-process Store with idle expiry.
type Memory[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]memoryEntry[T]
	ttl      time.Duration
	now      Clock

	// OnSweep, when set, receives the number of sessions removed by each sweep.
	OnSweep func(removed int)
}

// MemoryOption customises a Memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	ttl time.Duration
	now Clock
}

// WithTTL sets how long an untouched session stays visible.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now Clock) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// NewMemory constructs an in-memory store.
func NewMemory[T any](opts ...MemoryOption) *Memory[T] {
	o := memoryOptions{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	if o.now == nil {
		o.now = time.Now
	}
	return &Memory[T]{
		sessions: make(map[int64]memoryEntry[T]),
		ttl:      o.ttl,
		now:      o.now,
	}
}

// Get returns the session for id if present and not expired.
func (m *Memory[T]) Get(_ context.Context, id int64) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	entry, ok := m.sessions[id]
	if !ok || m.expired(entry) {
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Put stores value for id and refreshes its expiry.
func (m *Memory[T]) Put(_ context.Context, id int64, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = memoryEntry[T]{value: value, touched: m.now()}
	return nil
}

// Clear removes the session for id.
func (m *Memory[T]) Clear(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Memory[T]) Sweep() int {
	m.mu.Lock()
	removed := 0
	for id, entry := range m.sessions {
		if m.expired(entry) {
			delete(m.sessions, id)
			removed++
		}
	}
	m.mu.Unlock()

	if m.OnSweep != nil {
		m.OnSweep(removed)
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (m *Memory[T]) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = m.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info(ctx, "state", "janitor.start",
		slog.Duration("ttl", m.ttl),
		slog.Duration("interval", interval),
	)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "state", "janitor.stop", slog.String("status", "ok"))
			return nil
		case <-ticker.C:
			if removed := m.Sweep(); removed > 0 {
				logger.Debug(ctx, "state", "janitor.sweep",
					slog.Int("count", removed),
					slog.Int("pending_count", m.Len()),
				)
			}
		}
	}
}

func (m *Memory[T]) expired(entry memoryEntry[T]) bool {
	return m.now().Sub(entry.touched) >= m.ttl
}
