package intake

import "sync"

const lockStripes = 64

// stripedLocks serialises work per session id without keeping one mutex
// per user. Unrelated sessions may share a stripe.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) lock(id int64) func() {
	idx := id % lockStripes
	if idx < 0 {
		idx = -idx
	}
	mu := &l.stripes[idx]
	mu.Lock()
	return mu.Unlock
}
