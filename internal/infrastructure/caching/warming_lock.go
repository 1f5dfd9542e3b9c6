// Package caching provides catalog snapshot persistence and warming
// coordination shared by the per-tenant cache stores.
package caching

import "sync"

// WarmingLock serializes cache warming per tenant: a second warm request
// for the same tenant while one is running is rejected instead of queued.
type WarmingLock struct {
	mu    sync.Mutex
	inUse map[string]struct{}
}

func NewWarmingLock() *WarmingLock {
	return &WarmingLock{inUse: make(map[string]struct{})}
}

// TryLock acquires the warming slot for key without blocking. Returns
// false when a warm for the same key is already in flight.
func (l *WarmingLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.inUse[key]; held {
		return false
	}
	l.inUse[key] = struct{}{}
	return true
}

// Unlock releases the slot. Callers defer this right after a successful
// TryLock.
func (l *WarmingLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inUse, key)
}
