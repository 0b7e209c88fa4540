package service

import "sync"

// keyLock serializes work per key. Every read-recompute-write over one
// student's transaction set must run inside Lock/Unlock for that student id,
// otherwise two concurrent mutations could interleave and break the totals
// invariant.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *keyLock) Lock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for key and drops it once nobody waits on it.
func (k *keyLock) Unlock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
