package report

import "sync"

// keyedLocks hands out one mutex per report_id so rebuilds of the same
// index serialize while unrelated reports build in parallel. Locks are
// never evicted; the universe of report ids a process touches is small.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the lock for key, already locked. Caller unlocks.
func (k *keyedLocks) acquire(key string) *sync.Mutex {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l
}
