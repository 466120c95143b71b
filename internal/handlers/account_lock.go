package handlers

import "sync"

// AccountLocks serializes address-book mutations per account. The
// clear-then-set sequence spans the whole embedded array, so two writers
// on the same account must not interleave between the read and the
// write-back.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given account and returns the unlock
// function. Entries live for the process lifetime; the map grows with the
// number of distinct accounts, not with request volume.
func (a *AccountLocks) Lock(key string) func() {
	a.mu.Lock()
	lock, ok := a.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[key] = lock
	}
	a.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
