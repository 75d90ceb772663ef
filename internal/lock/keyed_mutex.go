// Package lock provides mutual exclusion scoped to a single user key, so
// that concurrent mutations for the same user are serialized while
// unrelated users never contend. A process-wide lock would serialize every
// user behind every other; the lock here is per key.
package lock

import (
	"sync"
)

type keyLock struct {
	mu sync.Mutex
	// refs counts holders plus waiters; the entry is removed from the map
	// when it drops to zero so idle keys hold no memory.
	refs int
}

// KeyedMutex grants one active critical section per key at a time.
// The zero value is not usable; call NewKeyedMutex.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[int64]*keyLock
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[int64]*keyLock)}
}

// Lock blocks until the calling goroutine holds exclusive access for key.
func (k *KeyedMutex) Lock(key int64) {
	k.mu.Lock()
	entry, ok := k.keys[key]
	if !ok {
		entry = &keyLock{}
		k.keys[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases exclusive access for key. It must only be called by a
// goroutine that holds the key.
func (k *KeyedMutex) Unlock(key int64) {
	k.mu.Lock()
	entry, ok := k.keys[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(k.keys, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}

// Do runs fn while holding exclusive access for key.
func (k *KeyedMutex) Do(key int64, fn func()) {
	k.Lock(key)
	defer k.Unlock(key)
	fn()
}
