// Package keylock provides a mutex set keyed by string, used to
// serialize operations that race on the same invariant (one
// department's manager link, one employee-benefit pair) while letting
// operations on disjoint keys proceed in parallel.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex hands out one mutex per key. Entries are reference
// counted and dropped on last unlock, so the set stays bounded by the
// number of keys currently held.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New constructs an empty KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is free.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	en, ok := k.entries[key]
	if !ok {
		en = &entry{}
		k.entries[key] = en
	}
	en.refs++
	k.mu.Unlock()

	en.mu.Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	en, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	en.refs--
	if en.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	en.mu.Unlock()
}
