package utils

import (
	"errors"
	"sync"
)

var ErrTooManyKeys = errors.New("too many keys locked")

type keyedEntry struct {
	sync.Mutex
	refs int
}

// KeyedLock serializes callers that share a key. An entry only lives while a
// caller holds or waits on it, and at most limit keys may be live at once.
type KeyedLock[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*keyedEntry
	limit   int
}

func NewKeyedLock[K comparable](limit int) *KeyedLock[K] {
	return &KeyedLock[K]{entries: make(map[K]*keyedEntry), limit: max(limit, 1)}
}

// Acquire blocks until key is free. The returned release func may be called
// more than once; only the first call has an effect.
func (l *KeyedLock[K]) Acquire(key K) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= l.limit {
			l.mu.Unlock()
			return nil, ErrTooManyKeys
		}
		entry = &keyedEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()

	return sync.OnceFunc(func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		entry.Unlock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
	}), nil
}

// Live reports how many keys are currently held or waited on.
func (l *KeyedLock[K]) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
