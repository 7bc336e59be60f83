package session

import (
	"sync"
	"time"
)

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store manages sessions isolated by user key. Sessions materialize
// lazily on first access and never mix state across keys.
//
// Acquire serializes work per key: a second message from the same user
// blocks until the first turn's lock is released, while different keys
// proceed concurrently.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

func (st *Store) entryFor(userID string) *entry {
	st.mu.RLock()
	e, ok := st.entries[userID]
	st.mu.RUnlock()

	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	// Double check under lock
	if e, ok = st.entries[userID]; ok {
		return e
	}

	e = &entry{session: NewSession(userID)}
	st.entries[userID] = e
	return e
}

// Acquire locks the user's session for exclusive use across a whole
// turn, creating it if absent. The returned release function must be
// called when the turn is finished.
//
// A locked entry is guaranteed to still be in the store: if the reaper
// evicted it between lookup and lock, the lock is retried on a fresh
// entry instead of an orphan.
func (st *Store) Acquire(userID string) (release func()) {
	for {
		e := st.entryFor(userID)
		e.mu.Lock()

		st.mu.RLock()
		current := st.entries[userID] == e
		st.mu.RUnlock()

		if current {
			return e.mu.Unlock
		}
		e.mu.Unlock()
	}
}

// Get returns the session for the key without creating one.
func (st *Store) Get(userID string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	e, ok := st.entries[userID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// GetOrCreate returns the session for the key, creating an empty one on
// first access. Callers mutating the session must hold its Acquire lock.
func (st *Store) GetOrCreate(userID string) *Session {
	return st.entryFor(userID).session
}

// Replace swaps the stored session for the key with the given one.
func (st *Store) Replace(userID string, s *Session) {
	e := st.entryFor(userID)
	e.session = s
}

// Size reports how many sessions currently exist.
func (st *Store) Size() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// EvictIdleOlderThan removes sessions whose last activity predates the
// cutoff and returns how many were dropped. Sessions mid-turn hold
// their entry lock and are skipped.
func (st *Store) EvictIdleOlderThan(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, e := range st.entries {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.session.LastActive.Before(cutoff)
		e.mu.Unlock()

		if idle {
			delete(st.entries, id)
			evicted++
		}
	}
	return evicted
}
