package core

// session_store.go keeps sessions in memory.
//
// Sessions expire after ttl without access. When the store is full the least
// recently used session is evicted to make room. A background sweeper purges
// expired sessions periodically; expired sessions are also treated as absent
// on lookup, so the sweeper only reclaims memory.

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore is an in-memory session map with idle expiry and LRU eviction.
type SessionStore struct {
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	onEvict     func(id string, reason string)

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List // front = most recently used
}

type storeEntry struct {
	session  *Session
	lastSeen time.Time
}

// NewSessionStore creates a store. A non-positive maxSessions means unbounded.
func NewSessionStore(ttl time.Duration, maxSessions int) *SessionStore {
	return &SessionStore{
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		items:       make(map[string]*list.Element),
		lru:         list.New(),
	}
}

// Create stores a new session holding files and returns it.
func (st *SessionStore) Create(files []SessionFile) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	sess := newSession(uuid.NewString(), files, now)
	st.items[sess.ID] = st.lru.PushFront(&storeEntry{session: sess, lastSeen: now})

	for st.maxSessions > 0 && st.lru.Len() > st.maxSessions {
		st.removeLocked(st.lru.Back(), "evicted")
	}
	return sess
}

// Get returns the session and marks it as used.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	el, ok := st.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry := el.Value.(*storeEntry)
	now := st.now()
	if st.expired(entry, now) {
		st.removeLocked(el, "expired")
		return nil, ErrSessionNotFound
	}

	entry.lastSeen = now
	st.lru.MoveToFront(el)
	return entry.session, nil
}

// Delete removes a session. It reports whether the session existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	el, ok := st.items[id]
	if !ok {
		return false
	}
	st.removeLocked(el, "discarded")
	return true
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lru.Len()
}

// Sweep removes every expired session and returns how many were removed.
func (st *SessionStore) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	removed := 0
	// Oldest entries sit at the back; stop at the first live one.
	for el := st.lru.Back(); el != nil; {
		if !st.expired(el.Value.(*storeEntry), now) {
			break
		}
		prev := el.Prev()
		st.removeLocked(el, "expired")
		removed++
		el = prev
	}
	return removed
}

// StartSweeper purges expired sessions every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (st *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started", "interval", interval, "ttl", st.ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Info("expired sessions purged", "count", n, "remaining", st.Len())
			}
		}
	}
}

func (st *SessionStore) expired(e *storeEntry, now time.Time) bool {
	return st.ttl > 0 && now.Sub(e.lastSeen) > st.ttl
}

func (st *SessionStore) removeLocked(el *list.Element, reason string) {
	entry := st.lru.Remove(el).(*storeEntry)
	delete(st.items, entry.session.ID)
	if st.onEvict != nil {
		st.onEvict(entry.session.ID, reason)
	}
}
