package bridge

import (
	"sync"
	"time"
)

// handle is the Provider-side binding created the first time a result
// value carries functions — either the value is a function, or it is a
// non-pass-through composite containing at least one.
type handle struct {
	id       string
	kind     HandleKind
	value    any
	lastUsed time.Time
}

// handleTable is the Provider's handle registry: a mutex-protected map
// mutated from the message loop (CALL/RELEASE_HANDLE) and from the TTL
// sweeper's own goroutine.
type handleTable struct {
	mu      sync.Mutex
	entries map[string]*handle
}

func newHandleTable() *handleTable {
	return &handleTable{entries: make(map[string]*handle)}
}

// create registers value under a fresh, never-reused id.
func (t *handleTable) create(kind HandleKind, value any) *handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := &handle{id: genId(), kind: kind, value: value, lastUsed: time.Now()}
	t.entries[h.id] = h
	return h
}

// get returns the handle for id, refreshing lastUsed on every hit.
func (t *handleTable) get(id string) (*handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[id]
	if ok {
		h.lastUsed = time.Now()
	}
	return h, ok
}

// release deletes id unconditionally; releasing an absent id is not an
// error.
func (t *handleTable) release(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// sweep deletes and returns the ids of every handle idle longer than ttl.
func (t *handleTable) sweep(ttl time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	var expired []string
	for id, h := range t.entries {
		if now.Sub(h.lastUsed) > ttl {
			expired = append(expired, id)
			delete(t.entries, id)
		}
	}
	return expired
}

func (t *handleTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
