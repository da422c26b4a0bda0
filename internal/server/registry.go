package server

import (
	"strings"
	"sync"
)

// registry maps a normalized identity key to the ID of the session that
// last registered it. A presented key is trusted at face value; the
// identity-to-session binding is advisory, not a security control.
type registry struct {
	mu   sync.RWMutex
	keys map[string]string
}

func newRegistry() *registry {
	return &registry{keys: map[string]string{}}
}

// register upserts the mapping. A later registration for the same key wins;
// the stale session is not evicted, only the index entry is replaced.
func (r *registry) register(key, sessionID string) {
	key = normalizeKey(key)
	r.mu.Lock()
	r.keys[key] = sessionID
	r.mu.Unlock()
}

// resolve returns the session ID currently mapped to key. A returned ID may
// be stale if the session has already disconnected; callers treat a failed
// lookup of the session itself as "not deliverable".
func (r *registry) resolve(key string) (string, bool) {
	key = normalizeKey(key)
	r.mu.RLock()
	id, ok := r.keys[key]
	r.mu.RUnlock()
	return id, ok
}

// unregister removes the mapping, but only if it still points at sessionID.
// Called once per session on disconnect with the key captured at
// registration time; a key re-registered by a newer session is left alone.
func (r *registry) unregister(key, sessionID string) {
	key = normalizeKey(key)
	r.mu.Lock()
	if r.keys[key] == sessionID {
		delete(r.keys, key)
	}
	r.mu.Unlock()
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}
