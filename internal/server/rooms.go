package server

import "sync"

// rooms tracks ad hoc broadcast groups. A room is nothing but the set of
// sessions that joined its name; it disappears when the last member leaves.
// Any session may join any name, membership is unbounded per session.
type rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]*session
}

func newRooms() *rooms {
	return &rooms{members: map[string]map[string]*session{}}
}

// join adds the session to the named room. Idempotent.
func (r *rooms) join(sess *session, room string) {
	r.mu.Lock()
	group, ok := r.members[room]
	if !ok {
		group = map[string]*session{}
		r.members[room] = group
	}
	group[sess.id] = sess
	r.mu.Unlock()
	sess.joined[room] = struct{}{}
}

// leaveAll removes the session from every room it joined, dropping rooms
// that become empty.
func (r *rooms) leaveAll(sess *session) {
	r.mu.Lock()
	for room := range sess.joined {
		group, ok := r.members[room]
		if !ok {
			continue
		}
		delete(group, sess.id)
		if len(group) == 0 {
			delete(r.members, room)
		}
	}
	r.mu.Unlock()
}

// othersIn snapshots the members of room excluding the sender. Snapshotting
// under the read lock keeps broadcast writes out of the critical section.
func (r *rooms) othersIn(room, exceptID string) []*session {
	r.mu.RLock()
	group := r.members[room]
	out := make([]*session, 0, len(group))
	for id, sess := range group {
		if id == exceptID {
			continue
		}
		out = append(out, sess)
	}
	r.mu.RUnlock()
	return out
}
