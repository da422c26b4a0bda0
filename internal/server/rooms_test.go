package server

import "testing"

func testSession(id string) *session {
	return &session{id: id, joined: map[string]struct{}{}}
}

func TestRoomsJoinIsIdempotent(t *testing.T) {
	t.Parallel()

	r := newRooms()
	a := testSession("a")
	r.join(a, "lobby")
	r.join(a, "lobby")

	if got := len(r.othersIn("lobby", "nobody")); got != 1 {
		t.Fatalf("expected 1 member after double join, got %d", got)
	}
}

func TestRoomsBroadcastExcludesSender(t *testing.T) {
	t.Parallel()

	r := newRooms()
	a, b, c := testSession("a"), testSession("b"), testSession("c")
	r.join(a, "lobby")
	r.join(b, "lobby")
	r.join(c, "lobby")

	others := r.othersIn("lobby", a.id)
	if len(others) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(others))
	}
	for _, sess := range others {
		if sess.id == a.id {
			t.Fatal("sender must not receive its own broadcast")
		}
	}
}

func TestRoomsMembershipIsPerRoom(t *testing.T) {
	t.Parallel()

	r := newRooms()
	a, b := testSession("a"), testSession("b")
	r.join(a, "room-1")
	r.join(b, "room-2")

	if got := len(r.othersIn("room-1", b.id)); got != 1 {
		t.Fatalf("expected room-1 to hold only its member, got %d", got)
	}
	if got := len(r.othersIn("room-2", a.id)); got != 1 {
		t.Fatalf("expected room-2 to hold only its member, got %d", got)
	}
}

func TestRoomsLeaveAllDropsEmptyRooms(t *testing.T) {
	t.Parallel()

	r := newRooms()
	a, b := testSession("a"), testSession("b")
	r.join(a, "lobby")
	r.join(a, "side")
	r.join(b, "lobby")

	r.leaveAll(a)

	if got := len(r.othersIn("lobby", "nobody")); got != 1 {
		t.Fatalf("expected lobby to keep remaining member, got %d", got)
	}
	r.mu.RLock()
	_, sideExists := r.members["side"]
	r.mu.RUnlock()
	if sideExists {
		t.Fatal("expected emptied room to disappear")
	}
}
