package server

import "testing"

func TestRegistryRegisterAndResolve(t *testing.T) {
	t.Parallel()

	reg := newRegistry()
	reg.register("pubkey-a", "sess-1")

	id, ok := reg.resolve("pubkey-a")
	if !ok || id != "sess-1" {
		t.Fatalf("expected sess-1, got %q (ok=%v)", id, ok)
	}
}

func TestRegistryNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	reg := newRegistry()
	reg.register("  pubkey-b\n", "sess-2")

	id, ok := reg.resolve("pubkey-b")
	if !ok || id != "sess-2" {
		t.Fatalf("expected normalized key to resolve, got %q (ok=%v)", id, ok)
	}
	if id, ok := reg.resolve(" pubkey-b "); !ok || id != "sess-2" {
		t.Fatalf("expected padded lookup to resolve, got %q (ok=%v)", id, ok)
	}
}

func TestRegistrySecondRegistrationWins(t *testing.T) {
	t.Parallel()

	reg := newRegistry()
	reg.register("pubkey-c", "sess-old")
	reg.register("pubkey-c", "sess-new")

	id, ok := reg.resolve("pubkey-c")
	if !ok || id != "sess-new" {
		t.Fatalf("expected most recent session, got %q (ok=%v)", id, ok)
	}
}

func TestRegistryUnregister(t *testing.T) {
	t.Parallel()

	reg := newRegistry()
	reg.register("pubkey-d", "sess-3")
	reg.unregister("pubkey-d", "sess-3")

	if _, ok := reg.resolve("pubkey-d"); ok {
		t.Fatal("expected key to be absent after unregister")
	}
	// Unregistering an absent key is a no-op.
	reg.unregister("pubkey-d", "sess-3")
}

func TestRegistryUnregisterKeepsNewerBinding(t *testing.T) {
	t.Parallel()

	reg := newRegistry()
	reg.register("pubkey-e", "sess-old")
	reg.register("pubkey-e", "sess-new")

	// The old session's disconnect must not evict the newer registration.
	reg.unregister("pubkey-e", "sess-old")

	id, ok := reg.resolve("pubkey-e")
	if !ok || id != "sess-new" {
		t.Fatalf("expected sess-new to survive, got %q (ok=%v)", id, ok)
	}
}
