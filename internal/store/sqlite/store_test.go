package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/syrja/rendezvous/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "syrja.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testLink(id string, ttl time.Duration) domain.ShortLink {
	now := time.Now().UTC()
	return domain.ShortLink{
		ID:             id,
		FullInviteCode: "invite-" + id,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}

func TestInsertAndGetLink(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertLink(ctx, testLink("syrja-calmfox-001", time.Hour)); err != nil {
		t.Fatal(err)
	}
	link, err := store.GetLink(ctx, "syrja-calmfox-001")
	if err != nil {
		t.Fatal(err)
	}
	if link.FullInviteCode != "invite-syrja-calmfox-001" {
		t.Fatalf("unexpected invite code %q", link.FullInviteCode)
	}
	if !link.ExpiresAt.After(time.Now()) {
		t.Fatal("expected future expiry")
	}
}

func TestInsertLinkRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertLink(ctx, testLink("syrja-dup-002", time.Hour)); err != nil {
		t.Fatal(err)
	}
	err := store.InsertLink(ctx, testLink("syrja-dup-002", time.Hour))
	if !errors.Is(err, domain.ErrLinkExists) {
		t.Fatalf("expected ErrLinkExists, got %v", err)
	}
}

func TestLinkExistsIgnoresExpiry(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	// Expired row still present in the store counts as occupying the ID.
	if err := store.InsertLink(ctx, testLink("syrja-old-003", -time.Hour)); err != nil {
		t.Fatal(err)
	}
	ok, err := store.LinkExists(ctx, "syrja-old-003")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected expired-but-present row to exist")
	}
	ok, err = store.LinkExists(ctx, "syrja-none-004")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected absent row to not exist")
	}
}

func TestDeleteLinkIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertLink(ctx, testLink("syrja-del-005", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteLink(ctx, "syrja-del-005"); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteLink(ctx, "syrja-del-005"); err != nil {
		t.Fatalf("expected double delete to be a no-op, got %v", err)
	}
	if _, err := store.GetLink(ctx, "syrja-del-005"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestListLiveSkipsExpired(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertLink(ctx, testLink("syrja-live-006", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertLink(ctx, testLink("syrja-dead-007", -time.Minute)); err != nil {
		t.Fatal(err)
	}

	links, err := store.ListLive(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].ID != "syrja-live-006" {
		t.Fatalf("expected only the live link, got %v", links)
	}
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertLink(ctx, testLink("syrja-keep-008", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertLink(ctx, testLink("syrja-gone-009", -time.Minute)); err != nil {
		t.Fatal(err)
	}

	purged, err := store.PurgeExpired(ctx, time.Now(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged row, got %d", purged)
	}
	if _, err := store.GetLink(ctx, "syrja-keep-008"); err != nil {
		t.Fatalf("expected live link to survive purge, got %v", err)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "path", "syrja.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db file to exist at %s: %v", dbPath, err)
	}
}
