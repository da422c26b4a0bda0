// Package directory implements the TTL-bounded invite directory: it maps
// generated short IDs to full invite codes for a fixed lifetime.
//
// Expiry is enforced twice on purpose: a one-shot timer armed at creation
// time, and a lazy check on every resolve that guards against a missed
// timer. The two paths race safely because deleting an absent row is a
// no-op; either may fire first.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/syrja/rendezvous/internal/domain"
	"github.com/syrja/rendezvous/internal/shortid"
	"github.com/syrja/rendezvous/internal/store/sqlite"
)

// maxGenerateAttempts bounds ID regeneration on collision. The ID space is
// six orders of magnitude larger than any realistic live set, so hitting
// this bound means something is wrong with the store, not bad luck.
const maxGenerateAttempts = 100

const expireWriteTimeout = 10 * time.Second

// ErrAllocExhausted is returned when no free short ID could be generated.
var ErrAllocExhausted = errors.New("could not allocate a free short id")

// Directory owns short-link lifecycle on top of the SQLite store.
type Directory struct {
	store *sqlite.Store
	log   *slog.Logger
	ttl   time.Duration

	// newShortID and now are swapped out in tests.
	newShortID func() (string, error)
	now        func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New creates a directory issuing links that live for ttl.
func New(store *sqlite.Store, logger *slog.Logger, ttl time.Duration) *Directory {
	return &Directory{
		store:      store,
		log:        logger,
		ttl:        ttl,
		newShortID: shortid.New,
		now:        time.Now,
		timers:     make(map[string]*time.Timer),
	}
}

// RearmExpiry schedules removal timers for every link still live in the
// store. Timers do not survive a restart; rows do.
func (d *Directory) RearmExpiry(ctx context.Context) error {
	links, err := d.store.ListLive(ctx, d.now())
	if err != nil {
		return err
	}
	for _, link := range links {
		d.schedule(link.ID, link.ExpiresAt)
	}
	if len(links) > 0 {
		d.log.Info("re-armed invite expiry timers", "count", len(links))
	}
	return nil
}

// Create stores fullInviteCode under a freshly generated short ID and
// returns the ID. IDs colliding with any entry currently present in the
// store are regenerated; expiry of the colliding entry is not re-checked.
func (d *Directory) Create(ctx context.Context, fullInviteCode string) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		id, err := d.newShortID()
		if err != nil {
			return "", err
		}
		exists, err := d.store.LinkExists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}

		now := d.now()
		link := domain.ShortLink{
			ID:             id,
			FullInviteCode: fullInviteCode,
			CreatedAt:      now,
			ExpiresAt:      now.Add(d.ttl),
		}
		err = d.store.InsertLink(ctx, link)
		if errors.Is(err, domain.ErrLinkExists) {
			// Lost a race with a concurrent Create on the same ID.
			continue
		}
		if err != nil {
			return "", err
		}
		d.schedule(link.ID, link.ExpiresAt)
		return id, nil
	}
	return "", ErrAllocExhausted
}

// Resolve returns the full invite code for id, or [domain.ErrLinkNotFound]
// when the entry is absent or already past its expiry. Expired entries found
// by the lazy check are deleted on the spot. The TTL is never refreshed on
// access.
func (d *Directory) Resolve(ctx context.Context, id string) (string, error) {
	link, err := d.store.GetLink(ctx, id)
	if err != nil {
		return "", err
	}
	if d.now().After(link.ExpiresAt) {
		// The scheduled removal was missed or has not fired yet.
		if err := d.store.DeleteLink(ctx, id); err != nil {
			d.log.Warn("failed to delete expired invite link", "short_id", id, "err", err)
		}
		d.cancel(id)
		return "", domain.ErrLinkNotFound
	}
	return link.FullInviteCode, nil
}

// Purge removes expired rows in bulk, a backstop for timers that never fire
// (for example links that expired while the process was down).
func (d *Directory) Purge(ctx context.Context) (int64, error) {
	return d.store.PurgeExpired(ctx, d.now(), 0)
}

// Close stops all pending expiry timers. The store itself is closed by the
// caller.
func (d *Directory) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}

func (d *Directory) schedule(id string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.timers[id]; ok {
		t.Stop()
	}
	d.timers[id] = time.AfterFunc(time.Until(at), func() { d.expire(id) })
}

func (d *Directory) cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[id]; ok {
		t.Stop()
		delete(d.timers, id)
	}
}

// expire is the timer callback. It may race with the lazy check in Resolve;
// both deletion paths are idempotent.
func (d *Directory) expire(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireWriteTimeout)
	defer cancel()
	if err := d.store.DeleteLink(ctx, id); err != nil {
		d.log.Warn("failed to remove expired invite link", "short_id", id, "err", err)
	} else {
		d.log.Debug("invite link expired", "short_id", id)
	}

	d.mu.Lock()
	delete(d.timers, id)
	d.mu.Unlock()
}
