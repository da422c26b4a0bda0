package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/syrja/rendezvous/internal/domain"
)

// InsertLink stores a new short link. Returns [domain.ErrLinkExists] when the
// ID is already present, live or not.
func (s *Store) InsertLink(ctx context.Context, link domain.ShortLink) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO short_links(id, full_invite_code, created_at, expires_at)
VALUES(?, ?, ?, ?)`,
		link.ID, link.FullInviteCode, link.CreatedAt.UTC(), link.ExpiresAt.UTC())
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return domain.ErrLinkExists
	}
	return err
}

// GetLink fetches a short link by ID without any expiry interpretation.
// Returns [domain.ErrLinkNotFound] when the row is absent.
func (s *Store) GetLink(ctx context.Context, id string) (domain.ShortLink, error) {
	var link domain.ShortLink
	err := s.getLinkStmt.QueryRowContext(ctx, id).
		Scan(&link.ID, &link.FullInviteCode, &link.CreatedAt, &link.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShortLink{}, domain.ErrLinkNotFound
	}
	if err != nil {
		return domain.ShortLink{}, err
	}
	return link, nil
}

// LinkExists reports whether any row with this ID is present. Liveness is
// presence in the store; expiry is not re-checked here.
func (s *Store) LinkExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.linkExistsStmt.QueryRowContext(ctx, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteLink removes a short link. Deleting an absent row is not an error so
// the expiry timer and the lazy read-path check can race safely.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM short_links WHERE id = ?`, id)
	return err
}

// ListLive returns all links that have not yet expired as of now. Used at
// startup to re-arm expiry timers lost with the previous process.
func (s *Store) ListLive(ctx context.Context, now time.Time) ([]domain.ShortLink, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, full_invite_code, created_at, expires_at
FROM short_links
WHERE expires_at > ?
ORDER BY expires_at ASC`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var links []domain.ShortLink
	for rows.Next() {
		var link domain.ShortLink
		if err := rows.Scan(&link.ID, &link.FullInviteCode, &link.CreatedAt, &link.ExpiresAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// PurgeExpired removes links whose expiry is in the past. It limits each run
// to avoid long write transactions.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = defaultPurgeLimit
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM short_links
WHERE id IN (
	SELECT id
	FROM short_links
	WHERE expires_at <= ?
	ORDER BY expires_at ASC
	LIMIT ?
)`, now.UTC(), limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
