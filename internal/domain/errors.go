package domain

import "errors"

// Sentinel errors for well-known failure conditions that cross package
// boundaries. Callers should use [errors.Is] to match these.
var (
	// ErrLinkNotFound means the requested short ID does not exist or has
	// already expired.
	ErrLinkNotFound = errors.New("short link not found")

	// ErrLinkExists indicates a short ID collision with a live entry.
	ErrLinkExists = errors.New("short link already exists")
)
