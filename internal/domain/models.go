// Package domain defines the core data types shared across the rendezvous
// server, directory, and store layers.
package domain

import "time"

// ShortLink maps a human-shareable short ID to a full invite code for a
// bounded lifetime. Once ExpiresAt has passed the link is dead; the ID may
// later be reused by an unrelated entry.
type ShortLink struct {
	ID             string
	FullInviteCode string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// CreateInviteRequest is the JSON body sent to shorten an invite code.
type CreateInviteRequest struct {
	FullInviteCode string `json:"fullInviteCode"`
}

// CreateInviteResponse is the JSON body returned on successful shortening.
type CreateInviteResponse struct {
	ShortID string `json:"shortId"`
}

// ResolveInviteResponse is the JSON body returned when a short ID resolves.
type ResolveInviteResponse struct {
	FullInviteCode string `json:"fullInviteCode"`
}

// ErrorResponse is the JSON body returned by the server for structured errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
