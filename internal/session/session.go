// Package session tracks issued auth tokens so they can be revoked before
// they expire. The JWT carries identity; the session record makes logout
// effective.
package session

import (
	"context"
	"time"
)

// Store holds one record per live token, keyed by the token's unique id.
type Store interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	// Get returns the user id for a live token, or ok=false for unknown or
	// revoked tokens.
	Get(ctx context.Context, tokenID string) (userID string, ok bool, err error)
	Delete(ctx context.Context, tokenID string) error
}
