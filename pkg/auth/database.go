// auth/database.go
package auth

import (
	"context"
	"time"
)

// StateStore defines the session storage needed by the auth package: the
// CSRF state issued at login, keyed by session id.
type StateStore interface {
	SaveState(ctx context.Context, sessionID, state string, expiresAt time.Time) error
	GetState(ctx context.Context, sessionID string) (string, error)
	DeleteState(ctx context.Context, sessionID string) error

	// TakeState returns the live state and removes it in one step, so a
	// state can be taken at most once.
	TakeState(ctx context.Context, sessionID string) (string, error)
}
