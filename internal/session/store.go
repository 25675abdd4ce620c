package session

import (
	"context"

	"github.com/y0ug/colourlife/pkg/auth"
)

// Store keeps the CSRF state issued with an authorization URL until the
// provider redirects back. Implementations satisfy auth.StateStore.
type Store interface {
	auth.StateStore

	Close(ctx context.Context) error
}

// ErrStateNotFound is returned by GetState when no live state is stored.
var ErrStateNotFound = auth.ErrStateNotFound

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BoltStore)(nil)
	_ Store = (*RedisStore)(nil)
)
