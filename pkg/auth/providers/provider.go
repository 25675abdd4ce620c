package providers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Provider defines the pieces of the three-legged OAuth2 flow that each
// identity provider must supply.
type Provider interface {
	// Name returns the name of the provider (e.g., colourlife).
	Name() string

	// UsesState reports whether the CSRF state parameter is sent and checked.
	UsesState() bool

	// AuthURL builds the authorization URL the user is redirected to.
	AuthURL(state string) string

	// ExchangeCode exchanges the authorization code for an access token.
	ExchangeCode(ctx context.Context, code string) (*AccessToken, error)

	// FetchUserInfo retrieves the raw profile using the access token. A nil
	// profile with a nil error means the provider had no profile to give.
	FetchUserInfo(ctx context.Context, token *AccessToken) (any, error)

	// MapUser maps a raw profile onto the normalized user record.
	MapUser(profile map[string]any) *User

	// Logger returns the logger the provider reports through.
	Logger() *logrus.Logger
}

// HTTPClient issues the provider requests. *http.Client satisfies it; the
// client owns timeouts, TLS and connection pooling.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StateReader is the read side of the session holding the CSRF state issued
// with the authorization URL. An empty string means no state is stored.
type StateReader interface {
	StoredState(ctx context.Context) (string, error)
}

// StaticState is a StateReader over a fixed value.
type StaticState string

func (s StaticState) StoredState(context.Context) (string, error) {
	return string(s), nil
}
