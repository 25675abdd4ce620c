package providers

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Environment selects which Colourlife deployment the provider talks to.
type Environment string

const (
	EnvironmentDev  Environment = "dev"
	EnvironmentProd Environment = "prod"
)

var baseURLs = map[Environment]string{
	EnvironmentDev:  "https://oauth2-czytest.colourlife.com",
	EnvironmentProd: "https://oauth2czy.colourlife.com",
}

// ParseEnvironment validates s against the known environments. The match is
// case-sensitive.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(s)
	if _, ok := baseURLs[env]; !ok {
		return "", fmt.Errorf("%w: the environment must be dev or prod, got %q", ErrInvalidConfiguration, s)
	}
	return env, nil
}

// ProviderConfig holds the OAuth2 configuration for a single provider.
type ProviderConfig struct {
	ClientID         string      // application_id
	ClientSecret     string      // secret sent on the token exchange
	RedirectURL      string      // redirect_uri
	Scopes           []string    // defaults to snsapi_base
	ScopeSeparator   string      // defaults to ","
	Environment      Environment // defaults to prod
	AdditionalParams Params      // appended verbatim to the authorization request
}

// AccessToken is the result of a successful code exchange.
type AccessToken struct {
	Token string         `json:"access_token"`
	Raw   map[string]any `json:"raw"` // the full "content" object returned by the provider
}

// newAccessToken builds a token from the "content" object of the exchange
// response. It fails when access_token is absent or blank: null, false, 0,
// "" and "0" all count as blank. Numeric tokens are kept in decimal form.
func newAccessToken(content map[string]any) (*AccessToken, error) {
	var token string
	switch v := content["access_token"].(type) {
	case string:
		if v != "0" {
			token = v
		}
	case float64:
		if v != 0 {
			token = stringValue(v)
		}
	case bool:
		if v {
			token = "1"
		}
	}
	if token == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrAuthorizationFailed)
	}
	return &AccessToken{Token: token, Raw: content}, nil
}

// OAuth2Token converts the token into its golang.org/x/oauth2 form. The raw
// response fields are reachable through Extra.
func (t *AccessToken) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{AccessToken: t.Token}
	if v, ok := t.Raw["token_type"].(string); ok {
		tok.TokenType = v
	}
	if v, ok := t.Raw["refresh_token"].(string); ok {
		tok.RefreshToken = v
	}
	if v, ok := t.Raw["expires_in"].(float64); ok && v > 0 {
		tok.Expiry = time.Now().Add(time.Duration(v) * time.Second)
	}
	return tok.WithExtra(t.Raw)
}

// User is the normalized user record produced from a raw profile.
type User struct {
	ID         string         `json:"id"`
	Username   string         `json:"username"`
	Nickname   string         `json:"nickname"`
	Name       string         `json:"name"`
	Avatar     string         `json:"avatar"`
	Attributes map[string]any `json:"attributes,omitempty"` // mobile and every unmapped profile key
	Raw        map[string]any `json:"raw,omitempty"`
	Provider   string         `json:"provider"`
	Token      *AccessToken   `json:"-"`
}

// Attribute returns an additional attribute, or nil when absent.
func (u *User) Attribute(key string) any {
	return u.Attributes[key]
}

// Mobile returns the mobile attribute as a string.
func (u *User) Mobile() string {
	s, _ := u.Attributes["mobile"].(string)
	return s
}
