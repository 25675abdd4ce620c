package providers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// FormatScopes joins scopes with the provider's separator.
func FormatScopes(scopes []string, separator string) string {
	return strings.Join(scopes, separator)
}

// buildURL appends the encoded params to base.
func buildURL(base string, params Params) string {
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

// contextClient returns the HTTP client carried by ctx under the
// oauth2.HTTPClient key, falling back to the provider's own client.
func contextClient(ctx context.Context, fallback HTTPClient) HTTPClient {
	if ctx != nil {
		if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
			return c
		}
	}
	if fallback != nil {
		return fallback
	}
	return http.DefaultClient
}

// defaultGet issues a GET against url and returns the status and raw body.
// Non-2xx statuses are not errors here: the providers report failures in the
// body.
func defaultGet(ctx context.Context, client HTTPClient, url string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading response: %v", ErrProviderRequest, err)
	}
	return resp.StatusCode, body, nil
}

// decodeObject decodes body into a JSON object. Anything else yields nil.
func decodeObject(body []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	return obj
}

// checkState compares the callback state with the stored one in constant
// time. A missing stored state never matches.
func checkState(ctx context.Context, got string, states StateReader) error {
	if states == nil {
		return fmt.Errorf("%w: no session available", ErrStateMismatch)
	}
	want, err := states.StoredState(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}
	if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

// Authenticate runs the callback leg of the flow against p: state check,
// code exchange, profile fetch and mapping. The user is tagged with the
// provider name and carries the access token.
func Authenticate(ctx context.Context, p Provider, r *http.Request, states StateReader) (*User, error) {
	if p.UsesState() {
		if err := checkState(ctx, r.FormValue("state"), states); err != nil {
			return nil, err
		}
	}

	code := r.FormValue("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := p.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	raw, _ := profile.(map[string]any)
	if raw == nil {
		p.Logger().WithField("provider", p.Name()).Debug("No user profile returned by provider")
	}

	user := p.MapUser(raw)
	user.Provider = p.Name()
	user.Token = token
	return user, nil
}
