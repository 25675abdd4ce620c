package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	colourlifeName         = "colourlife"
	colourlifeDefaultScope = "snsapi_base"

	colourlifeAuthPath     = "/oauth2/authorize"
	colourlifeTokenPath    = "/oauth/access_token"
	colourlifeUserInfoPath = "/oauth/user/info"
)

// ColourlifeProvider implements the Provider interface for Colourlife OAuth2.
//
// A provider is configured once and then reused sequentially; the setters
// mutate it and return it so calls can be chained before use.
type ColourlifeProvider struct {
	config     *ProviderConfig
	stateless  bool
	httpClient HTTPClient
	logger     *logrus.Logger
}

// NewColourlifeProvider creates a new instance of ColourlifeProvider. Empty
// fields of config take the provider defaults.
func NewColourlifeProvider(config ProviderConfig) (*ColourlifeProvider, error) {
	if config.Environment == "" {
		config.Environment = EnvironmentProd
	}
	if _, err := ParseEnvironment(string(config.Environment)); err != nil {
		return nil, err
	}
	if len(config.Scopes) == 0 {
		config.Scopes = []string{colourlifeDefaultScope}
	} else {
		config.Scopes = append([]string(nil), config.Scopes...)
	}
	if config.ScopeSeparator == "" {
		config.ScopeSeparator = ","
	}
	config.AdditionalParams = config.AdditionalParams.Clone()

	return &ColourlifeProvider{
		config:     &config,
		httpClient: http.DefaultClient,
		logger:     logrus.StandardLogger(),
	}, nil
}

// Name returns the name of the provider.
func (p *ColourlifeProvider) Name() string {
	return colourlifeName
}

// Config returns the provider configuration.
func (p *ColourlifeProvider) Config() ProviderConfig {
	return *p.config
}

// SetEnvironment selects the deployment the provider talks to. On error the
// provider is left unchanged.
func (p *ColourlifeProvider) SetEnvironment(env string) (*ColourlifeProvider, error) {
	e, err := ParseEnvironment(env)
	if err != nil {
		return p, err
	}
	p.config.Environment = e
	return p, nil
}

// Environment returns the current environment.
func (p *ColourlifeProvider) Environment() Environment {
	return p.config.Environment
}

// BaseURL returns the base URL of the current environment.
func (p *ColourlifeProvider) BaseURL() string {
	return baseURLs[p.config.Environment]
}

func (p *ColourlifeProvider) AuthEndpoint() string {
	return p.BaseURL() + colourlifeAuthPath
}

func (p *ColourlifeProvider) TokenURL() string {
	return p.BaseURL() + colourlifeTokenPath
}

func (p *ColourlifeProvider) UserInfoURL(accessToken string) string {
	return fmt.Sprintf("%s%s?access_token=%s", p.BaseURL(), colourlifeUserInfoPath, url.QueryEscape(accessToken))
}

// Stateless disables the state parameter and its verification.
func (p *ColourlifeProvider) Stateless() *ColourlifeProvider {
	p.stateless = true
	return p
}

// UsesState reports whether the state parameter is in use.
func (p *ColourlifeProvider) UsesState() bool {
	return !p.stateless
}

// SetScopes replaces the requested scopes.
func (p *ColourlifeProvider) SetScopes(scopes ...string) *ColourlifeProvider {
	p.config.Scopes = append([]string(nil), scopes...)
	return p
}

func (p *ColourlifeProvider) SetScopeSeparator(separator string) *ColourlifeProvider {
	p.config.ScopeSeparator = separator
	return p
}

// With adds an extra parameter to the authorization request.
func (p *ColourlifeProvider) With(key, value string) *ColourlifeProvider {
	p.config.AdditionalParams.Set(key, value)
	return p
}

func (p *ColourlifeProvider) SetRedirectURL(redirectURL string) *ColourlifeProvider {
	p.config.RedirectURL = redirectURL
	return p
}

func (p *ColourlifeProvider) RedirectURL() string {
	return p.config.RedirectURL
}

// SetHTTPClient sets the client used for the token and profile requests.
func (p *ColourlifeProvider) SetHTTPClient(client HTTPClient) *ColourlifeProvider {
	p.httpClient = client
	return p
}

func (p *ColourlifeProvider) SetLogger(logger *logrus.Logger) *ColourlifeProvider {
	p.logger = logger
	return p
}

func (p *ColourlifeProvider) Logger() *logrus.Logger {
	return p.logger
}

// OAuth2Config returns the golang.org/x/oauth2 view of the current
// configuration. The token endpoint takes its credentials as parameters.
func (p *ColourlifeProvider) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		RedirectURL:  p.config.RedirectURL,
		Scopes:       append([]string(nil), p.config.Scopes...),
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthEndpoint(),
			TokenURL:  p.TokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// CodeFields returns the authorization request parameters in wire order.
func (p *ColourlifeProvider) CodeFields(state string) Params {
	fields := Params{
		{Key: "application_id", Value: p.config.ClientID},
		{Key: "redirect_uri", Value: p.config.RedirectURL},
		{Key: "scope", Value: FormatScopes(p.config.Scopes, p.config.ScopeSeparator)},
		{Key: "response_type", Value: "code"},
	}
	fields.Merge(p.config.AdditionalParams)

	if p.UsesState() {
		fields.Set("state", state)
	}
	return fields
}

// TokenFields returns the token exchange parameters in wire order.
func (p *ColourlifeProvider) TokenFields(code string) Params {
	return Params{
		{Key: "application_id", Value: p.config.ClientID},
		{Key: "secret", Value: p.config.ClientSecret},
		{Key: "code", Value: code},
		{Key: "grant_type", Value: "authorization_code"},
	}
}

// AuthURL builds the authorization URL. No network call is made.
func (p *ColourlifeProvider) AuthURL(state string) string {
	return buildURL(p.AuthEndpoint(), p.CodeFields(state))
}

// Redirect sends the user agent to the authorization URL.
func (p *ColourlifeProvider) Redirect(w http.ResponseWriter, r *http.Request, state string) {
	http.Redirect(w, r, p.AuthURL(state), http.StatusFound)
}

// ExchangeCode exchanges the authorization code for an access token. Codes
// are single-use on the provider side and the request is never retried.
func (p *ColourlifeProvider) ExchangeCode(ctx context.Context, code string) (*AccessToken, error) {
	status, body, err := defaultGet(ctx, contextClient(ctx, p.httpClient),
		buildURL(p.TokenURL(), p.TokenFields(code)),
		map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"provider": colourlifeName,
		"status":   status,
	}).Debug("Token exchange response received")

	return p.ParseAccessToken(body)
}

// ParseAccessToken extracts the access token from an exchange response body.
func (p *ColourlifeProvider) ParseAccessToken(body []byte) (*AccessToken, error) {
	decoded := decodeObject(body)
	content, _ := decoded["content"].(map[string]any)

	token, err := newAccessToken(content)
	if err != nil {
		return nil, &AuthorizationFailedError{Body: decoded, Raw: body}
	}
	return token, nil
}

// FetchUserInfo retrieves the raw profile from Colourlife using the access
// token. A missing or non-zero "code" in the response yields a nil profile
// and no error.
func (p *ColourlifeProvider) FetchUserInfo(ctx context.Context, token *AccessToken) (any, error) {
	status, body, err := defaultGet(ctx, contextClient(ctx, p.httpClient), p.UserInfoURL(token.Token), nil)
	if err != nil {
		return nil, err
	}

	decoded := decodeObject(body)
	if !isZeroCode(decoded["code"]) {
		p.logger.WithFields(logrus.Fields{
			"provider": colourlifeName,
			"status":   status,
			"code":     decoded["code"],
		}).Warn("User info not available")
		return nil, nil
	}

	return decoded["content"], nil
}

// MapUser maps a Colourlife profile onto the normalized user. Missing keys
// map to empty values; keys not consumed by a field are kept in Attributes.
func (p *ColourlifeProvider) MapUser(profile map[string]any) *User {
	nickname := stringValue(profile["nickname"])

	attributes := make(map[string]any, len(profile))
	for k, v := range profile {
		switch k {
		case "openid", "nickname", "head_img_url":
		default:
			attributes[k] = v
		}
	}

	return &User{
		ID:         stringValue(profile["openid"]),
		Username:   nickname,
		Nickname:   nickname,
		Name:       nickname,
		Avatar:     stringValue(profile["head_img_url"]),
		Attributes: attributes,
		Raw:        profile,
		Provider:   colourlifeName,
	}
}

// Authenticate handles the provider callback request and returns the
// authenticated user.
func (p *ColourlifeProvider) Authenticate(ctx context.Context, r *http.Request, states StateReader) (*User, error) {
	return Authenticate(ctx, p, r, states)
}

// isZeroCode reports whether a response "code" means success. Numeric strings
// such as "0" count as their number.
func isZeroCode(v any) bool {
	switch c := v.(type) {
	case float64:
		return c == 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		return err == nil && f == 0
	case bool:
		return !c
	default:
		return false
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
