package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/y0ug/colourlife/pkg/auth/providers"
)

// MockStateStore is an in-memory StateStore for testing.
type MockStateStore struct {
	mu     sync.Mutex
	States map[string]string
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{States: make(map[string]string)}
}

func (s *MockStateStore) SaveState(ctx context.Context, sessionID, state string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.States[sessionID] = state
	return nil
}

func (s *MockStateStore) GetState(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.States[sessionID]
	if !ok {
		return "", ErrStateNotFound
	}
	return state, nil
}

func (s *MockStateStore) TakeState(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.States[sessionID]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.States, sessionID)
	return state, nil
}

func (s *MockStateStore) DeleteState(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.States, sessionID)
	return nil
}

// roundTripFunc answers provider requests without leaving the process.
type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// colourlifeStub serves the token and user info endpoints.
func colourlifeStub(tokenBody, userBody string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		switch req.URL.Path {
		case "/oauth/access_token":
			return jsonResponse(tokenBody)
		case "/oauth/user/info":
			return jsonResponse(userBody)
		default:
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}
		}
	})}
}

const (
	okTokenBody = `{"code":0,"content":{"access_token":"provider-token"}}`
	okUserBody  = `{"code":0,"content":{"openid":"u1","nickname":"Ann","head_img_url":"http://x/a.png","mobile":"138"}}`
)

// Helper function to create a new Handler with a mock state store
func newTestHandler(t *testing.T, client *http.Client) *Handler {
	t.Helper()

	provider, err := providers.NewColourlifeProvider(providers.ProviderConfig{
		ClientID:     "testclientid",
		ClientSecret: "testclientsecret",
		RedirectURL:  "http://localhost/auth/callback",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	testLogger := logrus.New()
	testLogger.SetOutput(&bytes.Buffer{}) // Discard output during tests
	testLogger.SetLevel(logrus.DebugLevel)

	provider.SetHTTPClient(client).SetLogger(testLogger)

	config := &Config{
		Provider:        provider,
		SessionSecret:   []byte("testsecret"),
		StateExpiration: 10 * time.Minute,
		CookieSameSite:  http.SameSiteLaxMode,
	}

	return NewHandler(config, NewMockStateStore(), testLogger)
}

func decodeResponse(t *testing.T, resp *http.Response) HttpResp {
	t.Helper()
	var out HttpResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

// login runs HandleLogin and returns the session cookie and the state sent
// to the provider.
func login(t *testing.T, handler *Handler) (*http.Cookie, string) {
	t.Helper()

	req := httptest.NewRequest("GET", "/auth/login", nil)
	w := httptest.NewRecorder()
	handler.HandleLogin(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected status 302, got %d", resp.StatusCode)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location header: %v", err)
	}

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatalf("session cookie not set")
	}
	return session, location.Query().Get("state")
}

func TestHandleProviders(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))

	req := httptest.NewRequest("GET", "/auth/providers", nil)
	w := httptest.NewRecorder()
	handler.HandleProviders(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body := decodeResponse(t, resp)
	list, ok := body.Data.([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("expected one provider, got %v", body.Data)
	}
	entry := list[0].(map[string]interface{})
	if entry["name"] != "colourlife" {
		t.Errorf("expected name colourlife, got %v", entry["name"])
	}
	if entry["base_url"] != "https://oauth2czy.colourlife.com" {
		t.Errorf("unexpected base_url %v", entry["base_url"])
	}
}

func TestHandleLogin(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))

	session, state := login(t, handler)
	if state == "" {
		t.Fatalf("state missing from authorization URL")
	}
	if !session.HttpOnly || session.Path != "/auth" {
		t.Errorf("unexpected session cookie attributes: %+v", session)
	}

	sessionID, err := parseSessionID(session.Value, handler.Config.SessionSecret)
	if err != nil {
		t.Fatalf("failed to parse session cookie: %v", err)
	}
	stored, err := handler.Store.GetState(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("state not stored: %v", err)
	}
	if stored != state {
		t.Errorf("stored state %q does not match redirected state %q", stored, state)
	}
}

func TestHandleLoginStateless(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	handler.Config.Provider.Stateless()

	req := httptest.NewRequest("GET", "/auth/login", nil)
	w := httptest.NewRecorder()
	handler.HandleLogin(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected status 302, got %d", resp.StatusCode)
	}
	if len(resp.Cookies()) != 0 {
		t.Errorf("stateless login should not set cookies")
	}
	if strings.Contains(resp.Header.Get("Location"), "state=") {
		t.Errorf("stateless authorization URL should not carry state")
	}
}

func TestHandleCallback(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	session, state := login(t, handler)

	req := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(session)
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body := decodeResponse(t, resp)
	user := body.Data.(map[string]interface{})
	if user["id"] != "u1" || user["nickname"] != "Ann" || user["provider"] != "colourlife" {
		t.Errorf("unexpected user %v", user)
	}

	// the state is consumed by the callback
	if len(handler.Store.(*MockStateStore).States) != 0 {
		t.Errorf("state should be deleted after callback")
	}

	// replaying the same callback must fail
	w = httptest.NewRecorder()
	replay := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+url.QueryEscape(state), nil)
	replay.AddCookie(session)
	handler.HandleCallback(w, replay)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected replay to be rejected with 401, got %d", w.Code)
	}
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	session, _ := login(t, handler)

	req := httptest.NewRequest("GET", "/auth/callback?code=abc&state=forged", nil)
	req.AddCookie(session)
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestHandleCallbackWithoutSession(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	_, state := login(t, handler)

	req := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+url.QueryEscape(state), nil)
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestHandleCallbackMissingCode(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	session, state := login(t, handler)

	req := httptest.NewRequest("GET", "/auth/callback?state="+url.QueryEscape(state), nil)
	req.AddCookie(session)
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleCallbackAuthorizationFailed(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(`{"code":1,"message":"bad code"}`, okUserBody))
	session, state := login(t, handler)

	req := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(session)
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.StatusCode)
	}
	body := decodeResponse(t, resp)
	data, ok := body.Data.(map[string]interface{})
	if !ok || data["message"] != "bad code" {
		t.Errorf("expected provider body as data, got %v", body.Data)
	}
}

func TestHandleCallbackStateless(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	handler.Config.Provider.Stateless()

	req := httptest.NewRequest("GET", "/auth/callback?code=abc", nil)
	w := httptest.NewRecorder()
	handler.HandleCallback(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHandleCallbackConcurrentReplay(t *testing.T) {
	handler := newTestHandler(t, colourlifeStub(okTokenBody, okUserBody))
	session, state := login(t, handler)

	const callers = 8
	codes := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+url.QueryEscape(state), nil)
			req.AddCookie(session)
			w := httptest.NewRecorder()
			handler.HandleCallback(w, req)
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	succeeded := 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			succeeded++
		case http.StatusUnauthorized:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one callback to succeed, got %d", succeeded)
	}
}
