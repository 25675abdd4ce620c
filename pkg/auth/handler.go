package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/y0ug/colourlife/pkg/auth/providers"
)

// Handler holds the authentication handlers and dependencies.
type Handler struct {
	Config *Config
	Store  StateStore
	Logger *logrus.Logger
}

// NewHandler initializes a new authentication handler.
func NewHandler(config *Config, store StateStore, logger *logrus.Logger) *Handler {
	return &Handler{
		Config: config,
		Store:  store,
		Logger: logger,
	}
}

// HandleProviders describes the configured provider.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	p := h.Config.Provider
	cfg := p.Config()

	WriteSuccessResponse(w, "Providers retrieved successfully", []ProviderResponse{{
		Name:        p.Name(),
		Environment: string(p.Environment()),
		BaseURL:     p.BaseURL(),
		Scopes:      cfg.Scopes,
		Stateless:   !p.UsesState(),
	}})
}

// HandleLogin stores a fresh state for a new session and redirects the user
// to the provider.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p := h.Config.Provider
	if !p.UsesState() {
		p.Redirect(w, r, "")
		return
	}

	state, err := generateStateString()
	if err != nil {
		h.Logger.WithError(err).Error("Failed to generate state")
		WriteErrorResponse(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	sessionID, err := generateStateString()
	if err != nil {
		h.Logger.WithError(err).Error("Failed to generate session id")
		WriteErrorResponse(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(h.Config.StateExpiration)
	if err := h.Store.SaveState(r.Context(), sessionID, state, expiresAt); err != nil {
		h.Logger.WithError(err).Error("Failed to store state")
		WriteErrorResponse(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	cookieValue, err := signSessionID(sessionID, expiresAt, h.Config.SessionSecret)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to sign session")
		WriteErrorResponse(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, cookieValue, expiresAt, h.Config)

	h.Logger.WithField("client_ip", GetClientIP(r)).Debug("Redirecting to colourlife authorization")
	p.Redirect(w, r, state)
}

// HandleCallback handles the provider redirect and responds with the
// authenticated user.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	p := h.Config.Provider

	var states providers.StateReader
	if p.UsesState() {
		states = h.sessionState(r)
		clearSessionCookie(w, h.Config)
	}

	user, err := p.Authenticate(r.Context(), r, states)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"provider": user.Provider,
		"user_id":  user.ID,
	}).Info("User authenticated")

	WriteSuccessResponse(w, "User authenticated successfully", user)
}

// sessionState resolves the session of the callback request. An absent or
// invalid cookie yields a reader with no state, which fails the state check.
func (h *Handler) sessionState(r *http.Request) sessionState {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		h.Logger.Warn("Session cookie not found on callback")
		return sessionState{store: h.Store}
	}

	sessionID, err := parseSessionID(cookie.Value, h.Config.SessionSecret)
	if err != nil {
		h.Logger.WithError(err).Warn("Invalid session cookie on callback")
		return sessionState{store: h.Store}
	}
	return sessionState{store: h.Store, sessionID: sessionID}
}

func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.Logger.WithError(err).WithField("client_ip", GetClientIP(r))

	var failed *providers.AuthorizationFailedError
	switch {
	case errors.Is(err, providers.ErrStateMismatch):
		logger.Warn("State mismatch on callback")
		WriteErrorResponse(w, "Invalid state", http.StatusUnauthorized)
	case errors.Is(err, providers.ErrMissingCode):
		logger.Warn("Callback without authorization code")
		WriteErrorResponse(w, "Code not found in the request", http.StatusBadRequest)
	case errors.As(err, &failed):
		logger.Warn("Token exchange failed")
		WriteErrorResponseData(w, "Authorization failed", failed.Body, http.StatusUnauthorized)
	default:
		logger.Error("Provider request failed")
		WriteErrorResponse(w, "Failed to authenticate with provider", http.StatusBadGateway)
	}
}
