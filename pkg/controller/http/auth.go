package http

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

const (
	cookieSessionID     = "session_id"
	cookieSessionSecret = "session_secret"
	cookieOAuthState    = "oauth_state"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUC usecase.AuthUseCase
	navUC  usecase.NavigationUseCase
	oauth  *idp.OAuth
}

// NewAuthHandler creates a new auth handler. oauth may be nil when the
// identity provider is not configured.
func NewAuthHandler(authUC usecase.AuthUseCase, navUC usecase.NavigationUseCase, oauth *idp.OAuth) *AuthHandler {
	return &AuthHandler{
		authUC: authUC,
		navUC:  navUC,
		oauth:  oauth,
	}
}

// generateRandomState generates a secure random state parameter
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// RawURLEncoding avoids padding characters that break cookie values
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HandleLogin initiates the OAuth flow. The login is pre-armed with the
// remote organization of the tenant the request arrived on, so the
// identity provider shows the right store's login screen.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.From(r.Context())

	if h.oauth == nil || !h.oauth.Configured() {
		writeError(w, goerr.New("identity provider not configured", goerr.T(apperr.ErrTagExternalService)))
		return
	}

	state, err := generateRandomState()
	if err != nil {
		logger.Error("Failed to generate state", "error", err)
		writeError(w, goerr.Wrap(err, "failed to generate state"))
		return
	}

	// Store state in cookie for verification
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthState,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   !h.isLocalhost(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	var remoteOrgID types.RemoteOrgID
	nav, err := h.navUC.Navigate(r.Context(), r.Host, "/")
	if err != nil {
		logger.Warn("Failed to resolve tenant for login", "error", err, "host", r.Host)
	} else {
		remoteOrgID = nav.RemoteOrgID
	}

	authorizeURL := h.oauth.AuthorizeURL(h.getRedirectURI(r), state, remoteOrgID)

	logger.Info("Redirecting to identity provider",
		"redirectURI", h.getRedirectURI(r),
		"remoteOrgID", remoteOrgID,
	)

	http.Redirect(w, r, authorizeURL, http.StatusTemporaryRedirect)
}

// HandleCallback handles the OAuth callback
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.From(r.Context())

	if h.oauth == nil || !h.oauth.Configured() {
		writeError(w, goerr.New("identity provider not configured", goerr.T(apperr.ErrTagExternalService)))
		return
	}

	// Verify state parameter for CSRF protection
	state := r.URL.Query().Get("state")
	storedStateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil {
		logger.Error("OAuth state cookie not found", "error", err)
		writeError(w, goerr.New("OAuth state not found", goerr.T(apperr.ErrTagValidation)))
		return
	}

	if state == "" || state != storedStateCookie.Value {
		logger.Error("OAuth state mismatch", "receivedState", state)
		writeError(w, goerr.New("invalid OAuth state", goerr.T(apperr.ErrTagValidation)))
		return
	}

	// Clear the state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthState,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		logger.Error("Authorization code not found in callback", "query", r.URL.RawQuery)
		writeError(w, goerr.New("authorization code not provided", goerr.T(apperr.ErrTagValidation)))
		return
	}

	accessToken, err := h.oauth.Exchange(r.Context(), code, h.getRedirectURI(r))
	if err != nil {
		logger.Error("Failed to exchange OAuth code", "error", err)
		writeError(w, goerr.Wrap(err, "failed to exchange authorization code"))
		return
	}

	profile, err := h.oauth.UserInfo(r.Context(), accessToken)
	if err != nil {
		logger.Error("Failed to get user info", "error", err)
		writeError(w, goerr.Wrap(err, "failed to get user info"))
		return
	}

	session, err := h.authUC.CreateSession(r.Context(), profile.Subject, profile.Name, profile.Email, profile.Role)
	if err != nil {
		logger.Error("Failed to create session", "error", err)
		writeError(w, goerr.Wrap(err, "failed to create session"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieSessionID,
		Value:    string(session.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   !h.isLocalhost(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     cookieSessionSecret,
		Value:    string(session.Secret),
		Path:     "/",
		HttpOnly: true,
		Secure:   !h.isLocalhost(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	logger.Info("User authenticated successfully",
		"subject", profile.Subject,
		"name", profile.Name,
	)

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleLogout handles logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionIDCookie, err := r.Cookie(cookieSessionID)
	if err == nil {
		if err := h.authUC.DeleteSession(r.Context(), types.SessionID(sessionIDCookie.Value)); err != nil {
			ctxlog.From(r.Context()).Debug("Failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieSessionID,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     cookieSessionSecret,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// HandleUserMe returns current user information
func (h *AuthHandler) HandleUserMe(w http.ResponseWriter, r *http.Request) {
	sessionIDCookie, err := r.Cookie(cookieSessionID)
	if err != nil {
		writeError(w, goerr.New("session not found", goerr.T(apperr.ErrTagNotAuthenticated)))
		return
	}

	user, err := h.authUC.GetUserFromSession(r.Context(), types.SessionID(sessionIDCookie.Value))
	if err != nil {
		writeError(w, goerr.Wrap(err, "failed to get user"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// getRedirectURI constructs the redirect URI from the request host so each
// tenant subdomain gets its own callback
func (h *AuthHandler) getRedirectURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/api/auth/callback"
}

// isLocalhost checks if the request is from localhost
func (h *AuthHandler) isLocalhost(r *http.Request) bool {
	return r.Host == "localhost" ||
		strings.HasPrefix(r.Host, "localhost:") ||
		strings.HasPrefix(r.Host, "127.0.0.1")
}
