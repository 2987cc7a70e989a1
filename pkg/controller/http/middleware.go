package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// Middleware provides common HTTP middleware
type Middleware struct {
	authUC usecase.AuthUseCase
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authUC usecase.AuthUseCase) *Middleware {
	return &Middleware{
		authUC: authUC,
	}
}

// AuthContext resolves session cookies into an AuthContext. It never
// rejects the request: anonymous visitors get a context carrying only
// the session ID so the login dedup guard can key on it.
func (m *Middleware) AuthContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := model.NewAuthContext()

		sessionIDCookie, idErr := r.Cookie(cookieSessionID)
		if idErr == nil {
			authCtx.SessionID = types.SessionID(sessionIDCookie.Value)
		}

		sessionSecretCookie, secretErr := r.Cookie(cookieSessionSecret)
		if idErr == nil && secretErr == nil {
			sessionID := types.SessionID(sessionIDCookie.Value)
			secret := types.SessionSecret(sessionSecretCookie.Value)

			if _, err := m.authUC.ValidateSession(r.Context(), sessionID, secret); err != nil {
				ctxlog.From(r.Context()).Debug("Session validation failed",
					"error", err,
					"sessionID", sessionID,
				)
			} else if user, err := m.authUC.GetUserFromSession(r.Context(), sessionID); err == nil {
				authCtx.UserID = user.ID
				authCtx.Subject = user.Subject
				authCtx.Role = user.Role
				authCtx.OrgID = user.OrgID
			}
		}

		ctx := model.WithAuthContext(r.Context(), authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without an authenticated subject
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := model.GetOrCreateAuthContext(r.Context())
		if !authCtx.IsAuthenticated() {
			writeError(w, goerr.New("authentication required", goerr.T(apperr.ErrTagNotAuthenticated)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware creates a chi-compatible logging middleware
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Embed logger from the initial context into request context
			r = r.WithContext(ctxlog.With(r.Context(), ctxlog.From(ctx)))

			logger := ctxlog.From(r.Context())
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.Query(),
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	}
}
