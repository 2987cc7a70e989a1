package model

import (
	"context"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	authContextKey contextKey = "authContext"
)

// AuthContext contains authentication information
// that should be preserved across async boundaries
type AuthContext struct {
	UserID    types.UserID    `json:"user_id,omitempty"`
	Subject   types.Subject   `json:"subject,omitempty"`
	Role      types.Role      `json:"role,omitempty"`
	OrgID     types.OrgID     `json:"org_id,omitempty"`
	SessionID types.SessionID `json:"session_id,omitempty"`
}

// NewAuthContext creates a new AuthContext
func NewAuthContext() *AuthContext {
	return &AuthContext{}
}

// IsAuthenticated reports whether the context carries an authenticated subject
func (a *AuthContext) IsAuthenticated() bool {
	return a != nil && a.Subject != ""
}

// WithAuthContext adds AuthContext to the context
func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	if authCtx == nil {
		return ctx
	}
	return context.WithValue(ctx, authContextKey, authCtx)
}

// GetAuthContext retrieves AuthContext from the context
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(*AuthContext)
	return authCtx, ok
}

// GetOrCreateAuthContext retrieves AuthContext from context or creates a new one if not present
func GetOrCreateAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := GetAuthContext(ctx); ok && authCtx != nil {
		return authCtx
	}
	return NewAuthContext()
}

// Clone creates a deep copy of the AuthContext
func (a *AuthContext) Clone() *AuthContext {
	if a == nil {
		return nil
	}
	return &AuthContext{
		UserID:    a.UserID,
		Subject:   a.Subject,
		Role:      a.Role,
		OrgID:     a.OrgID,
		SessionID: a.SessionID,
	}
}
