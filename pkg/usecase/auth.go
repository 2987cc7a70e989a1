package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// sessionDuration is how long a login stays valid
const sessionDuration = 24 * time.Hour

// Auth implements AuthUseCase with repository-based storage
type Auth struct {
	repo interfaces.Repository
}

// NewAuth creates a new Auth use case
func NewAuth(repo interfaces.Repository) AuthUseCase {
	return &Auth{
		repo: repo,
	}
}

// CreateSession finds or creates the local user record for the identity
// provider subject and opens a new session. role applies only when the user
// record does not exist yet: a first-time subject becomes a store owner
// unless the login claims say otherwise.
func (a *Auth) CreateSession(ctx context.Context, subject types.Subject, name, email string, role types.Role) (*model.Session, error) {
	logger := ctxlog.From(ctx)

	if subject == "" {
		return nil, goerr.New("subject is required",
			goerr.T(apperr.ErrTagValidation))
	}
	if !role.IsValid() {
		role = types.RoleOwner
	}

	user, err := a.repo.GetUserBySubject(ctx, subject)
	if err != nil {
		if !goerr.HasTag(err, apperr.ErrTagNotFound) {
			return nil, goerr.Wrap(err, "failed to look up user")
		}

		user = model.NewUser(subject, name, email, role)
		if err := a.repo.SaveUser(ctx, user); err != nil {
			return nil, goerr.Wrap(err, "failed to save user")
		}

		logger.Info("Created new user",
			"userID", user.ID,
			"subject", subject,
			"role", role,
		)
	}

	session, err := model.NewSession(user.ID, sessionDuration)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session")
	}

	if err := a.repo.SaveSession(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to save session")
	}

	logger.Info("Created new session",
		"sessionID", session.ID,
		"userID", user.ID,
		"expiresAt", session.ExpiresAt,
	)

	return session, nil
}

// ValidateSession validates a session by ID and secret
func (a *Auth) ValidateSession(ctx context.Context, sessionID types.SessionID, secret types.SessionSecret) (*model.Session, error) {
	if sessionID == "" || secret == "" {
		return nil, goerr.New("session ID and secret are required",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}

	session, err := a.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "session not found",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}

	if session.Secret != secret {
		return nil, goerr.New("invalid session secret",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}

	if session.IsExpired() {
		return nil, goerr.New("session expired",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}

	return session, nil
}

// DeleteSession deletes a session
func (a *Auth) DeleteSession(ctx context.Context, sessionID types.SessionID) error {
	if sessionID == "" {
		return goerr.New("session ID is required",
			goerr.T(apperr.ErrTagValidation))
	}

	if err := a.repo.DeleteSession(ctx, sessionID); err != nil {
		return goerr.Wrap(err, "failed to delete session")
	}

	ctxlog.From(ctx).Info("Deleted session", "sessionID", sessionID)
	return nil
}

// GetUserFromSession gets user information from a session
func (a *Auth) GetUserFromSession(ctx context.Context, sessionID types.SessionID) (*model.User, error) {
	session, err := a.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "session not found",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}

	user, err := a.repo.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "user not found for session",
			goerr.V("sessionID", sessionID))
	}

	return user, nil
}
