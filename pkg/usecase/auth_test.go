package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/repository"
	"github.com/whatthepack/whatthepack/pkg/usecase"
)

func TestAuthCreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user on first login", func(t *testing.T) {
		repo := repository.NewMemory()
		auth := usecase.NewAuth(repo)

		session, err := auth.CreateSession(ctx, "auth0|alice", "Alice", "alice@example.com", types.RoleOwner)
		gt.NoError(t, err)
		gt.NotNil(t, session)
		gt.True(t, session.IsValid())

		user, err := repo.GetUserBySubject(ctx, "auth0|alice")
		gt.NoError(t, err)
		gt.Equal(t, types.RoleOwner, user.Role)
		gt.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("reuses existing user", func(t *testing.T) {
		repo := repository.NewMemory()
		auth := usecase.NewAuth(repo)

		first, err := auth.CreateSession(ctx, "auth0|bob", "Bob", "bob@example.com", types.RolePacker)
		gt.NoError(t, err)
		second, err := auth.CreateSession(ctx, "auth0|bob", "Bob", "bob@example.com", types.RoleOwner)
		gt.NoError(t, err)

		gt.NotEqual(t, first.ID, second.ID)
		user, err := repo.GetUserBySubject(ctx, "auth0|bob")
		gt.NoError(t, err)
		// Role from the first login sticks
		gt.Equal(t, types.RolePacker, user.Role)
	})

	t.Run("empty subject rejected", func(t *testing.T) {
		auth := usecase.NewAuth(repository.NewMemory())
		_, err := auth.CreateSession(ctx, "", "Nobody", "", types.RoleOwner)
		gt.Error(t, err)
	})
}

func TestAuthValidateSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	auth := usecase.NewAuth(repo)

	session, err := auth.CreateSession(ctx, "auth0|carol", "Carol", "carol@example.com", types.RoleOwner)
	gt.NoError(t, err)

	t.Run("valid session", func(t *testing.T) {
		got, err := auth.ValidateSession(ctx, session.ID, session.Secret)
		gt.NoError(t, err)
		gt.Equal(t, session.UserID, got.UserID)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		_, err := auth.ValidateSession(ctx, session.ID, "bogus")
		gt.Error(t, err)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		_, err := auth.ValidateSession(ctx, "", "")
		gt.Error(t, err)
	})

	t.Run("deleted session rejected", func(t *testing.T) {
		gt.NoError(t, auth.DeleteSession(ctx, session.ID))
		_, err := auth.ValidateSession(ctx, session.ID, session.Secret)
		gt.Error(t, err)
	})
}

func TestAuthGetUserFromSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	auth := usecase.NewAuth(repo)

	session, err := auth.CreateSession(ctx, "auth0|dave", "Dave", "dave@example.com", types.RoleAdmin)
	gt.NoError(t, err)

	user, err := auth.GetUserFromSession(ctx, session.ID)
	gt.NoError(t, err)
	gt.Equal(t, types.Subject("auth0|dave"), user.Subject)

	_, err = auth.GetUserFromSession(ctx, types.SessionID("missing"))
	gt.Error(t, err)
}
