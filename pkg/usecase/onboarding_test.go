package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces/mocks"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/repository"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
	"github.com/whatthepack/whatthepack/pkg/utils/ratelimit"
)

// happyIdP is an identity provider where every operation succeeds
func happyIdP() *mocks.IdentityProviderMock {
	return &mocks.IdentityProviderMock{
		GetOrgForUserFunc: func(ctx context.Context, s types.Subject) (*interfaces.RemoteOrg, error) {
			return nil, nil
		},
		FindOrgByNameFunc: func(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
			return nil, nil
		},
		CreateOrgFunc: func(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error) {
			return &interfaces.RemoteOrg{ID: "org_remote", Name: name, DisplayName: displayName}, nil
		},
		AddMemberFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject) error {
			return nil
		},
		AssignRoleFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject, r types.Role) error {
			return nil
		},
		EnableConnectionFunc: func(ctx context.Context, o types.RemoteOrgID, c string) error {
			return nil
		},
		PatchUserMetadataFunc: func(ctx context.Context, s types.Subject, m map[string]any) error {
			return nil
		},
	}
}

// brokenIdP is an identity provider where every operation fails
func brokenIdP() *mocks.IdentityProviderMock {
	fail := goerr.New("identity provider outage")
	return &mocks.IdentityProviderMock{
		GetOrgForUserFunc: func(ctx context.Context, s types.Subject) (*interfaces.RemoteOrg, error) {
			return nil, fail
		},
		FindOrgByNameFunc: func(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
			return nil, fail
		},
		CreateOrgFunc: func(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error) {
			return nil, fail
		},
		AddMemberFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject) error {
			return fail
		},
		AssignRoleFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject, r types.Role) error {
			return fail
		},
		EnableConnectionFunc: func(ctx context.Context, o types.RemoteOrgID, c string) error {
			return fail
		},
		PatchUserMetadataFunc: func(ctx context.Context, s types.Subject, m map[string]any) error {
			return fail
		},
	}
}

func authedCtx(subject types.Subject) context.Context {
	return model.WithAuthContext(context.Background(), &model.AuthContext{
		Subject:   subject,
		SessionID: "sess-test",
	})
}

func newOnboarding(repo interfaces.Repository, provider interfaces.IdentityProvider) *usecase.Onboarding {
	return usecase.NewOnboarding(repo, idp.NewProvisioner(provider), ratelimit.New(time.Hour, 3), "store-users")
}

func TestCompleteOnboarding(t *testing.T) {
	t.Run("happy path links everything", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := newOnboarding(repo, happyIdP())
		ctx := authedCtx("auth0|owner")

		result, err := uc.CompleteOnboarding(ctx, "Bunga Mawar", "bunga-mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.Slug("bunga-mawar"), result.Slug)
		gt.Equal(t, types.RemoteOrgID("org_remote"), result.RemoteOrgID)

		org, err := repo.GetOrganizationBySlug(ctx, "bunga-mawar")
		gt.NoError(t, err)
		gt.True(t, org.OnboardingCompleted)
		gt.Equal(t, types.RemoteOrgID("org_remote"), org.RemoteOrgID)

		user, err := repo.GetUserBySubject(ctx, "auth0|owner")
		gt.NoError(t, err)
		gt.Equal(t, org.ID, user.OrgID)
		gt.Equal(t, types.RoleOwner, user.Role)
	})

	t.Run("succeeds locally when every remote step fails", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := newOnboarding(repo, brokenIdP())
		ctx := authedCtx("auth0|owner")

		result, err := uc.CompleteOnboarding(ctx, "Bunga Mawar", "bunga-mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID(""), result.RemoteOrgID)

		org, err := repo.GetOrganizationBySlug(ctx, "bunga-mawar")
		gt.NoError(t, err)
		gt.True(t, org.OnboardingCompleted)
		gt.Equal(t, types.RemoteOrgID(""), org.RemoteOrgID)
	})

	t.Run("requires authentication", func(t *testing.T) {
		uc := newOnboarding(repository.NewMemory(), happyIdP())

		_, err := uc.CompleteOnboarding(context.Background(), "Store", "some-store")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagNotAuthenticated))
	})

	t.Run("invalid slug rejected", func(t *testing.T) {
		uc := newOnboarding(repository.NewMemory(), happyIdP())

		// Each attempt uses its own subject: the rate limit is checked
		// before slug validation and would trip after three calls from
		// the same caller
		for i, slug := range []types.Slug{"ab", "UPPER", "has space", ""} {
			ctx := authedCtx(types.Subject(fmt.Sprintf("auth0|owner-%d", i)))
			_, err := uc.CompleteOnboarding(ctx, "Store", slug)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, apperr.ErrTagValidation))
		}
	})

	t.Run("taken slug rejected", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := newOnboarding(repo, happyIdP())

		_, err := uc.CompleteOnboarding(authedCtx("auth0|first"), "First", "taken-slug")
		gt.NoError(t, err)

		_, err = uc.CompleteOnboarding(authedCtx("auth0|second"), "Second", "taken-slug")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagSlugTaken))
	})

	t.Run("double onboarding rejected", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := newOnboarding(repo, happyIdP())
		ctx := authedCtx("auth0|owner")

		_, err := uc.CompleteOnboarding(ctx, "First", "first-store")
		gt.NoError(t, err)

		_, err = uc.CompleteOnboarding(ctx, "Second", "second-store")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagAlreadyOnboarded))
	})

	t.Run("rate limited after three attempts", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := newOnboarding(repo, happyIdP())
		ctx := authedCtx("auth0|hasty")

		// Three attempts consume the window even when they fail validation
		for i := 0; i < 3; i++ {
			_, err := uc.CompleteOnboarding(ctx, "Store", "x")
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, apperr.ErrTagValidation))
		}

		_, err := uc.CompleteOnboarding(ctx, "Store", "valid-slug")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagRateLimited))
	})
}

func TestEnsureOrgLoginReady(t *testing.T) {
	t.Run("repairs missing remote link and enables login", func(t *testing.T) {
		repo := repository.NewMemory()
		provider := happyIdP()
		var enabled int
		provider.EnableConnectionFunc = func(ctx context.Context, o types.RemoteOrgID, c string) error {
			enabled++
			return nil
		}
		uc := newOnboarding(repo, provider)

		// Tenant provisioned while the IdP was down
		broken := newOnboarding(repo, brokenIdP())
		_, err := broken.CompleteOnboarding(authedCtx("auth0|owner"), "Bunga Mawar", "bunga-mawar")
		gt.NoError(t, err)

		gt.NoError(t, uc.EnsureOrgLoginReady(context.Background(), "bunga-mawar"))
		gt.Equal(t, 1, enabled)

		org, err := repo.GetOrganizationBySlug(context.Background(), "bunga-mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID("org_remote"), org.RemoteOrgID)

		// Repeat call is idempotent
		gt.NoError(t, uc.EnsureOrgLoginReady(context.Background(), "bunga-mawar"))
		gt.Equal(t, 2, enabled)
	})

	t.Run("unknown slug is an error", func(t *testing.T) {
		uc := newOnboarding(repository.NewMemory(), happyIdP())
		gt.Error(t, uc.EnsureOrgLoginReady(context.Background(), "missing-store"))
	})
}
