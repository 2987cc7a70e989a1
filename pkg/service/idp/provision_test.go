package idp_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces/mocks"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
)

func TestEnsureRemoteOrg(t *testing.T) {
	ctx := context.Background()
	subject := types.Subject("auth0|owner")
	slug := types.Slug("bunga-mawar")

	t.Run("profile link wins", func(t *testing.T) {
		mock := &mocks.IdentityProviderMock{
			GetOrgForUserFunc: func(ctx context.Context, s types.Subject) (*interfaces.RemoteOrg, error) {
				return &interfaces.RemoteOrg{ID: "org_linked", Name: "bunga-mawar"}, nil
			},
		}
		p := idp.NewProvisioner(mock)

		org, err := p.EnsureRemoteOrg(ctx, subject, slug, "Bunga Mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID("org_linked"), org.ID)
	})

	t.Run("falls back to name search when profile lookup fails", func(t *testing.T) {
		mock := &mocks.IdentityProviderMock{
			GetOrgForUserFunc: func(ctx context.Context, s types.Subject) (*interfaces.RemoteOrg, error) {
				return nil, goerr.New("provider outage")
			},
			FindOrgByNameFunc: func(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
				gt.Equal(t, "bunga-mawar", name)
				return &interfaces.RemoteOrg{ID: "org_found", Name: name}, nil
			},
		}
		p := idp.NewProvisioner(mock)

		org, err := p.EnsureRemoteOrg(ctx, subject, slug, "Bunga Mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID("org_found"), org.ID)
	})

	t.Run("creates when nothing exists", func(t *testing.T) {
		mock := &mocks.IdentityProviderMock{
			GetOrgForUserFunc: func(ctx context.Context, s types.Subject) (*interfaces.RemoteOrg, error) {
				return nil, nil
			},
			FindOrgByNameFunc: func(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
				return nil, nil
			},
			CreateOrgFunc: func(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error) {
				gt.Equal(t, "bunga-mawar", name)
				gt.Equal(t, "Bunga Mawar", displayName)
				return &interfaces.RemoteOrg{ID: "org_created", Name: name, DisplayName: displayName}, nil
			},
		}
		p := idp.NewProvisioner(mock)

		org, err := p.EnsureRemoteOrg(ctx, subject, slug, "Bunga Mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID("org_created"), org.ID)
	})

	t.Run("all strategies fail", func(t *testing.T) {
		mock := &mocks.IdentityProviderMock{
			GetOrgForUserFunc: func(ctx context.Context, s types.Subject) (*interfaces.RemoteOrg, error) {
				return nil, goerr.New("outage")
			},
			FindOrgByNameFunc: func(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
				return nil, goerr.New("outage")
			},
			CreateOrgFunc: func(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error) {
				return nil, goerr.New("outage")
			},
		}
		p := idp.NewProvisioner(mock)

		org, err := p.EnsureRemoteOrg(ctx, subject, slug, "Bunga Mawar")
		gt.Error(t, err)
		gt.Nil(t, org)
	})
}

func TestAttachOwner(t *testing.T) {
	ctx := context.Background()
	orgID := types.RemoteOrgID("org_1")
	subject := types.Subject("auth0|owner")

	t.Run("member add then role assign", func(t *testing.T) {
		var added, assigned bool
		mock := &mocks.IdentityProviderMock{
			AddMemberFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject) error {
				added = true
				return nil
			},
			AssignRoleFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject, r types.Role) error {
				gt.Equal(t, types.RoleOwner, r)
				assigned = true
				return nil
			},
		}
		p := idp.NewProvisioner(mock)

		gt.NoError(t, p.AttachOwner(ctx, orgID, subject))
		gt.True(t, added)
		gt.True(t, assigned)
	})

	t.Run("falls back to bare role assignment", func(t *testing.T) {
		var assigns int
		mock := &mocks.IdentityProviderMock{
			AddMemberFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject) error {
				return goerr.New("members endpoint unsupported")
			},
			AssignRoleFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject, r types.Role) error {
				assigns++
				return nil
			},
		}
		p := idp.NewProvisioner(mock)

		gt.NoError(t, p.AttachOwner(ctx, orgID, subject))
		gt.Equal(t, 1, assigns)
	})

	t.Run("all strategies fail", func(t *testing.T) {
		mock := &mocks.IdentityProviderMock{
			AddMemberFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject) error {
				return goerr.New("outage")
			},
			AssignRoleFunc: func(ctx context.Context, o types.RemoteOrgID, s types.Subject, r types.Role) error {
				return goerr.New("outage")
			},
		}
		p := idp.NewProvisioner(mock)

		gt.Error(t, p.AttachOwner(ctx, orgID, subject))
	})
}
