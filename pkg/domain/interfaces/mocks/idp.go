package mocks

import (
	"context"

	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// IdentityProviderMock is a mock implementation of interfaces.IdentityProvider.
// Unset Func fields make the corresponding method panic, which surfaces
// unexpected calls in tests immediately.
type IdentityProviderMock struct {
	CreateOrgFunc               func(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error)
	FindOrgByNameFunc           func(ctx context.Context, name string) (*interfaces.RemoteOrg, error)
	GetOrgForUserFunc           func(ctx context.Context, subject types.Subject) (*interfaces.RemoteOrg, error)
	AddMemberFunc               func(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject) error
	AssignRoleFunc              func(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject, role types.Role) error
	EnableConnectionFunc        func(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error
	PatchUserMetadataFunc       func(ctx context.Context, subject types.Subject, metadata map[string]any) error
	ResendVerificationEmailFunc func(ctx context.Context, subject types.Subject) error
}

var _ interfaces.IdentityProvider = (*IdentityProviderMock)(nil)

func (m *IdentityProviderMock) CreateOrg(ctx context.Context, name, displayName string) (*interfaces.RemoteOrg, error) {
	if m.CreateOrgFunc == nil {
		panic("IdentityProviderMock.CreateOrgFunc is not set")
	}
	return m.CreateOrgFunc(ctx, name, displayName)
}

func (m *IdentityProviderMock) FindOrgByName(ctx context.Context, name string) (*interfaces.RemoteOrg, error) {
	if m.FindOrgByNameFunc == nil {
		panic("IdentityProviderMock.FindOrgByNameFunc is not set")
	}
	return m.FindOrgByNameFunc(ctx, name)
}

func (m *IdentityProviderMock) GetOrgForUser(ctx context.Context, subject types.Subject) (*interfaces.RemoteOrg, error) {
	if m.GetOrgForUserFunc == nil {
		panic("IdentityProviderMock.GetOrgForUserFunc is not set")
	}
	return m.GetOrgForUserFunc(ctx, subject)
}

func (m *IdentityProviderMock) AddMember(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject) error {
	if m.AddMemberFunc == nil {
		panic("IdentityProviderMock.AddMemberFunc is not set")
	}
	return m.AddMemberFunc(ctx, orgID, subject)
}

func (m *IdentityProviderMock) AssignRole(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject, role types.Role) error {
	if m.AssignRoleFunc == nil {
		panic("IdentityProviderMock.AssignRoleFunc is not set")
	}
	return m.AssignRoleFunc(ctx, orgID, subject, role)
}

func (m *IdentityProviderMock) EnableConnection(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error {
	if m.EnableConnectionFunc == nil {
		panic("IdentityProviderMock.EnableConnectionFunc is not set")
	}
	return m.EnableConnectionFunc(ctx, orgID, connectionName)
}

func (m *IdentityProviderMock) PatchUserMetadata(ctx context.Context, subject types.Subject, metadata map[string]any) error {
	if m.PatchUserMetadataFunc == nil {
		panic("IdentityProviderMock.PatchUserMetadataFunc is not set")
	}
	return m.PatchUserMetadataFunc(ctx, subject, metadata)
}

func (m *IdentityProviderMock) ResendVerificationEmail(ctx context.Context, subject types.Subject) error {
	if m.ResendVerificationEmailFunc == nil {
		panic("IdentityProviderMock.ResendVerificationEmailFunc is not set")
	}
	return m.ResendVerificationEmailFunc(ctx, subject)
}
