package interfaces

import (
	"context"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// RemoteOrg is the identity provider's view of a tenant organization
type RemoteOrg struct {
	ID          types.RemoteOrgID
	Name        string
	DisplayName string
}

// IdentityProvider defines the consumed surface of the external identity
// provider's management API. Every method is remote; callers treat failures
// as best-effort unless noted otherwise.
type IdentityProvider interface {
	// CreateOrg creates a new remote organization
	CreateOrg(ctx context.Context, name, displayName string) (*RemoteOrg, error)

	// FindOrgByName searches existing remote organizations by name,
	// returning nil when no match exists
	FindOrgByName(ctx context.Context, name string) (*RemoteOrg, error)

	// GetOrgForUser returns the remote organization already linked to the
	// given subject's profile, or nil when none is linked
	GetOrgForUser(ctx context.Context, subject types.Subject) (*RemoteOrg, error)

	// AddMember adds the subject as a member of the remote organization
	AddMember(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject) error

	// AssignRole assigns the named role to the subject within the organization
	AssignRole(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject, role types.Role) error

	// EnableConnection enables the named login connection for the organization
	EnableConnection(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error

	// PatchUserMetadata updates the subject's app metadata with organization linkage
	PatchUserMetadata(ctx context.Context, subject types.Subject, metadata map[string]any) error

	// ResendVerificationEmail triggers a new verification email for the subject
	ResendVerificationEmail(ctx context.Context, subject types.Subject) error
}
