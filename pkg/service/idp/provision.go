package idp

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// Provisioner orchestrates the remote-organization side of onboarding. Every
// lookup path is an ordered strategy: a failing strategy is logged and the
// next one is tried, so a flaky remote provider never blocks local setup.
type Provisioner struct {
	idp interfaces.IdentityProvider
}

// NewProvisioner creates a Provisioner on top of an identity provider client
func NewProvisioner(idp interfaces.IdentityProvider) *Provisioner {
	return &Provisioner{idp: idp}
}

// orgStrategy is one way of locating or creating the remote organization
type orgStrategy struct {
	name string
	run  func(ctx context.Context) (*interfaces.RemoteOrg, error)
}

// EnsureRemoteOrg finds or creates the remote organization for a store. The
// strategies run in order: the owner's existing profile link, then an exact
// name search, then creation. Each strategy's error is swallowed and logged
// so the next one still runs.
func (p *Provisioner) EnsureRemoteOrg(ctx context.Context, subject types.Subject, slug types.Slug, storeName string) (*interfaces.RemoteOrg, error) {
	logger := ctxlog.From(ctx)

	strategies := []orgStrategy{
		{
			name: "user_profile_link",
			run: func(ctx context.Context) (*interfaces.RemoteOrg, error) {
				return p.idp.GetOrgForUser(ctx, subject)
			},
		},
		{
			name: "search_by_name",
			run: func(ctx context.Context) (*interfaces.RemoteOrg, error) {
				return p.idp.FindOrgByName(ctx, slug.String())
			},
		},
		{
			name: "create",
			run: func(ctx context.Context) (*interfaces.RemoteOrg, error) {
				return p.idp.CreateOrg(ctx, slug.String(), storeName)
			},
		},
	}

	for _, strategy := range strategies {
		org, err := strategy.run(ctx)
		if err != nil {
			logger.Warn("remote org strategy failed, trying next",
				"strategy", strategy.name,
				"slug", slug,
				"error", err)
			continue
		}
		if org == nil {
			continue
		}
		return org, nil
	}

	return nil, goerr.New("no remote org strategy succeeded",
		goerr.V("slug", slug),
		goerr.T(apperr.ErrTagRemoteProvisioning))
}

// memberStrategy is one way of attaching the owner to the remote org
type memberStrategy struct {
	name string
	run  func(ctx context.Context) error
}

// AttachOwner makes the subject a member of the remote organization with the
// owner role. Some provider deployments create membership implicitly on role
// assignment, so a combined add-then-assign is tried first and a bare role
// assignment second.
func (p *Provisioner) AttachOwner(ctx context.Context, orgID types.RemoteOrgID, subject types.Subject) error {
	logger := ctxlog.From(ctx)

	strategies := []memberStrategy{
		{
			name: "add_member_then_assign_role",
			run: func(ctx context.Context) error {
				if err := p.idp.AddMember(ctx, orgID, subject); err != nil {
					return err
				}
				return p.idp.AssignRole(ctx, orgID, subject, types.RoleOwner)
			},
		},
		{
			name: "assign_role_only",
			run: func(ctx context.Context) error {
				return p.idp.AssignRole(ctx, orgID, subject, types.RoleOwner)
			},
		},
	}

	var lastErr error
	for _, strategy := range strategies {
		if err := strategy.run(ctx); err != nil {
			logger.Warn("owner attach strategy failed, trying next",
				"strategy", strategy.name,
				"orgID", orgID,
				"error", err)
			lastErr = err
			continue
		}
		return nil
	}

	return goerr.Wrap(lastErr, "all owner attach strategies failed",
		goerr.V("orgID", orgID),
		goerr.V("subject", subject),
		goerr.T(apperr.ErrTagRemoteProvisioning))
}

// EnableLogin enables the username/password connection for the organization.
// Idempotent: providers treat re-enabling an already-enabled connection as a
// no-op or a conflict, and a conflict from the first strategy falls through.
func (p *Provisioner) EnableLogin(ctx context.Context, orgID types.RemoteOrgID, connectionName string) error {
	if err := p.idp.EnableConnection(ctx, orgID, connectionName); err != nil {
		return goerr.Wrap(err, "failed to enable login connection",
			goerr.V("orgID", orgID))
	}
	return nil
}

// ResendVerification triggers a fresh verification email for a user whose
// original one expired or went missing
func (p *Provisioner) ResendVerification(ctx context.Context, subject types.Subject) error {
	if err := p.idp.ResendVerificationEmail(ctx, subject); err != nil {
		return goerr.Wrap(err, "failed to resend verification email",
			goerr.V("subject", subject),
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}
	return nil
}

// LinkUserMetadata records the organization linkage on the remote profile
func (p *Provisioner) LinkUserMetadata(ctx context.Context, subject types.Subject, orgID types.RemoteOrgID, slug types.Slug) error {
	metadata := map[string]any{
		"org_id": orgID.String(),
		"slug":   slug.String(),
	}
	if err := p.idp.PatchUserMetadata(ctx, subject, metadata); err != nil {
		return goerr.Wrap(err, "failed to link user metadata",
			goerr.V("subject", subject),
			goerr.V("orgID", orgID))
	}
	return nil
}
