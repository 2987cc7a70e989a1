package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
	"github.com/whatthepack/whatthepack/pkg/utils/async"
	"github.com/whatthepack/whatthepack/pkg/utils/ratelimit"
)

// OnboardingResult is returned to the caller once the tenant exists locally
type OnboardingResult struct {
	OrgID       types.OrgID       `json:"org_id"`
	Slug        types.Slug        `json:"slug"`
	UserID      types.UserID      `json:"user_id"`
	RemoteOrgID types.RemoteOrgID `json:"remote_org_id,omitempty"`
}

// Onboarding implements OnboardingUseCase. The local store is the source of
// truth: every identity-provider step is best-effort and never rolls back a
// locally created tenant.
type Onboarding struct {
	repo        interfaces.Repository
	provisioner *idp.Provisioner
	limiter     *ratelimit.Limiter
	connection  string
}

// NewOnboarding creates a new Onboarding use case. connection names the
// identity provider's username/password login connection. provisioner may
// be nil, which keeps tenants local-only.
func NewOnboarding(repo interfaces.Repository, provisioner *idp.Provisioner, limiter *ratelimit.Limiter, connection string) *Onboarding {
	return &Onboarding{
		repo:        repo,
		provisioner: provisioner,
		limiter:     limiter,
		connection:  connection,
	}
}

var _ OnboardingUseCase = (*Onboarding)(nil)

// CompleteOnboarding provisions a tenant for the authenticated caller.
// Preconditions (auth, rate limit, slug validity and uniqueness, not already
// onboarded) are fatal. The local user and organization are then created and
// the function is committed to success: remote identity-provider steps run
// afterwards and their failures are logged and swallowed.
func (o *Onboarding) CompleteOnboarding(ctx context.Context, storeName string, slug types.Slug) (*OnboardingResult, error) {
	logger := ctxlog.From(ctx)

	authCtx, ok := model.GetAuthContext(ctx)
	if !ok || !authCtx.IsAuthenticated() {
		return nil, goerr.New("onboarding requires an authenticated caller",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}
	subject := authCtx.Subject

	if !o.limiter.Allow("onboarding:" + subject.String()) {
		return nil, goerr.New("too many onboarding attempts",
			goerr.V("subject", subject),
			goerr.T(apperr.ErrTagRateLimited))
	}

	if storeName == "" {
		return nil, goerr.New("store name is required",
			goerr.T(apperr.ErrTagValidation))
	}
	if !slug.IsValid() {
		return nil, goerr.New("slug must match [a-z0-9-]{3,48}",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagValidation))
	}

	if existing, err := o.repo.GetOrganizationBySlug(ctx, slug); err == nil && existing != nil {
		return nil, goerr.New("slug is already in use",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagSlugTaken))
	} else if err != nil && !goerr.HasTag(err, apperr.ErrTagNotFound) {
		return nil, goerr.Wrap(err, "failed to check slug availability")
	}

	// Effect 1: create or reuse the local user record as owner
	user, err := o.repo.GetUserBySubject(ctx, subject)
	if err != nil {
		if !goerr.HasTag(err, apperr.ErrTagNotFound) {
			return nil, goerr.Wrap(err, "failed to look up user")
		}
		user = model.NewUser(subject, "", "", types.RoleOwner)
		if err := o.repo.SaveUser(ctx, user); err != nil {
			return nil, goerr.Wrap(err, "failed to save owner user")
		}
	} else if user.HasOrganization() {
		return nil, goerr.New("user already belongs to an organization",
			goerr.V("subject", subject),
			goerr.V("orgID", user.OrgID),
			goerr.T(apperr.ErrTagAlreadyOnboarded))
	}

	// Effect 2: create the organization. OnboardingCompleted is set before
	// any remote step runs so the tenant stays usable even when the
	// identity provider is down.
	org := model.NewOrganization(slug, storeName, user.ID)
	org.OnboardingCompleted = true
	if err := o.repo.SaveOrganization(ctx, org); err != nil {
		return nil, goerr.Wrap(err, "failed to save organization")
	}

	// Effect 3: link the user to the organization
	user.OrgID = org.ID
	user.Role = types.RoleOwner
	if err := o.repo.SaveUser(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to link user to organization")
	}

	result := &OnboardingResult{
		OrgID:  org.ID,
		Slug:   org.Slug,
		UserID: user.ID,
	}

	// Effects 4-7: remote identity provider provisioning, best-effort
	var remoteOrg *interfaces.RemoteOrg
	if o.provisioner != nil {
		remoteOrg, err = o.provisioner.EnsureRemoteOrg(ctx, subject, slug, storeName)
		if err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "remote org provisioning failed, tenant remains local-only",
				goerr.V("slug", slug),
				goerr.T(apperr.ErrTagRemoteProvisioning)))
		}
	}

	if remoteOrg != nil {
		if err := o.provisioner.AttachOwner(ctx, remoteOrg.ID, subject); err != nil {
			apperr.Handle(ctx, err)
		}

		org.RemoteOrgID = remoteOrg.ID
		if err := o.repo.SaveOrganization(ctx, org); err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "failed to persist remote org link"))
		} else {
			result.RemoteOrgID = remoteOrg.ID
		}

		if err := o.provisioner.EnableLogin(ctx, remoteOrg.ID, o.connection); err != nil {
			apperr.Handle(ctx, err)
		}

		// Effect 8: link the remote profile asynchronously
		async.Dispatch(ctx, func(ctx context.Context) error {
			return o.provisioner.LinkUserMetadata(ctx, subject, remoteOrg.ID, slug)
		})
	}

	logger.Info("Tenant onboarded",
		"orgID", org.ID,
		"slug", slug,
		"userID", user.ID,
		"remoteOrgID", org.RemoteOrgID,
	)

	return result, nil
}

// EnsureOrgLoginReady re-runs the remote-org lookup and connection enabling
// for a tenant so a returning user's login does not fail with a disabled
// connection. It is callable before authentication and safe to repeat: both
// steps search before they create.
func (o *Onboarding) EnsureOrgLoginReady(ctx context.Context, slug types.Slug) error {
	if o.provisioner == nil {
		return goerr.New("no identity provider configured",
			goerr.T(apperr.ErrTagExternalService))
	}
	if !slug.IsValid() {
		return goerr.New("invalid slug",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagValidation))
	}

	org, err := o.repo.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return goerr.Wrap(err, "organization not found for slug",
			goerr.V("slug", slug))
	}

	remoteOrgID := org.RemoteOrgID
	if remoteOrgID == "" {
		owner, err := o.repo.GetUser(ctx, org.OwnerUserID)
		if err != nil {
			return goerr.Wrap(err, "owner not found for organization",
				goerr.V("orgID", org.ID))
		}

		remoteOrg, err := o.provisioner.EnsureRemoteOrg(ctx, owner.Subject, org.Slug, org.Name)
		if err != nil {
			return goerr.Wrap(err, "failed to ensure remote organization",
				goerr.V("slug", slug),
				goerr.T(apperr.ErrTagRemoteProvisioning))
		}

		org.RemoteOrgID = remoteOrg.ID
		if err := o.repo.SaveOrganization(ctx, org); err != nil {
			return goerr.Wrap(err, "failed to persist remote org link")
		}
		remoteOrgID = remoteOrg.ID
	}

	if err := o.provisioner.EnableLogin(ctx, remoteOrgID, o.connection); err != nil {
		return goerr.Wrap(err, "failed to enable login connection",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}

	return nil
}
