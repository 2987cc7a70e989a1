package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/ratelimit"
	"github.com/whatthepack/whatthepack/pkg/utils/subdomain"
)

// loginGuardWindow is how long after triggering an identity-provider login
// a second trigger for the same caller is suppressed
const loginGuardWindow = 120 * time.Second

// NavInput is everything the routing state machine looks at. It is plain
// data so Decide stays a pure function of its argument.
type NavInput struct {
	// Subdomain is the tenant label from the hostname; empty when the
	// request hit the platform root
	Subdomain types.Slug
	// SubdomainOrg is the lookup result for Subdomain
	SubdomainOrg model.OrgLookup
	// Authenticated reports whether the caller has a valid session
	Authenticated bool
	// User is the caller's user record when authenticated; nil while the
	// lookup is pending or when unauthenticated
	User *model.User
	// UserOrg is the lookup result for the caller's own organization
	UserOrg model.OrgLookup
	// Path is the request path, preserved across subdomain redirects
	Path string
	// BaseDomain builds the canonical URL for wrong-subdomain redirects
	BaseDomain string
	// LoginAllowed gates the login outcome through the dedup guard; when
	// false a would-be login renders the loading state instead
	LoginAllowed bool
}

// Decide implements the tenant routing table. It is pure: all lookups happen
// before the call and arrive as tri-state values.
func Decide(in NavInput) *model.Navigation {
	if in.Subdomain == "" {
		return &model.Navigation{Outcome: model.NavMarketing}
	}

	switch in.SubdomainOrg.State {
	case model.LookupNotFound:
		return &model.Navigation{Outcome: model.NavOrgNotFound}
	case model.LookupFound:
	default:
		// Zero-value and loading lookups both render the loading state
		return &model.Navigation{Outcome: model.NavLoading}
	}
	subdomainOrg := in.SubdomainOrg.Org

	if !in.Authenticated {
		if !in.LoginAllowed {
			return &model.Navigation{Outcome: model.NavLoading}
		}
		return &model.Navigation{
			Outcome:     model.NavLogin,
			RemoteOrgID: subdomainOrg.RemoteOrgID,
		}
	}

	if in.UserOrg.State == model.LookupLoading {
		return &model.Navigation{Outcome: model.NavLoading}
	}

	if in.UserOrg.State == model.LookupFound {
		userOrg := in.UserOrg.Org
		if userOrg.Slug != in.Subdomain {
			return &model.Navigation{
				Outcome:     model.NavRedirect,
				RedirectURL: "https://" + userOrg.Slug.String() + "." + in.BaseDomain + in.Path,
			}
		}
		if !userOrg.OnboardingCompleted {
			return &model.Navigation{Outcome: model.NavOnboarding}
		}
		return &model.Navigation{Outcome: model.NavDashboard}
	}

	// Authenticated but no organization yet
	if in.User != nil && in.User.Role == types.RoleOwner {
		return &model.Navigation{Outcome: model.NavOnboarding}
	}
	return &model.Navigation{Outcome: model.NavPendingRole}
}

// TenantNav implements NavigationUseCase on top of the repository and the
// hostname resolver
type TenantNav struct {
	repo       interfaces.Repository
	resolver   *subdomain.Resolver
	loginGuard *ratelimit.Limiter
}

// NewTenantNav creates a new TenantNav use case
func NewTenantNav(repo interfaces.Repository, resolver *subdomain.Resolver) *TenantNav {
	return &TenantNav{
		repo:       repo,
		resolver:   resolver,
		loginGuard: ratelimit.New(loginGuardWindow, 1),
	}
}

var _ NavigationUseCase = (*TenantNav)(nil)

// Navigate resolves the tenant from the host header, performs the org and
// user lookups, and runs the routing table. Server-side lookups always
// complete, so the loading states of the table only arise through the login
// dedup guard here.
func (n *TenantNav) Navigate(ctx context.Context, host, path string) (*model.Navigation, error) {
	in := NavInput{
		Path:       path,
		BaseDomain: n.resolver.BaseDomain,
	}

	if slug, ok := n.resolver.Resolve(host); ok {
		in.Subdomain = slug

		org, err := n.repo.GetOrganizationBySlug(ctx, slug)
		if err != nil {
			in.SubdomainOrg = model.OrgNotFound()
		} else {
			in.SubdomainOrg = model.OrgFound(org)
		}
	}

	authCtx, _ := model.GetAuthContext(ctx)
	if authCtx.IsAuthenticated() {
		in.Authenticated = true

		user, err := n.repo.GetUserBySubject(ctx, authCtx.Subject)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load user for navigation",
				goerr.V("subject", authCtx.Subject))
		}
		in.User = user

		if user.HasOrganization() {
			org, err := n.repo.GetOrganization(ctx, user.OrgID)
			if err != nil {
				in.UserOrg = model.OrgNotFound()
			} else {
				in.UserOrg = model.OrgFound(org)
			}
		} else {
			in.UserOrg = model.OrgNotFound()
		}
	} else {
		// One login trigger per guard window per tenant+client
		guardKey := "login:" + in.Subdomain.String() + ":" + clientKey(ctx)
		in.LoginAllowed = n.loginGuard.Allow(guardKey)
	}

	return Decide(in), nil
}

// clientKey identifies the unauthenticated caller for login dedup. The
// session ID cookie is present even before the session is validated.
func clientKey(ctx context.Context) string {
	if authCtx, ok := model.GetAuthContext(ctx); ok && authCtx.SessionID != "" {
		return authCtx.SessionID.String()
	}
	return "anonymous"
}
