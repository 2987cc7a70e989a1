package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
	"github.com/whatthepack/whatthepack/pkg/utils/slugify"
)

// Maintenance implements the operator-facing actions behind the admin
// subcommands. Unlike the request path these run without an authenticated
// session; callers are trusted operators.
type Maintenance struct {
	repo        interfaces.Repository
	provisioner *idp.Provisioner
	connection  string
}

// NewMaintenance creates a new Maintenance use case. provisioner may be nil
// when no identity provider is configured; remote steps are then skipped.
func NewMaintenance(repo interfaces.Repository, provisioner *idp.Provisioner, connection string) *Maintenance {
	return &Maintenance{
		repo:        repo,
		provisioner: provisioner,
		connection:  connection,
	}
}

// ProvisionTenantInput describes a tenant to create manually
type ProvisionTenantInput struct {
	StoreName    string
	Slug         types.Slug
	OwnerSubject types.Subject
	OwnerEmail   string
}

// ProvisionTenant creates a tenant on behalf of an operator. When Slug is
// empty one is derived from the store name, suffixed until unique.
func (m *Maintenance) ProvisionTenant(ctx context.Context, input ProvisionTenantInput) (*OnboardingResult, error) {
	if input.StoreName == "" {
		return nil, goerr.New("store name is required",
			goerr.T(apperr.ErrTagValidation))
	}
	if input.OwnerSubject == "" {
		return nil, goerr.New("owner subject is required",
			goerr.T(apperr.ErrTagValidation))
	}

	slug := input.Slug
	if slug == "" {
		var err error
		slug, err = slugify.GenerateUnique(ctx, m.slugExists, slugify.Normalize(input.StoreName))
		if err != nil {
			return nil, err
		}
	} else if !slug.IsValid() {
		return nil, goerr.New("slug must match [a-z0-9-]{3,48}",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagValidation))
	}

	user, err := m.repo.GetUserBySubject(ctx, input.OwnerSubject)
	if err != nil {
		if !goerr.HasTag(err, apperr.ErrTagNotFound) {
			return nil, goerr.Wrap(err, "failed to look up owner")
		}
		user = model.NewUser(input.OwnerSubject, "", input.OwnerEmail, types.RoleOwner)
		if err := m.repo.SaveUser(ctx, user); err != nil {
			return nil, goerr.Wrap(err, "failed to save owner user")
		}
	} else if user.HasOrganization() {
		return nil, goerr.New("owner already belongs to an organization",
			goerr.V("subject", input.OwnerSubject),
			goerr.T(apperr.ErrTagAlreadyOnboarded))
	}

	org := model.NewOrganization(slug, input.StoreName, user.ID)
	org.OnboardingCompleted = true
	if err := m.repo.SaveOrganization(ctx, org); err != nil {
		return nil, goerr.Wrap(err, "failed to save organization")
	}

	user.OrgID = org.ID
	if err := m.repo.SaveUser(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to link owner to organization")
	}

	result := &OnboardingResult{OrgID: org.ID, Slug: slug, UserID: user.ID}

	if m.provisioner != nil {
		remoteOrg, err := m.provisioner.EnsureRemoteOrg(ctx, input.OwnerSubject, slug, input.StoreName)
		if err != nil {
			apperr.Handle(ctx, err)
			return result, nil
		}

		if err := m.provisioner.AttachOwner(ctx, remoteOrg.ID, input.OwnerSubject); err != nil {
			apperr.Handle(ctx, err)
		}
		if err := m.provisioner.EnableLogin(ctx, remoteOrg.ID, m.connection); err != nil {
			apperr.Handle(ctx, err)
		}

		org.RemoteOrgID = remoteOrg.ID
		if err := m.repo.SaveOrganization(ctx, org); err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "failed to persist remote org link"))
		} else {
			result.RemoteOrgID = remoteOrg.ID
		}
	}

	return result, nil
}

func (m *Maintenance) slugExists(ctx context.Context, slug types.Slug) (bool, error) {
	_, err := m.repo.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		if goerr.HasTag(err, apperr.ErrTagNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FixOrgLink repairs a tenant whose remote organization link is missing:
// it re-runs the remote lookup chain and persists the id
func (m *Maintenance) FixOrgLink(ctx context.Context, slug types.Slug) (types.RemoteOrgID, error) {
	if m.provisioner == nil {
		return "", goerr.New("no identity provider configured",
			goerr.T(apperr.ErrTagValidation))
	}

	org, err := m.repo.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return "", goerr.Wrap(err, "organization not found",
			goerr.V("slug", slug))
	}
	if org.RemoteOrgID != "" {
		return org.RemoteOrgID, nil
	}

	owner, err := m.repo.GetUser(ctx, org.OwnerUserID)
	if err != nil {
		return "", goerr.Wrap(err, "owner not found",
			goerr.V("orgID", org.ID))
	}

	remoteOrg, err := m.provisioner.EnsureRemoteOrg(ctx, owner.Subject, org.Slug, org.Name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve remote organization",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagRemoteProvisioning))
	}

	org.RemoteOrgID = remoteOrg.ID
	if err := m.repo.SaveOrganization(ctx, org); err != nil {
		return "", goerr.Wrap(err, "failed to persist remote org link")
	}

	ctxlog.From(ctx).Info("Remote org link repaired",
		"slug", slug,
		"remoteOrgID", remoteOrg.ID,
	)
	return remoteOrg.ID, nil
}

// demoProducts seeds a plausible starting catalog when no seed file is given
var demoProducts = []model.SeedProduct{
	{Name: "Rose Bouquet", SKU: "ROSE-01", Price: 150000, Cost: 90000, Stock: 20},
	{Name: "Tulip Box", SKU: "TULIP-01", Price: 120000, Cost: 70000, Stock: 15},
	{Name: "Sunflower Bundle", SKU: "SUN-01", Price: 80000, Cost: 40000, Stock: 25},
	{Name: "Orchid Pot", SKU: "ORCH-01", Price: 250000, Cost: 160000, Stock: 8},
	{Name: "Mixed Basket", SKU: "MIX-01", Price: 200000, Cost: 120000, Stock: 4},
}

// SeedDemo fills a tenant's catalog with the given products, falling back to
// the built-in demo catalog when products is empty. Seeding an
// already-populated catalog is an error.
func (m *Maintenance) SeedDemo(ctx context.Context, slug types.Slug, products []model.SeedProduct) ([]*model.Product, error) {
	org, err := m.repo.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return nil, goerr.Wrap(err, "organization not found",
			goerr.V("slug", slug))
	}

	existing, err := m.repo.ListProductsByOrg(ctx, org.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check existing catalog")
	}
	if len(existing) > 0 {
		return nil, goerr.New("catalog already has products",
			goerr.V("slug", slug),
			goerr.V("count", len(existing)),
			goerr.T(apperr.ErrTagValidation))
	}

	if len(products) == 0 {
		products = demoProducts
	}

	seeded := make([]*model.Product, 0, len(products))
	for _, d := range products {
		product := model.NewProduct(org.ID, d.Name, d.SKU, d.Price, d.Cost, d.Stock)
		if err := m.repo.SaveProduct(ctx, product); err != nil {
			return nil, goerr.Wrap(err, "failed to seed product",
				goerr.V("name", d.Name))
		}
		seeded = append(seeded, product)
	}

	return seeded, nil
}

// ResendVerification asks the identity provider for a fresh verification
// email. The subject must already exist locally so operators cannot trigger
// mail for arbitrary remote users.
func (m *Maintenance) ResendVerification(ctx context.Context, subject types.Subject) error {
	if m.provisioner == nil {
		return goerr.New("no identity provider configured",
			goerr.T(apperr.ErrTagValidation))
	}

	if _, err := m.repo.GetUserBySubject(ctx, subject); err != nil {
		return goerr.Wrap(err, "user not found",
			goerr.V("subject", subject))
	}

	return m.provisioner.ResendVerification(ctx, subject)
}

// OrderStats summarizes a tenant's orders over a window
type OrderStats struct {
	Slug       types.Slug `json:"slug"`
	Since      time.Time  `json:"since"`
	OrderCount int        `json:"order_count"`
	Revenue    int64      `json:"revenue"`
	Cost       int64      `json:"cost"`
	Profit     int64      `json:"profit"`
	Cancelled  int        `json:"cancelled"`
}

// ComputeOrderStats counts and totals a tenant's orders created since the
// given time. Cancelled orders are counted separately and excluded from the
// money totals.
func (m *Maintenance) ComputeOrderStats(ctx context.Context, slug types.Slug, since time.Time) (*OrderStats, error) {
	org, err := m.repo.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return nil, goerr.Wrap(err, "organization not found",
			goerr.V("slug", slug))
	}

	orders, err := m.repo.ListOrdersSince(ctx, org.ID, since)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list orders")
	}

	stats := &OrderStats{Slug: slug, Since: since}
	for _, order := range orders {
		if order.Status == types.OrderStatusCancelled {
			stats.Cancelled++
			continue
		}
		stats.OrderCount++
		stats.Revenue += order.Revenue
		stats.Cost += order.Cost
	}
	stats.Profit = stats.Revenue - stats.Cost

	return stats, nil
}

// PurgeOrders deletes every order of a tenant. Destructive: refuses to run
// unless confirm is set.
func (m *Maintenance) PurgeOrders(ctx context.Context, slug types.Slug, confirm bool) (int, error) {
	if !confirm {
		return 0, goerr.New("purge requires explicit confirmation",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagValidation))
	}

	org, err := m.repo.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return 0, goerr.Wrap(err, "organization not found",
			goerr.V("slug", slug))
	}

	deleted, err := m.repo.DeleteOrdersByOrg(ctx, org.ID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to purge orders")
	}

	ctxlog.From(ctx).Info("Orders purged",
		"slug", slug,
		"deleted", deleted,
	)
	return deleted, nil
}
