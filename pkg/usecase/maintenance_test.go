package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/repository"
	"github.com/whatthepack/whatthepack/pkg/service/idp"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

func TestProvisionTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("derives a slug from the store name", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, idp.NewProvisioner(happyIdP()), "store-users")

		result, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName:    "Bunga Mawar!",
			OwnerSubject: "auth0|owner",
			OwnerEmail:   "owner@example.com",
		})
		gt.NoError(t, err)
		gt.Equal(t, types.Slug("bunga-mawar"), result.Slug)
		gt.Equal(t, types.RemoteOrgID("org_remote"), result.RemoteOrgID)

		org, err := repo.GetOrganizationBySlug(ctx, "bunga-mawar")
		gt.NoError(t, err)
		gt.True(t, org.OnboardingCompleted)
	})

	t.Run("suffixes a taken slug", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, idp.NewProvisioner(happyIdP()), "store-users")

		_, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Bunga Mawar", OwnerSubject: "auth0|one",
		})
		gt.NoError(t, err)

		result, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Bunga Mawar", OwnerSubject: "auth0|two",
		})
		gt.NoError(t, err)
		gt.Equal(t, types.Slug("bunga-mawar-2"), result.Slug)
	})

	t.Run("works without an identity provider", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, nil, "")

		result, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Offline Store", OwnerSubject: "auth0|owner",
		})
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID(""), result.RemoteOrgID)
	})

	t.Run("existing owner with org rejected", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, nil, "")

		_, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "First", OwnerSubject: "auth0|owner",
		})
		gt.NoError(t, err)

		_, err = uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Second", OwnerSubject: "auth0|owner",
		})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagAlreadyOnboarded))
	})
}

func TestFixOrgLink(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs and persists the link", func(t *testing.T) {
		repo := repository.NewMemory()
		broken := usecase.NewMaintenance(repo, nil, "")
		_, err := broken.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Bunga Mawar", OwnerSubject: "auth0|owner",
		})
		gt.NoError(t, err)

		uc := usecase.NewMaintenance(repo, idp.NewProvisioner(happyIdP()), "store-users")
		remoteID, err := uc.FixOrgLink(ctx, "bunga-mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID("org_remote"), remoteID)

		org, err := repo.GetOrganizationBySlug(ctx, "bunga-mawar")
		gt.NoError(t, err)
		gt.Equal(t, types.RemoteOrgID("org_remote"), org.RemoteOrgID)

		// Already linked: returns the existing id without remote calls
		again, err := usecase.NewMaintenance(repo, idp.NewProvisioner(brokenIdP()), "store-users").FixOrgLink(ctx, "bunga-mawar")
		gt.NoError(t, err)
		gt.Equal(t, remoteID, again)
	})

	t.Run("unknown slug", func(t *testing.T) {
		uc := usecase.NewMaintenance(repository.NewMemory(), idp.NewProvisioner(happyIdP()), "store-users")
		_, err := uc.FixOrgLink(ctx, "ghost-store")
		gt.Error(t, err)
	})
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()

	t.Run("built-in catalog", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, nil, "")

		_, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Bunga Mawar", OwnerSubject: "auth0|owner",
		})
		gt.NoError(t, err)

		seeded, err := uc.SeedDemo(ctx, "bunga-mawar", nil)
		gt.NoError(t, err)
		gt.True(t, len(seeded) > 0)

		// Refuses to seed twice
		_, err = uc.SeedDemo(ctx, "bunga-mawar", nil)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagValidation))
	})

	t.Run("custom seed products", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, nil, "")

		_, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Toko Kue", OwnerSubject: "auth0|baker",
		})
		gt.NoError(t, err)

		seeded, err := uc.SeedDemo(ctx, "toko-kue", []model.SeedProduct{
			{Name: "Lapis Legit", SKU: "CAKE-01", Price: 250000, Cost: 140000, Stock: 8},
		})
		gt.NoError(t, err)
		gt.Equal(t, 1, len(seeded))
		gt.Equal(t, "Lapis Legit", seeded[0].Name)
		gt.Equal(t, int64(250000), seeded[0].Price)
	})
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("resends for a known user", func(t *testing.T) {
		repo := repository.NewMemory()
		provider := happyIdP()
		var resent []types.Subject
		provider.ResendVerificationEmailFunc = func(ctx context.Context, s types.Subject) error {
			resent = append(resent, s)
			return nil
		}
		uc := usecase.NewMaintenance(repo, idp.NewProvisioner(provider), "store-users")

		_, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Bunga Mawar", OwnerSubject: "auth0|owner",
		})
		gt.NoError(t, err)

		gt.NoError(t, uc.ResendVerification(ctx, "auth0|owner"))
		gt.Equal(t, []types.Subject{"auth0|owner"}, resent)
	})

	t.Run("unknown subject", func(t *testing.T) {
		uc := usecase.NewMaintenance(repository.NewMemory(), idp.NewProvisioner(happyIdP()), "store-users")
		gt.Error(t, uc.ResendVerification(ctx, "auth0|ghost"))
	})

	t.Run("no identity provider", func(t *testing.T) {
		repo := repository.NewMemory()
		uc := usecase.NewMaintenance(repo, nil, "")
		_, err := uc.ProvisionTenant(ctx, usecase.ProvisionTenantInput{
			StoreName: "Offline", OwnerSubject: "auth0|owner",
		})
		gt.NoError(t, err)

		err = uc.ResendVerification(ctx, "auth0|owner")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagValidation))
	})
}

func TestOrderStatsAndPurge(t *testing.T) {
	ctx := context.Background()
	tt := newTestTenant(t)
	orders := usecase.NewOrders(tt.repo, nil)
	uc := usecase.NewMaintenance(tt.repo, nil, "")

	for i := 0; i < 3; i++ {
		_, err := orders.CreateOrder(tt.admin, usecase.CreateOrderInput{
			CustomerName: "Customer",
			Items:        []usecase.CreateOrderItemInput{{ProductID: tt.product.ID, Quantity: 1}},
		})
		gt.NoError(t, err)
	}
	cancelled, err := orders.CreateOrder(tt.admin, usecase.CreateOrderInput{
		CustomerName: "Customer",
		Items:        []usecase.CreateOrderItemInput{{ProductID: tt.product.ID, Quantity: 2}},
	})
	gt.NoError(t, err)
	_, err = orders.TransitionStatus(tt.admin, cancelled.ID, types.OrderStatusCancelled)
	gt.NoError(t, err)

	t.Run("stats exclude cancelled from totals", func(t *testing.T) {
		stats, err := uc.ComputeOrderStats(ctx, tt.org.Slug, time.Now().Add(-time.Hour))
		gt.NoError(t, err)
		gt.Equal(t, 3, stats.OrderCount)
		gt.Equal(t, 1, stats.Cancelled)
		gt.Equal(t, int64(3000), stats.Revenue)
		gt.Equal(t, int64(1200), stats.Profit)
	})

	t.Run("purge requires confirmation", func(t *testing.T) {
		_, err := uc.PurgeOrders(ctx, tt.org.Slug, false)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagValidation))

		deleted, err := uc.PurgeOrders(ctx, tt.org.Slug, true)
		gt.NoError(t, err)
		gt.Equal(t, 4, deleted)

		stats, err := uc.ComputeOrderStats(ctx, tt.org.Slug, time.Now().Add(-time.Hour))
		gt.NoError(t, err)
		gt.Equal(t, 0, stats.OrderCount)
	})
}
