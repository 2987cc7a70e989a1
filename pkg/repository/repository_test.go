package repository_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/repository"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

func uniqueSlug(prefix string) types.Slug {
	return types.Slug(fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()))
}

func testRepository(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Run("SaveAndGetOrganization", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		org := model.NewOrganization(uniqueSlug("acme"), "Acme Store", types.NewUserID())

		err := repo.SaveOrganization(ctx, org)
		gt.NoError(t, err)

		retrieved, err := repo.GetOrganization(ctx, org.ID)
		gt.NoError(t, err)
		gt.Equal(t, org.ID, retrieved.ID)
		gt.Equal(t, org.Slug, retrieved.Slug)
		gt.Equal(t, org.Name, retrieved.Name)
		gt.Equal(t, org.OwnerUserID, retrieved.OwnerUserID)
		gt.False(t, retrieved.OnboardingCompleted)
		gt.True(t, retrieved.Active)

		bySlug, err := repo.GetOrganizationBySlug(ctx, org.Slug)
		gt.NoError(t, err)
		gt.Equal(t, org.ID, bySlug.ID)
	})

	t.Run("GetOrganization_NotFound", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		_, err := repo.GetOrganization(ctx, types.NewOrgID())
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagNotFound))

		_, err = repo.GetOrganizationBySlug(ctx, uniqueSlug("missing"))
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagNotFound))
	})

	t.Run("SlugUniqueness", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		slug := uniqueSlug("dup")

		first := model.NewOrganization(slug, "First", types.NewUserID())
		gt.NoError(t, repo.SaveOrganization(ctx, first))

		second := model.NewOrganization(slug, "Second", types.NewUserID())
		err := repo.SaveOrganization(ctx, second)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagSlugTaken))

		// Re-saving the same organization under its own slug is fine
		first.Name = "First Renamed"
		gt.NoError(t, repo.SaveOrganization(ctx, first))
	})

	t.Run("SaveAndGetUser", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		subject := types.Subject(fmt.Sprintf("auth0|%d", time.Now().UnixNano()))
		user := model.NewUser(subject, "Owner", "owner@example.com", types.RoleOwner)

		gt.NoError(t, repo.SaveUser(ctx, user))

		retrieved, err := repo.GetUser(ctx, user.ID)
		gt.NoError(t, err)
		gt.Equal(t, user.ID, retrieved.ID)
		gt.Equal(t, user.Subject, retrieved.Subject)
		gt.Equal(t, user.Role, retrieved.Role)

		bySubject, err := repo.GetUserBySubject(ctx, subject)
		gt.NoError(t, err)
		gt.Equal(t, user.ID, bySubject.ID)
	})

	t.Run("ListUsersByOrg", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		orgID := types.NewOrgID()

		for i := 0; i < 3; i++ {
			subject := types.Subject(fmt.Sprintf("auth0|member-%d-%d", time.Now().UnixNano(), i))
			user := model.NewUser(subject, fmt.Sprintf("Member %d", i), "m@example.com", types.RolePacker)
			user.OrgID = orgID
			gt.NoError(t, repo.SaveUser(ctx, user))
		}

		// One user in a different org must not appear
		other := model.NewUser(types.Subject(fmt.Sprintf("auth0|other-%d", time.Now().UnixNano())), "Other", "o@example.com", types.RoleOwner)
		other.OrgID = types.NewOrgID()
		gt.NoError(t, repo.SaveUser(ctx, other))

		users, err := repo.ListUsersByOrg(ctx, orgID)
		gt.NoError(t, err)
		gt.Equal(t, 3, len(users))
	})

	t.Run("SessionLifecycle", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		session, err := model.NewSession(types.NewUserID(), 24*time.Hour)
		gt.NoError(t, err)

		gt.NoError(t, repo.SaveSession(ctx, session))

		retrieved, err := repo.GetSession(ctx, session.ID)
		gt.NoError(t, err)
		gt.Equal(t, session.ID, retrieved.ID)
		gt.Equal(t, session.Secret, retrieved.Secret)
		gt.Equal(t, session.UserID, retrieved.UserID)

		gt.NoError(t, repo.DeleteSession(ctx, session.ID))

		_, err = repo.GetSession(ctx, session.ID)
		gt.Error(t, err)
	})

	t.Run("SaveAndListProducts", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		orgID := types.NewOrgID()

		p1 := model.NewProduct(orgID, "Rose Bouquet", "SKU-001", 15000, 8000, 10)
		p2 := model.NewProduct(orgID, "Tulip Bundle", "SKU-002", 12000, 6000, 3)
		gt.NoError(t, repo.SaveProduct(ctx, p1))
		gt.NoError(t, repo.SaveProduct(ctx, p2))

		retrieved, err := repo.GetProduct(ctx, orgID, p1.ID)
		gt.NoError(t, err)
		gt.Equal(t, p1.Name, retrieved.Name)
		gt.Equal(t, p1.Price, retrieved.Price)

		products, err := repo.ListProductsByOrg(ctx, orgID)
		gt.NoError(t, err)
		gt.Equal(t, 2, len(products))
	})

	t.Run("OrderLifecycle", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		orgID := types.NewOrgID()
		userID := types.NewUserID()

		items := []model.OrderItem{
			{ProductID: types.NewProductID(), Name: "Rose Bouquet", Quantity: 2, UnitPrice: 15000, UnitCost: 8000},
		}
		order := model.NewOrder(orgID, "Jane Customer", items, userID)
		gt.NoError(t, repo.SaveOrder(ctx, order))

		retrieved, err := repo.GetOrder(ctx, orgID, order.ID)
		gt.NoError(t, err)
		gt.Equal(t, order.CustomerName, retrieved.CustomerName)
		gt.Equal(t, int64(30000), retrieved.Revenue)
		gt.Equal(t, int64(16000), retrieved.Cost)
		gt.Equal(t, types.OrderStatusNew, retrieved.Status)
	})

	t.Run("ListOrdersByStatus", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		orgID := types.NewOrgID()
		userID := types.NewUserID()

		for i := 0; i < 5; i++ {
			order := model.NewOrder(orgID, fmt.Sprintf("Customer %d", i), nil, userID)
			order.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
			if i%2 == 0 {
				order.Status = types.OrderStatusPacked
			}
			gt.NoError(t, repo.SaveOrder(ctx, order))
		}

		packed, err := repo.ListOrdersByStatus(ctx, orgID, types.OrderStatusPacked, 0)
		gt.NoError(t, err)
		gt.Equal(t, 3, len(packed))

		// Newest first
		for i := 0; i < len(packed)-1; i++ {
			gt.True(t, packed[i].CreatedAt.After(packed[i+1].CreatedAt))
		}

		limited, err := repo.ListOrdersByStatus(ctx, orgID, types.OrderStatusPacked, 2)
		gt.NoError(t, err)
		gt.Equal(t, 2, len(limited))
	})

	t.Run("ListOrdersSince", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		orgID := types.NewOrgID()
		userID := types.NewUserID()
		base := time.Now()

		for i := 0; i < 4; i++ {
			order := model.NewOrder(orgID, fmt.Sprintf("Customer %d", i), nil, userID)
			order.CreatedAt = base.Add(time.Duration(i-2) * time.Hour)
			gt.NoError(t, repo.SaveOrder(ctx, order))
		}

		recent, err := repo.ListOrdersSince(ctx, orgID, base.Add(-time.Minute))
		gt.NoError(t, err)
		gt.Equal(t, 2, len(recent))

		// Oldest first
		for i := 0; i < len(recent)-1; i++ {
			gt.True(t, recent[i].CreatedAt.Before(recent[i+1].CreatedAt))
		}
	})

	t.Run("DeleteOrdersByOrg", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		orgID := types.NewOrgID()
		userID := types.NewUserID()

		for i := 0; i < 3; i++ {
			order := model.NewOrder(orgID, fmt.Sprintf("Customer %d", i), nil, userID)
			gt.NoError(t, repo.SaveOrder(ctx, order))
		}

		deleted, err := repo.DeleteOrdersByOrg(ctx, orgID)
		gt.NoError(t, err)
		gt.Equal(t, 3, deleted)

		remaining, err := repo.ListOrdersByStatus(ctx, orgID, types.OrderStatusNew, 0)
		gt.NoError(t, err)
		gt.Equal(t, 0, len(remaining))
	})
}

func TestMemoryRepository(t *testing.T) {
	testRepository(t, func(t *testing.T) interfaces.Repository {
		return repository.NewMemory()
	})
}

func TestFirestoreRepository(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE")

	if projectID == "" || databaseID == "" {
		t.Skip("Skipping Firestore test: TEST_FIRESTORE_PROJECT and TEST_FIRESTORE_DATABASE must be set")
	}

	testRepository(t, func(t *testing.T) interfaces.Repository {
		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		ctx = ctxlog.With(ctx, logger)

		repo, err := repository.NewFirestore(ctx, projectID, databaseID)
		gt.NoError(t, err)
		return repo
	})
}

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	database := os.Getenv("TEST_MONGO_DATABASE")

	if uri == "" || database == "" {
		t.Skip("Skipping MongoDB test: TEST_MONGO_URI and TEST_MONGO_DATABASE must be set")
	}

	testRepository(t, func(t *testing.T) interfaces.Repository {
		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		ctx = ctxlog.With(ctx, logger)

		repo, err := repository.NewMongo(ctx, uri, database)
		gt.NoError(t, err)
		return repo
	})
}
