package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces/mocks"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/repository"
	"github.com/whatthepack/whatthepack/pkg/service/llm"
	"github.com/whatthepack/whatthepack/pkg/usecase"
)

// seedBriefingData creates an org with products and orders: two orders today
// and one yesterday, plus one cancelled today.
func seedBriefingData(t *testing.T, repo interfaces.Repository, now time.Time) *model.Organization {
	t.Helper()
	ctx := context.Background()

	owner := model.NewUser("auth0|owner", "Owner", "owner@example.com", types.RoleOwner)
	gt.NoError(t, repo.SaveUser(ctx, owner))

	org := model.NewOrganization("bunga-mawar", "Bunga Mawar", owner.ID)
	org.OnboardingCompleted = true
	gt.NoError(t, repo.SaveOrganization(ctx, org))
	owner.OrgID = org.ID
	gt.NoError(t, repo.SaveUser(ctx, owner))

	rose := model.NewProduct(org.ID, "Rose Bouquet", "ROSE-01", 1000, 600, 2)
	tulip := model.NewProduct(org.ID, "Tulip Box", "TULIP-01", 500, 300, 50)
	gt.NoError(t, repo.SaveProduct(ctx, rose))
	gt.NoError(t, repo.SaveProduct(ctx, tulip))

	mkOrder := func(created time.Time, status types.OrderStatus, items []model.OrderItem) {
		order := model.NewOrder(org.ID, "Customer", items, owner.ID)
		order.CreatedAt = created
		order.Status = status
		gt.NoError(t, repo.SaveOrder(ctx, order))
	}

	// Today: 2 roses + 1 tulip, and 1 tulip
	mkOrder(now.Add(-1*time.Hour), types.OrderStatusNew, []model.OrderItem{
		{ProductID: rose.ID, Name: rose.Name, Quantity: 2, UnitPrice: 1000, UnitCost: 600},
		{ProductID: tulip.ID, Name: tulip.Name, Quantity: 1, UnitPrice: 500, UnitCost: 300},
	})
	mkOrder(now.Add(-2*time.Hour), types.OrderStatusPacked, []model.OrderItem{
		{ProductID: tulip.ID, Name: tulip.Name, Quantity: 1, UnitPrice: 500, UnitCost: 300},
	})
	// Cancelled today: excluded everywhere
	mkOrder(now.Add(-3*time.Hour), types.OrderStatusCancelled, []model.OrderItem{
		{ProductID: rose.ID, Name: rose.Name, Quantity: 10, UnitPrice: 1000, UnitCost: 600},
	})
	// Yesterday: trailing history, profit 700
	mkOrder(now.Add(-30*time.Hour), types.OrderStatusDelivered, []model.OrderItem{
		{ProductID: rose.ID, Name: rose.Name, Quantity: 1, UnitPrice: 1000, UnitCost: 300},
	})

	return org
}

func TestBriefingAssemble(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

	t.Run("aggregates today's orders", func(t *testing.T) {
		repo := repository.NewMemory()
		org := seedBriefingData(t, repo, now)
		uc := usecase.NewBriefing(repo, nil, nil, 5)

		briefing, err := uc.Assemble(ctx, org.ID, now)
		gt.NoError(t, err)

		gt.Equal(t, "Bunga Mawar", briefing.StoreName)
		gt.Equal(t, 2, briefing.OrderCount)
		gt.Equal(t, int64(3000), briefing.Revenue)
		gt.Equal(t, int64(1800), briefing.Cost)
		gt.Equal(t, int64(1200), briefing.Profit)

		// Trailing profit 700 over 7 days -> avg 100; (1200-100)/100*100 = 1100%
		gt.Equal(t, float64(1100), briefing.TrendPercent)

		// Rose (stock 2) is low, tulip (stock 50) is not
		gt.Equal(t, 1, len(briefing.LowStock))
		gt.Equal(t, "Rose Bouquet", briefing.LowStock[0].Name)

		// Rose revenue 2000 beats tulip 1000
		gt.Equal(t, 2, len(briefing.TopProducts))
		gt.Equal(t, "Rose Bouquet", briefing.TopProducts[0].Name)
		gt.Equal(t, int64(2000), briefing.TopProducts[0].Revenue)
		gt.Equal(t, 2, briefing.TopProducts[0].Quantity)
	})

	t.Run("trend is zero without history", func(t *testing.T) {
		repo := repository.NewMemory()
		owner := model.NewUser("auth0|owner", "Owner", "owner@example.com", types.RoleOwner)
		gt.NoError(t, repo.SaveUser(ctx, owner))
		org := model.NewOrganization("fresh-store", "Fresh Store", owner.ID)
		gt.NoError(t, repo.SaveOrganization(ctx, org))

		uc := usecase.NewBriefing(repo, nil, nil, 5)
		briefing, err := uc.Assemble(ctx, org.ID, now)
		gt.NoError(t, err)
		gt.Equal(t, float64(0), briefing.TrendPercent)
		gt.Equal(t, 0, briefing.OrderCount)
	})

	t.Run("unknown org is an error", func(t *testing.T) {
		uc := usecase.NewBriefing(repository.NewMemory(), nil, nil, 5)
		_, err := uc.Assemble(ctx, types.OrgID("missing"), now)
		gt.Error(t, err)
	})
}

func TestFormatFallback(t *testing.T) {
	t.Run("empty briefing renders all totals and no sections", func(t *testing.T) {
		text := usecase.FormatFallback(&model.Briefing{StoreName: "Fresh Store"})
		gt.True(t, strings.Contains(text, "Fresh Store"))
		gt.True(t, strings.Contains(text, "Orders today: 0"))
		gt.True(t, strings.Contains(text, "Trend vs 7-day average: +0.0%"))
		gt.False(t, strings.Contains(text, "Low stock"))
		gt.False(t, strings.Contains(text, "Top products"))
	})

	t.Run("sections appear when populated", func(t *testing.T) {
		text := usecase.FormatFallback(&model.Briefing{
			StoreName: "Bunga Mawar",
			LowStock:  []model.Product{{Name: "Rose Bouquet", Stock: 2}},
			TopProducts: []model.ProductSales{
				{Name: "Rose Bouquet", Quantity: 2, Revenue: 2000},
			},
		})
		gt.True(t, strings.Contains(text, "Low stock:"))
		gt.True(t, strings.Contains(text, "- Rose Bouquet: 2 left"))
		gt.True(t, strings.Contains(text, "Top products:"))
		gt.True(t, strings.Contains(text, "2 sold, revenue 2000"))
	})
}

func TestBriefingRender(t *testing.T) {
	ctx := context.Background()
	briefing := &model.Briefing{StoreName: "Bunga Mawar", OrderCount: 3}

	t.Run("prefers LLM prose", func(t *testing.T) {
		client := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mock.SessionMock{
					GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{Texts: []string{"Nice day at the shop."}}, nil
					},
				}, nil
			},
		}
		uc := usecase.NewBriefing(repository.NewMemory(), llm.NewService(client), nil, 5)
		gt.Equal(t, "Nice day at the shop.", uc.Render(ctx, briefing))
	})

	t.Run("falls back when the LLM fails", func(t *testing.T) {
		client := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return nil, goerr.New("model unavailable")
			},
		}
		uc := usecase.NewBriefing(repository.NewMemory(), llm.NewService(client), nil, 5)
		text := uc.Render(ctx, briefing)
		gt.True(t, strings.Contains(text, "Daily briefing for Bunga Mawar"))
	})

	t.Run("no LLM configured uses fallback", func(t *testing.T) {
		uc := usecase.NewBriefing(repository.NewMemory(), nil, nil, 5)
		text := uc.Render(ctx, briefing)
		gt.True(t, strings.Contains(text, "Orders today: 3"))
	})
}

func TestBriefingSend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

	t.Run("delivers to owner and admin only", func(t *testing.T) {
		repo := repository.NewMemory()
		org := seedBriefingData(t, repo, now)

		admin := model.NewUser("auth0|admin", "Admin", "admin@example.com", types.RoleAdmin)
		admin.OrgID = org.ID
		gt.NoError(t, repo.SaveUser(ctx, admin))
		packer := model.NewUser("auth0|packer", "Packer", "packer@example.com", types.RolePacker)
		packer.OrgID = org.ID
		gt.NoError(t, repo.SaveUser(ctx, packer))

		mailer := &mocks.MailerMock{}
		uc := usecase.NewBriefing(repo, nil, mailer, 5)

		gt.NoError(t, uc.Send(ctx, org.ID, now))

		sent := mailer.Sent()
		gt.Equal(t, 2, len(sent))
		recipients := map[string]bool{}
		for _, m := range sent {
			gt.Equal(t, 1, len(m.To))
			recipients[m.To[0]] = true
			gt.True(t, strings.Contains(m.Subject, "Bunga Mawar"))
		}
		gt.True(t, recipients["owner@example.com"])
		gt.True(t, recipients["admin@example.com"])
		gt.False(t, recipients["packer@example.com"])
	})

	t.Run("no recipients is an error", func(t *testing.T) {
		repo := repository.NewMemory()
		owner := model.NewUser("auth0|owner", "Owner", "", types.RoleOwner)
		gt.NoError(t, repo.SaveUser(ctx, owner))
		org := model.NewOrganization("quiet-store", "Quiet Store", owner.ID)
		gt.NoError(t, repo.SaveOrganization(ctx, org))
		owner.OrgID = org.ID
		gt.NoError(t, repo.SaveUser(ctx, owner))

		uc := usecase.NewBriefing(repo, nil, &mocks.MailerMock{}, 5)
		gt.Error(t, uc.Send(ctx, org.ID, now))
	})

	t.Run("failed delivery surfaces", func(t *testing.T) {
		repo := repository.NewMemory()
		org := seedBriefingData(t, repo, now)

		mailer := &mocks.MailerMock{
			SendFunc: func(ctx context.Context, mail *interfaces.Mail) error {
				return goerr.New("delivery refused")
			},
		}
		uc := usecase.NewBriefing(repo, nil, mailer, 5)
		gt.Error(t, uc.Send(ctx, org.ID, now))
	})
}
