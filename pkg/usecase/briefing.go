package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/email"
	"github.com/whatthepack/whatthepack/pkg/service/llm"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

const (
	// defaultLowStockThreshold flags products with this many units or fewer
	defaultLowStockThreshold = 5
	// topProductCount limits the top-products ranking
	topProductCount = 5
	// trendWindowDays is the trailing window the trend compares against
	trendWindowDays = 7
)

// Briefing implements BriefingUseCase: daily aggregates over orders and the
// product catalog, prose via the LLM with a deterministic fallback, and
// delivery to the store's owner and admin users.
type Briefing struct {
	repo              interfaces.Repository
	llm               *llm.Service
	mailer            interfaces.Mailer
	lowStockThreshold int
}

// NewBriefing creates a new Briefing use case. llmService and mailer may be
// nil: without an LLM the fallback formatter is used, without a mailer Send
// fails.
func NewBriefing(repo interfaces.Repository, llmService *llm.Service, mailer interfaces.Mailer, lowStockThreshold int) *Briefing {
	if lowStockThreshold <= 0 {
		lowStockThreshold = defaultLowStockThreshold
	}
	return &Briefing{
		repo:              repo,
		llm:               llmService,
		mailer:            mailer,
		lowStockThreshold: lowStockThreshold,
	}
}

var _ BriefingUseCase = (*Briefing)(nil)

// Assemble computes today's aggregates for the organization: totals over
// today's orders, the profit trend against the trailing 7-day daily average,
// the low-stock list, and the top products by revenue.
func (b *Briefing) Assemble(ctx context.Context, orgID types.OrgID, now time.Time) (*model.Briefing, error) {
	org, err := b.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "organization not found",
			goerr.V("orgID", orgID))
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowStart := startOfDay.AddDate(0, 0, -trendWindowDays)

	orders, err := b.repo.ListOrdersSince(ctx, orgID, windowStart)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list orders for briefing")
	}

	briefing := &model.Briefing{StoreName: org.Name}

	sales := map[types.ProductID]*model.ProductSales{}
	var trailingProfit int64
	for _, order := range orders {
		if order.Status == types.OrderStatusCancelled {
			continue
		}
		if order.CreatedAt.Before(startOfDay) {
			trailingProfit += order.Profit()
			continue
		}

		briefing.OrderCount++
		briefing.Revenue += order.Revenue
		briefing.Cost += order.Cost
		for _, item := range order.Items {
			s, ok := sales[item.ProductID]
			if !ok {
				s = &model.ProductSales{Name: item.Name}
				sales[item.ProductID] = s
			}
			s.Quantity += item.Quantity
			s.Revenue += item.UnitPrice * int64(item.Quantity)
		}
	}
	briefing.Profit = briefing.Revenue - briefing.Cost

	// Trend against the trailing daily average; 0 when there is no history
	avg := float64(trailingProfit) / float64(trendWindowDays)
	if avg != 0 {
		briefing.TrendPercent = (float64(briefing.Profit) - avg) / avg * 100
	}

	products, err := b.repo.ListProductsByOrg(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list products for briefing")
	}
	for _, p := range products {
		if p.Stock <= b.lowStockThreshold {
			briefing.LowStock = append(briefing.LowStock, *p)
		}
	}

	ranked := make([]model.ProductSales, 0, len(sales))
	for _, s := range sales {
		ranked = append(ranked, *s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topProductCount {
		ranked = ranked[:topProductCount]
	}
	briefing.TopProducts = ranked

	return briefing, nil
}

// Render produces the briefing text, preferring LLM prose and falling back
// to the deterministic formatter on any failure
func (b *Briefing) Render(ctx context.Context, briefing *model.Briefing) string {
	if b.llm != nil {
		prose, err := b.llm.GenerateBriefingProse(ctx, briefing)
		if err == nil {
			return prose
		}
		ctxlog.From(ctx).Warn("LLM briefing failed, using fallback formatter",
			"error", err)
	}
	return FormatFallback(briefing)
}

// Send assembles today's briefing and emails it to every owner and admin of
// the organization in one fan-out batch
func (b *Briefing) Send(ctx context.Context, orgID types.OrgID, now time.Time) error {
	if b.mailer == nil {
		return goerr.New("no mailer configured",
			goerr.T(apperr.ErrTagExternalService))
	}

	briefing, err := b.Assemble(ctx, orgID, now)
	if err != nil {
		return err
	}

	users, err := b.repo.ListUsersByOrg(ctx, orgID)
	if err != nil {
		return goerr.Wrap(err, "failed to list briefing recipients")
	}

	var recipients []string
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		if u.Role == types.RoleOwner || u.Role == types.RoleAdmin {
			recipients = append(recipients, u.Email)
		}
	}
	if len(recipients) == 0 {
		return goerr.New("organization has no briefing recipients",
			goerr.V("orgID", orgID),
			goerr.T(apperr.ErrTagValidation))
	}

	text := b.Render(ctx, briefing)
	mail := &interfaces.Mail{
		To:      recipients,
		Subject: fmt.Sprintf("Daily briefing for %s (%s)", briefing.StoreName, now.Format("2006-01-02")),
		Text:    text,
	}

	if err := email.SendToEach(ctx, b.mailer, mail); err != nil {
		return goerr.Wrap(err, "failed to deliver briefing",
			goerr.V("orgID", orgID),
			goerr.T(apperr.ErrTagExternalService))
	}

	ctxlog.From(ctx).Info("Briefing sent",
		"orgID", orgID,
		"recipients", len(recipients),
	)
	return nil
}

// FormatFallback renders a briefing as a fixed plain-text report. It is the
// deterministic path used when the LLM is unavailable and must stay valid
// for all-empty input: sections with nothing to say are omitted.
func FormatFallback(briefing *model.Briefing) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Daily briefing for %s\n\n", briefing.StoreName)
	fmt.Fprintf(&sb, "Orders today: %d\n", briefing.OrderCount)
	fmt.Fprintf(&sb, "Revenue: %d\n", briefing.Revenue)
	fmt.Fprintf(&sb, "Cost: %d\n", briefing.Cost)
	fmt.Fprintf(&sb, "Profit: %d\n", briefing.Profit)
	fmt.Fprintf(&sb, "Trend vs 7-day average: %+.1f%%\n", briefing.TrendPercent)

	if len(briefing.LowStock) > 0 {
		sb.WriteString("\nLow stock:\n")
		for _, p := range briefing.LowStock {
			fmt.Fprintf(&sb, "- %s: %d left\n", p.Name, p.Stock)
		}
	}

	if len(briefing.TopProducts) > 0 {
		sb.WriteString("\nTop products:\n")
		for _, s := range briefing.TopProducts {
			fmt.Fprintf(&sb, "- %s: %d sold, revenue %d\n", s.Name, s.Quantity, s.Revenue)
		}
	}

	return sb.String()
}
