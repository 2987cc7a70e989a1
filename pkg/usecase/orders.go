package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/llm"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// CreateOrderItemInput is one requested order line
type CreateOrderItemInput struct {
	ProductID types.ProductID `json:"product_id"`
	Quantity  int             `json:"quantity"`
}

// CreateOrderInput carries the fields for a new order. Prices come from the
// catalog, never from the caller.
type CreateOrderInput struct {
	CustomerName  string                 `json:"customer_name"`
	CustomerPhone string                 `json:"customer_phone,omitempty"`
	Address       string                 `json:"address,omitempty"`
	Items         []CreateOrderItemInput `json:"items"`
}

// statusTransitions lists the allowed next states per order status
var statusTransitions = map[types.OrderStatus][]types.OrderStatus{
	types.OrderStatusNew:       {types.OrderStatusPacked, types.OrderStatusCancelled},
	types.OrderStatusPacked:    {types.OrderStatusShipped, types.OrderStatusCancelled},
	types.OrderStatusShipped:   {types.OrderStatusDelivered},
	types.OrderStatusDelivered: {},
	types.OrderStatusCancelled: {},
}

// Orders implements OrderUseCase. Packers are limited to status transitions;
// creating orders needs the owner or admin role.
type Orders struct {
	repo interfaces.Repository
	llm  *llm.Service
}

// NewOrders creates a new Orders use case. llmService may be nil, which
// disables AI order drafts.
func NewOrders(repo interfaces.Repository, llmService *llm.Service) *Orders {
	return &Orders{
		repo: repo,
		llm:  llmService,
	}
}

var _ OrderUseCase = (*Orders)(nil)

// CreateOrder creates an order, snapshotting unit price and cost from the
// catalog and decrementing stock
func (o *Orders) CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	authCtx, err := requireManager(ctx)
	if err != nil {
		return nil, err
	}

	if input.CustomerName == "" {
		return nil, goerr.New("customer name is required",
			goerr.T(apperr.ErrTagValidation))
	}
	if len(input.Items) == 0 {
		return nil, goerr.New("order needs at least one item",
			goerr.T(apperr.ErrTagValidation))
	}

	items := make([]model.OrderItem, 0, len(input.Items))
	products := make([]*model.Product, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, goerr.New("item quantity must be positive",
				goerr.V("productID", line.ProductID),
				goerr.T(apperr.ErrTagValidation))
		}

		product, err := o.repo.GetProduct(ctx, authCtx.OrgID, line.ProductID)
		if err != nil {
			return nil, goerr.Wrap(err, "unknown product in order",
				goerr.V("productID", line.ProductID),
				goerr.T(apperr.ErrTagValidation))
		}

		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			UnitCost:  product.Cost,
		})
		product.Stock -= line.Quantity
		products = append(products, product)
	}

	order := model.NewOrder(authCtx.OrgID, input.CustomerName, items, authCtx.UserID)
	order.CustomerPhone = input.CustomerPhone
	order.Address = input.Address

	if err := o.repo.SaveOrder(ctx, order); err != nil {
		return nil, goerr.Wrap(err, "failed to save order")
	}

	// Stock updates after the order is durable; a stale count is preferable
	// to a lost order
	for _, product := range products {
		product.UpdatedAt = time.Now()
		if err := o.repo.SaveProduct(ctx, product); err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "failed to update stock",
				goerr.V("productID", product.ID)))
		}
	}

	ctxlog.From(ctx).Info("Order created",
		"orderID", order.ID,
		"orgID", order.OrgID,
		"revenue", order.Revenue,
	)
	return order, nil
}

// TransitionStatus moves an order along the status lifecycle. Any member of
// the organization may transition, including packers.
func (o *Orders) TransitionStatus(ctx context.Context, id types.OrderID, status types.OrderStatus) (*model.Order, error) {
	authCtx, err := requireOrgMember(ctx)
	if err != nil {
		return nil, err
	}

	if !status.IsValid() {
		return nil, goerr.New("unknown order status",
			goerr.V("status", status),
			goerr.T(apperr.ErrTagValidation))
	}

	order, err := o.repo.GetOrder(ctx, authCtx.OrgID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "order not found",
			goerr.V("orderID", id))
	}

	allowed := false
	for _, next := range statusTransitions[order.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, goerr.New("status transition not allowed",
			goerr.V("from", order.Status),
			goerr.V("to", status),
			goerr.T(apperr.ErrTagValidation))
	}

	order.Status = status
	order.UpdatedAt = time.Now()
	if err := o.repo.SaveOrder(ctx, order); err != nil {
		return nil, goerr.Wrap(err, "failed to update order status")
	}

	return order, nil
}

// ListByStatus returns the organization's orders in one status, newest first
func (o *Orders) ListByStatus(ctx context.Context, status types.OrderStatus, limit int) ([]*model.Order, error) {
	authCtx, err := requireOrgMember(ctx)
	if err != nil {
		return nil, err
	}

	if !status.IsValid() {
		return nil, goerr.New("unknown order status",
			goerr.V("status", status),
			goerr.T(apperr.ErrTagValidation))
	}

	orders, err := o.repo.ListOrdersByStatus(ctx, authCtx.OrgID, status, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list orders")
	}
	return orders, nil
}

// ListRecent returns the organization's orders created since the given time
func (o *Orders) ListRecent(ctx context.Context, since time.Time) ([]*model.Order, error) {
	authCtx, err := requireOrgMember(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := o.repo.ListOrdersSince(ctx, authCtx.OrgID, since)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent orders")
	}
	return orders, nil
}

// DraftFromText parses a free-text order request into a structured draft
// validated against the caller's catalog
func (o *Orders) DraftFromText(ctx context.Context, text string) (*llm.OrderDraft, error) {
	authCtx, err := requireManager(ctx)
	if err != nil {
		return nil, err
	}

	if o.llm == nil {
		return nil, goerr.New("AI order entry is not configured",
			goerr.T(apperr.ErrTagExternalService))
	}

	products, err := o.repo.ListProductsByOrg(ctx, authCtx.OrgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load catalog for order draft")
	}

	draft, err := o.llm.ParseOrderDraft(ctx, text, products)
	if err != nil {
		return nil, goerr.Wrap(err, "could not draft an order from the text",
			goerr.T(apperr.ErrTagValidation))
	}
	return draft, nil
}
