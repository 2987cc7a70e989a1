package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// CreateProductInput carries the fields for a new product
type CreateProductInput struct {
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Price int64  `json:"price"`
	Cost  int64  `json:"cost"`
	Stock int    `json:"stock"`
}

// UpdateProductInput carries partial product updates; nil fields are left
// unchanged
type UpdateProductInput struct {
	Name  *string `json:"name,omitempty"`
	Price *int64  `json:"price,omitempty"`
	Cost  *int64  `json:"cost,omitempty"`
	Stock *int    `json:"stock,omitempty"`
}

// Catalog implements CatalogUseCase scoped to the caller's organization
type Catalog struct {
	repo              interfaces.Repository
	lowStockThreshold int
}

// NewCatalog creates a new Catalog use case
func NewCatalog(repo interfaces.Repository, lowStockThreshold int) *Catalog {
	if lowStockThreshold <= 0 {
		lowStockThreshold = defaultLowStockThreshold
	}
	return &Catalog{
		repo:              repo,
		lowStockThreshold: lowStockThreshold,
	}
}

var _ CatalogUseCase = (*Catalog)(nil)

// requireOrgMember returns the caller's auth context when it is
// authenticated and linked to an organization
func requireOrgMember(ctx context.Context) (*model.AuthContext, error) {
	authCtx, ok := model.GetAuthContext(ctx)
	if !ok || !authCtx.IsAuthenticated() {
		return nil, goerr.New("authentication required",
			goerr.T(apperr.ErrTagNotAuthenticated))
	}
	if authCtx.OrgID == "" {
		return nil, goerr.New("caller has no organization",
			goerr.V("subject", authCtx.Subject),
			goerr.T(apperr.ErrTagAccessDenied))
	}
	return authCtx, nil
}

// requireManager additionally requires the owner or admin role
func requireManager(ctx context.Context) (*model.AuthContext, error) {
	authCtx, err := requireOrgMember(ctx)
	if err != nil {
		return nil, err
	}
	if !authCtx.Role.CanManage() {
		return nil, goerr.New("role may not manage this resource",
			goerr.V("role", authCtx.Role),
			goerr.T(apperr.ErrTagAccessDenied))
	}
	return authCtx, nil
}

// CreateProduct adds a product to the caller's catalog (owner/admin only)
func (c *Catalog) CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	authCtx, err := requireManager(ctx)
	if err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, goerr.New("product name is required",
			goerr.T(apperr.ErrTagValidation))
	}
	if input.Price < 0 || input.Cost < 0 || input.Stock < 0 {
		return nil, goerr.New("price, cost and stock must not be negative",
			goerr.T(apperr.ErrTagValidation))
	}

	product := model.NewProduct(authCtx.OrgID, input.Name, input.SKU, input.Price, input.Cost, input.Stock)
	if err := c.repo.SaveProduct(ctx, product); err != nil {
		return nil, goerr.Wrap(err, "failed to save product")
	}

	return product, nil
}

// UpdateProduct applies a partial update to a product (owner/admin only)
func (c *Catalog) UpdateProduct(ctx context.Context, id types.ProductID, input UpdateProductInput) (*model.Product, error) {
	authCtx, err := requireManager(ctx)
	if err != nil {
		return nil, err
	}

	product, err := c.repo.GetProduct(ctx, authCtx.OrgID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "product not found",
			goerr.V("productID", id))
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, goerr.New("product name must not be empty",
				goerr.T(apperr.ErrTagValidation))
		}
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Cost != nil {
		product.Cost = *input.Cost
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if product.Price < 0 || product.Cost < 0 || product.Stock < 0 {
		return nil, goerr.New("price, cost and stock must not be negative",
			goerr.T(apperr.ErrTagValidation))
	}

	product.UpdatedAt = time.Now()
	if err := c.repo.SaveProduct(ctx, product); err != nil {
		return nil, goerr.Wrap(err, "failed to update product")
	}

	return product, nil
}

// ListProducts returns the caller's full catalog
func (c *Catalog) ListProducts(ctx context.Context) ([]*model.Product, error) {
	authCtx, err := requireOrgMember(ctx)
	if err != nil {
		return nil, err
	}

	products, err := c.repo.ListProductsByOrg(ctx, authCtx.OrgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list products")
	}
	return products, nil
}

// ListLowStock returns catalog entries at or below the low-stock threshold
func (c *Catalog) ListLowStock(ctx context.Context) ([]*model.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	low := make([]*model.Product, 0, len(products))
	for _, p := range products {
		if p.Stock <= c.lowStockThreshold {
			low = append(low, p)
		}
	}
	return low, nil
}
