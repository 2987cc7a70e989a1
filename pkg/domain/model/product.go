package model

import (
	"time"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// Product represents a sellable item in a tenant's catalog.
// Price and Cost are stored in the smallest currency unit.
type Product struct {
	ID        types.ProductID `json:"id" bson:"_id"`
	OrgID     types.OrgID     `json:"org_id" bson:"org_id"`
	Name      string          `json:"name" bson:"name"`
	SKU       string          `json:"sku" bson:"sku"`
	Price     int64           `json:"price" bson:"price"`
	Cost      int64           `json:"cost" bson:"cost"`
	Stock     int             `json:"stock" bson:"stock"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}

// NewProduct creates a new Product for an organization
func NewProduct(orgID types.OrgID, name, sku string, price, cost int64, stock int) *Product {
	now := time.Now()
	return &Product{
		ID:        types.NewProductID(),
		OrgID:     orgID,
		Name:      name,
		SKU:       sku,
		Price:     price,
		Cost:      cost,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
