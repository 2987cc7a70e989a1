package model

import (
	"time"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// OrderItem is a single line of an order, denormalized from the product
// catalog at creation time so later catalog edits do not rewrite history.
type OrderItem struct {
	ProductID types.ProductID `json:"product_id" bson:"product_id"`
	Name      string          `json:"name" bson:"name"`
	Quantity  int             `json:"quantity" bson:"quantity"`
	UnitPrice int64           `json:"unit_price" bson:"unit_price"`
	UnitCost  int64           `json:"unit_cost" bson:"unit_cost"`
}

// Order represents a customer order within a tenant
type Order struct {
	ID            types.OrderID     `json:"id" bson:"_id"`
	OrgID         types.OrgID       `json:"org_id" bson:"org_id"`
	CustomerName  string            `json:"customer_name" bson:"customer_name"`
	CustomerPhone string            `json:"customer_phone,omitempty" bson:"customer_phone,omitempty"`
	Address       string            `json:"address,omitempty" bson:"address,omitempty"`
	Items         []OrderItem       `json:"items" bson:"items"`
	Revenue       int64             `json:"revenue" bson:"revenue"`
	Cost          int64             `json:"cost" bson:"cost"`
	Status        types.OrderStatus `json:"status" bson:"status"`
	CreatedBy     types.UserID      `json:"created_by" bson:"created_by"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" bson:"updated_at"`
}

// NewOrder creates a new Order and derives revenue/cost from its items
func NewOrder(orgID types.OrgID, customerName string, items []OrderItem, createdBy types.UserID) *Order {
	now := time.Now()
	o := &Order{
		ID:           types.NewOrderID(),
		OrgID:        orgID,
		CustomerName: customerName,
		Items:        items,
		Status:       types.OrderStatusNew,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, item := range items {
		o.Revenue += item.UnitPrice * int64(item.Quantity)
		o.Cost += item.UnitCost * int64(item.Quantity)
	}
	return o
}

// Profit returns revenue minus cost
func (o *Order) Profit() int64 {
	return o.Revenue - o.Cost
}
