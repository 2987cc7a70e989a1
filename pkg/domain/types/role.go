package types

// Role represents a user's role within an organization
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RolePacker Role = "packer"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RolePacker:
		return true
	default:
		return false
	}
}

// CanManage reports whether the role can manage organization data
// (products, briefings, member roles). Packers only handle orders.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// String returns the string representation of the status
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPacked, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}
