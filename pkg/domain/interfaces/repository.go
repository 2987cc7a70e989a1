package interfaces

import (
	"context"
	"time"

	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Organization operations
	SaveOrganization(ctx context.Context, org *model.Organization) error
	GetOrganization(ctx context.Context, id types.OrgID) (*model.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug types.Slug) (*model.Organization, error)
	ListOrganizations(ctx context.Context) ([]*model.Organization, error)

	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id types.UserID) (*model.User, error)
	GetUserBySubject(ctx context.Context, subject types.Subject) (*model.User, error)
	ListUsersByOrg(ctx context.Context, orgID types.OrgID) ([]*model.User, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id types.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id types.SessionID) error

	// Product operations
	SaveProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, orgID types.OrgID, id types.ProductID) (*model.Product, error)
	ListProductsByOrg(ctx context.Context, orgID types.OrgID) ([]*model.Product, error)

	// Order operations
	SaveOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, orgID types.OrgID, id types.OrderID) (*model.Order, error)
	ListOrdersByStatus(ctx context.Context, orgID types.OrgID, status types.OrderStatus, limit int) ([]*model.Order, error)
	ListOrdersSince(ctx context.Context, orgID types.OrgID, since time.Time) ([]*model.Order, error)
	DeleteOrdersByOrg(ctx context.Context, orgID types.OrgID) (int, error)

	// Close closes the repository connection
	Close() error
}
