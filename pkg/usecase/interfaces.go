package usecase

import (
	"context"
	"time"

	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/llm"
)

// AuthUseCase defines the interface for authentication operations
type AuthUseCase interface {
	// CreateSession finds or creates the user for an identity-provider
	// subject and opens a session for them
	CreateSession(ctx context.Context, subject types.Subject, name, email string, role types.Role) (*model.Session, error)

	// ValidateSession validates a session by ID and secret
	ValidateSession(ctx context.Context, sessionID types.SessionID, secret types.SessionSecret) (*model.Session, error)

	// DeleteSession deletes a session
	DeleteSession(ctx context.Context, sessionID types.SessionID) error

	// GetUserFromSession gets user information from a session
	GetUserFromSession(ctx context.Context, sessionID types.SessionID) (*model.User, error)
}

// OnboardingUseCase defines the interface for tenant onboarding
type OnboardingUseCase interface {
	// CompleteOnboarding provisions a tenant for the authenticated caller
	CompleteOnboarding(ctx context.Context, storeName string, slug types.Slug) (*OnboardingResult, error)

	// EnsureOrgLoginReady re-provisions the remote login connection for a
	// tenant; callable without authentication and idempotent
	EnsureOrgLoginReady(ctx context.Context, slug types.Slug) error
}

// NavigationUseCase decides what a tenant-scoped client should render next
type NavigationUseCase interface {
	Navigate(ctx context.Context, host, path string) (*model.Navigation, error)
}

// BriefingUseCase assembles and delivers the daily store briefing
type BriefingUseCase interface {
	Assemble(ctx context.Context, orgID types.OrgID, now time.Time) (*model.Briefing, error)
	Render(ctx context.Context, briefing *model.Briefing) string
	Send(ctx context.Context, orgID types.OrgID, now time.Time) error
}

// CatalogUseCase manages a tenant's products
type CatalogUseCase interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id types.ProductID, input UpdateProductInput) (*model.Product, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
	ListLowStock(ctx context.Context) ([]*model.Product, error)
}

// OrderUseCase manages a tenant's orders
type OrderUseCase interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error)
	TransitionStatus(ctx context.Context, id types.OrderID, status types.OrderStatus) (*model.Order, error)
	ListByStatus(ctx context.Context, status types.OrderStatus, limit int) ([]*model.Order, error)
	ListRecent(ctx context.Context, since time.Time) ([]*model.Order, error)
	DraftFromText(ctx context.Context, text string) (*llm.OrderDraft, error)
}
