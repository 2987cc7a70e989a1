package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// Memory implements Repository interface with in-memory storage
type Memory struct {
	mu            sync.RWMutex
	organizations map[types.OrgID]*model.Organization
	users         map[types.UserID]*model.User
	sessions      map[types.SessionID]*model.Session
	products      map[types.OrgID]map[types.ProductID]*model.Product
	orders        map[types.OrgID]map[types.OrderID]*model.Order
}

// NewMemory creates a new memory repository
func NewMemory() interfaces.Repository {
	return &Memory{
		organizations: make(map[types.OrgID]*model.Organization),
		users:         make(map[types.UserID]*model.User),
		sessions:      make(map[types.SessionID]*model.Session),
		products:      make(map[types.OrgID]map[types.ProductID]*model.Product),
		orders:        make(map[types.OrgID]map[types.OrderID]*model.Order),
	}
}

// SaveOrganization saves an organization to memory
func (m *Memory) SaveOrganization(ctx context.Context, org *model.Organization) error {
	if org == nil {
		return goerr.New("organization is nil")
	}
	if org.ID == "" {
		return goerr.New("organization ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Enforce slug uniqueness across organizations
	for _, existing := range m.organizations {
		if existing.Slug == org.Slug && existing.ID != org.ID {
			return goerr.New("slug already in use",
				goerr.V("slug", org.Slug),
				goerr.T(apperr.ErrTagSlugTaken))
		}
	}

	orgCopy := *org
	m.organizations[org.ID] = &orgCopy
	return nil
}

// GetOrganization retrieves an organization by ID
func (m *Memory) GetOrganization(ctx context.Context, id types.OrgID) (*model.Organization, error) {
	if id == "" {
		return nil, goerr.New("organization ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	org, exists := m.organizations[id]
	if !exists {
		return nil, goerr.New("organization not found",
			goerr.V("orgID", id),
			goerr.T(apperr.ErrTagNotFound))
	}

	orgCopy := *org
	return &orgCopy, nil
}

// GetOrganizationBySlug retrieves an organization by slug
func (m *Memory) GetOrganizationBySlug(ctx context.Context, slug types.Slug) (*model.Organization, error) {
	if slug == "" {
		return nil, goerr.New("slug is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, org := range m.organizations {
		if org.Slug == slug {
			orgCopy := *org
			return &orgCopy, nil
		}
	}

	return nil, goerr.New("organization not found",
		goerr.V("slug", slug),
		goerr.T(apperr.ErrTagNotFound))
}

// ListOrganizations lists all organizations ordered by creation time
func (m *Memory) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orgs := make([]*model.Organization, 0, len(m.organizations))
	for _, org := range m.organizations {
		orgCopy := *org
		orgs = append(orgs, &orgCopy)
	}

	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].CreatedAt.Before(orgs[j].CreatedAt)
	})

	return orgs, nil
}

// SaveUser saves a user to memory
func (m *Memory) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return goerr.New("user is nil")
	}
	if user.ID == "" {
		return goerr.New("user ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	userCopy := *user
	m.users[user.ID] = &userCopy
	return nil
}

// GetUser retrieves a user by ID
func (m *Memory) GetUser(ctx context.Context, id types.UserID) (*model.User, error) {
	if id == "" {
		return nil, goerr.New("user ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, goerr.New("user not found",
			goerr.V("userID", id),
			goerr.T(apperr.ErrTagNotFound))
	}

	userCopy := *user
	return &userCopy, nil
}

// GetUserBySubject retrieves a user by external auth subject
func (m *Memory) GetUserBySubject(ctx context.Context, subject types.Subject) (*model.User, error) {
	if subject == "" {
		return nil, goerr.New("subject is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Subject == subject {
			userCopy := *user
			return &userCopy, nil
		}
	}

	return nil, goerr.New("user not found",
		goerr.V("subject", subject),
		goerr.T(apperr.ErrTagNotFound))
}

// ListUsersByOrg lists users belonging to an organization
func (m *Memory) ListUsersByOrg(ctx context.Context, orgID types.OrgID) ([]*model.User, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []*model.User
	for _, user := range m.users {
		if user.OrgID == orgID {
			userCopy := *user
			users = append(users, &userCopy)
		}
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

// SaveSession saves a session to memory
func (m *Memory) SaveSession(ctx context.Context, session *model.Session) error {
	if session == nil {
		return goerr.New("session is nil")
	}
	if session.ID == "" {
		return goerr.New("session ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessionCopy := *session
	m.sessions[session.ID] = &sessionCopy
	return nil
}

// GetSession retrieves a session by ID
func (m *Memory) GetSession(ctx context.Context, id types.SessionID) (*model.Session, error) {
	if id == "" {
		return nil, goerr.New("session ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, goerr.New("session not found",
			goerr.T(apperr.ErrTagNotFound))
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// DeleteSession deletes a session
func (m *Memory) DeleteSession(ctx context.Context, id types.SessionID) error {
	if id == "" {
		return goerr.New("session ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// SaveProduct saves a product to memory
func (m *Memory) SaveProduct(ctx context.Context, product *model.Product) error {
	if product == nil {
		return goerr.New("product is nil")
	}
	if product.ID == "" {
		return goerr.New("product ID is empty")
	}
	if product.OrgID == "" {
		return goerr.New("product organization ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.products[product.OrgID] == nil {
		m.products[product.OrgID] = make(map[types.ProductID]*model.Product)
	}
	productCopy := *product
	m.products[product.OrgID][product.ID] = &productCopy
	return nil
}

// GetProduct retrieves a product by organization and ID
func (m *Memory) GetProduct(ctx context.Context, orgID types.OrgID, id types.ProductID) (*model.Product, error) {
	if orgID == "" || id == "" {
		return nil, goerr.New("organization ID and product ID are required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	product, exists := m.products[orgID][id]
	if !exists {
		return nil, goerr.New("product not found",
			goerr.V("productID", id),
			goerr.T(apperr.ErrTagNotFound))
	}

	productCopy := *product
	return &productCopy, nil
}

// ListProductsByOrg lists products for an organization
func (m *Memory) ListProductsByOrg(ctx context.Context, orgID types.OrgID) ([]*model.Product, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []*model.Product
	for _, p := range m.products[orgID] {
		productCopy := *p
		products = append(products, &productCopy)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})

	return products, nil
}

// SaveOrder saves an order to memory
func (m *Memory) SaveOrder(ctx context.Context, order *model.Order) error {
	if order == nil {
		return goerr.New("order is nil")
	}
	if order.ID == "" {
		return goerr.New("order ID is empty")
	}
	if order.OrgID == "" {
		return goerr.New("order organization ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.orders[order.OrgID] == nil {
		m.orders[order.OrgID] = make(map[types.OrderID]*model.Order)
	}
	orderCopy := *order
	orderCopy.Items = append([]model.OrderItem(nil), order.Items...)
	m.orders[order.OrgID][order.ID] = &orderCopy
	return nil
}

// GetOrder retrieves an order by organization and ID
func (m *Memory) GetOrder(ctx context.Context, orgID types.OrgID, id types.OrderID) (*model.Order, error) {
	if orgID == "" || id == "" {
		return nil, goerr.New("organization ID and order ID are required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	order, exists := m.orders[orgID][id]
	if !exists {
		return nil, goerr.New("order not found",
			goerr.V("orderID", id),
			goerr.T(apperr.ErrTagNotFound))
	}

	orderCopy := *order
	orderCopy.Items = append([]model.OrderItem(nil), order.Items...)
	return &orderCopy, nil
}

// ListOrdersByStatus lists orders for an organization filtered by status,
// newest first
func (m *Memory) ListOrdersByStatus(ctx context.Context, orgID types.OrgID, status types.OrderStatus, limit int) ([]*model.Order, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*model.Order
	for _, o := range m.orders[orgID] {
		if o.Status == status {
			orderCopy := *o
			orderCopy.Items = append([]model.OrderItem(nil), o.Items...)
			orders = append(orders, &orderCopy)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}

	return orders, nil
}

// ListOrdersSince lists orders created at or after the given time, oldest first
func (m *Memory) ListOrdersSince(ctx context.Context, orgID types.OrgID, since time.Time) ([]*model.Order, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*model.Order
	for _, o := range m.orders[orgID] {
		if !o.CreatedAt.Before(since) {
			orderCopy := *o
			orderCopy.Items = append([]model.OrderItem(nil), o.Items...)
			orders = append(orders, &orderCopy)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	return orders, nil
}

// DeleteOrdersByOrg deletes all orders of an organization and returns the count
func (m *Memory) DeleteOrdersByOrg(ctx context.Context, orgID types.OrgID) (int, error) {
	if orgID == "" {
		return 0, goerr.New("organization ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := len(m.orders[orgID])
	delete(m.orders, orgID)
	return count, nil
}

// Close closes the repository (no-op for memory)
func (m *Memory) Close() error {
	return nil
}
