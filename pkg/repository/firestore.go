package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Collection names
	organizationsCollection = "organizations"
	usersCollection         = "users"
	sessionsCollection      = "sessions"
	productsCollection      = "products"
	ordersCollection        = "orders"
)

// Firestore implements Repository interface with Firestore.
// Products and orders live in subcollections under their organization.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	// Test connection by attempting to read from a collection.
	// This fails fast on invalid project IDs or permission issues.
	_, err = client.Collection(organizationsCollection).Limit(1).Documents(ctx).Next()
	if err != nil && err != iterator.Done {
		if status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to firestore project",
				goerr.V("firestore error code", status.Code(err).String()),
			)
		}
		logger.Debug("Firestore connection test returned error (may be empty collection)",
			"error", err,
			"errorCode", status.Code(err).String(),
		)
	}

	logger.Info("Firestore repository initialized successfully",
		"projectID", projectID,
		"databaseID", databaseID,
	)

	return &Firestore{
		client: client,
	}, nil
}

func (f *Firestore) orgDoc(id types.OrgID) *firestore.DocumentRef {
	return f.client.Collection(organizationsCollection).Doc(id.String())
}

// SaveOrganization saves an organization to Firestore
func (f *Firestore) SaveOrganization(ctx context.Context, org *model.Organization) error {
	if org == nil {
		return goerr.New("organization is nil")
	}
	if org.ID == "" {
		return goerr.New("organization ID is empty")
	}

	// Slug uniqueness: reject when another organization holds the slug
	existing, err := f.GetOrganizationBySlug(ctx, org.Slug)
	if err == nil && existing.ID != org.ID {
		return goerr.New("slug already in use",
			goerr.V("slug", org.Slug),
			goerr.T(apperr.ErrTagSlugTaken))
	}

	if _, err := f.orgDoc(org.ID).Set(ctx, org); err != nil {
		return goerr.Wrap(err, "failed to save organization to firestore")
	}

	return nil
}

// GetOrganization retrieves an organization by ID
func (f *Firestore) GetOrganization(ctx context.Context, id types.OrgID) (*model.Organization, error) {
	if id == "" {
		return nil, goerr.New("organization ID is empty")
	}

	doc, err := f.orgDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.New("organization not found",
				goerr.V("orgID", id),
				goerr.T(apperr.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to get organization from firestore")
	}

	var org model.Organization
	if err := doc.DataTo(&org); err != nil {
		return nil, goerr.Wrap(err, "failed to decode organization")
	}

	return &org, nil
}

// GetOrganizationBySlug retrieves an organization by slug
func (f *Firestore) GetOrganizationBySlug(ctx context.Context, slug types.Slug) (*model.Organization, error) {
	if slug == "" {
		return nil, goerr.New("slug is empty")
	}

	iter := f.client.Collection(organizationsCollection).
		Where("Slug", "==", slug.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.New("organization not found",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query organization by slug")
	}

	var org model.Organization
	if err := doc.DataTo(&org); err != nil {
		return nil, goerr.Wrap(err, "failed to decode organization")
	}

	return &org, nil
}

// ListOrganizations lists all organizations ordered by creation time
func (f *Firestore) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	iter := f.client.Collection(organizationsCollection).Documents(ctx)
	defer iter.Stop()

	var orgs []*model.Organization
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate organizations")
		}

		var org model.Organization
		if err := doc.DataTo(&org); err != nil {
			return nil, goerr.Wrap(err, "failed to decode organization")
		}
		orgs = append(orgs, &org)
	}

	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].CreatedAt.Before(orgs[j].CreatedAt)
	})

	return orgs, nil
}

// SaveUser saves a user to Firestore
func (f *Firestore) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return goerr.New("user is nil")
	}
	if user.ID == "" {
		return goerr.New("user ID is empty")
	}

	if _, err := f.client.Collection(usersCollection).Doc(user.ID.String()).Set(ctx, user); err != nil {
		return goerr.Wrap(err, "failed to save user to firestore")
	}

	return nil
}

// GetUser retrieves a user by ID
func (f *Firestore) GetUser(ctx context.Context, id types.UserID) (*model.User, error) {
	if id == "" {
		return nil, goerr.New("user ID is empty")
	}

	doc, err := f.client.Collection(usersCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.New("user not found",
				goerr.V("userID", id),
				goerr.T(apperr.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to get user from firestore")
	}

	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user")
	}

	return &user, nil
}

// GetUserBySubject retrieves a user by external auth subject
func (f *Firestore) GetUserBySubject(ctx context.Context, subject types.Subject) (*model.User, error) {
	if subject == "" {
		return nil, goerr.New("subject is empty")
	}

	iter := f.client.Collection(usersCollection).
		Where("Subject", "==", subject.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.New("user not found",
			goerr.V("subject", subject),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user by subject")
	}

	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user")
	}

	return &user, nil
}

// ListUsersByOrg lists users belonging to an organization
func (f *Firestore) ListUsersByOrg(ctx context.Context, orgID types.OrgID) ([]*model.User, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	iter := f.client.Collection(usersCollection).
		Where("OrgID", "==", orgID.String()).
		Documents(ctx)
	defer iter.Stop()

	var users []*model.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		var user model.User
		if err := doc.DataTo(&user); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user")
		}
		users = append(users, &user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

// SaveSession saves a session to Firestore
func (f *Firestore) SaveSession(ctx context.Context, session *model.Session) error {
	if session == nil {
		return goerr.New("session is nil")
	}
	if session.ID == "" {
		return goerr.New("session ID is empty")
	}

	// Sessions carry the secret; store the full struct, not the JSON view
	data := map[string]any{
		"ID":        session.ID.String(),
		"Secret":    session.Secret.String(),
		"UserID":    session.UserID.String(),
		"CreatedAt": session.CreatedAt,
		"ExpiresAt": session.ExpiresAt,
	}
	if _, err := f.client.Collection(sessionsCollection).Doc(session.ID.String()).Set(ctx, data); err != nil {
		return goerr.Wrap(err, "failed to save session to firestore")
	}

	return nil
}

// GetSession retrieves a session by ID
func (f *Firestore) GetSession(ctx context.Context, id types.SessionID) (*model.Session, error) {
	if id == "" {
		return nil, goerr.New("session ID is empty")
	}

	doc, err := f.client.Collection(sessionsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.New("session not found",
				goerr.T(apperr.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to get session from firestore")
	}

	var session model.Session
	if err := doc.DataTo(&session); err != nil {
		return nil, goerr.Wrap(err, "failed to decode session")
	}

	return &session, nil
}

// DeleteSession deletes a session
func (f *Firestore) DeleteSession(ctx context.Context, id types.SessionID) error {
	if id == "" {
		return goerr.New("session ID is empty")
	}

	if _, err := f.client.Collection(sessionsCollection).Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete session from firestore")
	}

	return nil
}

// SaveProduct saves a product under its organization
func (f *Firestore) SaveProduct(ctx context.Context, product *model.Product) error {
	if product == nil {
		return goerr.New("product is nil")
	}
	if product.ID == "" {
		return goerr.New("product ID is empty")
	}
	if product.OrgID == "" {
		return goerr.New("product organization ID is empty")
	}

	ref := f.orgDoc(product.OrgID).Collection(productsCollection).Doc(product.ID.String())
	if _, err := ref.Set(ctx, product); err != nil {
		return goerr.Wrap(err, "failed to save product to firestore")
	}

	return nil
}

// GetProduct retrieves a product by organization and ID
func (f *Firestore) GetProduct(ctx context.Context, orgID types.OrgID, id types.ProductID) (*model.Product, error) {
	if orgID == "" || id == "" {
		return nil, goerr.New("organization ID and product ID are required")
	}

	doc, err := f.orgDoc(orgID).Collection(productsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.New("product not found",
				goerr.V("productID", id),
				goerr.T(apperr.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to get product from firestore")
	}

	var product model.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, goerr.Wrap(err, "failed to decode product")
	}

	return &product, nil
}

// ListProductsByOrg lists products for an organization
func (f *Firestore) ListProductsByOrg(ctx context.Context, orgID types.OrgID) ([]*model.Product, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	iter := f.orgDoc(orgID).Collection(productsCollection).Documents(ctx)
	defer iter.Stop()

	var products []*model.Product
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate products")
		}

		var product model.Product
		if err := doc.DataTo(&product); err != nil {
			return nil, goerr.Wrap(err, "failed to decode product")
		}
		products = append(products, &product)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})

	return products, nil
}

// SaveOrder saves an order under its organization
func (f *Firestore) SaveOrder(ctx context.Context, order *model.Order) error {
	if order == nil {
		return goerr.New("order is nil")
	}
	if order.ID == "" {
		return goerr.New("order ID is empty")
	}
	if order.OrgID == "" {
		return goerr.New("order organization ID is empty")
	}

	ref := f.orgDoc(order.OrgID).Collection(ordersCollection).Doc(order.ID.String())
	if _, err := ref.Set(ctx, order); err != nil {
		return goerr.Wrap(err, "failed to save order to firestore")
	}

	return nil
}

// GetOrder retrieves an order by organization and ID
func (f *Firestore) GetOrder(ctx context.Context, orgID types.OrgID, id types.OrderID) (*model.Order, error) {
	if orgID == "" || id == "" {
		return nil, goerr.New("organization ID and order ID are required")
	}

	doc, err := f.orgDoc(orgID).Collection(ordersCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.New("order not found",
				goerr.V("orderID", id),
				goerr.T(apperr.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to get order from firestore")
	}

	var order model.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, goerr.Wrap(err, "failed to decode order")
	}

	return &order, nil
}

// ListOrdersByStatus lists orders filtered by status, newest first.
// Sorting happens in memory to avoid requiring a composite index.
func (f *Firestore) ListOrdersByStatus(ctx context.Context, orgID types.OrgID, orderStatus types.OrderStatus, limit int) ([]*model.Order, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	iter := f.orgDoc(orgID).Collection(ordersCollection).
		Where("Status", "==", orderStatus.String()).
		Documents(ctx)
	defer iter.Stop()

	var orders []*model.Order
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate orders")
		}

		var order model.Order
		if err := doc.DataTo(&order); err != nil {
			return nil, goerr.Wrap(err, "failed to decode order")
		}
		orders = append(orders, &order)
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
func (f *Firestore) ListOrdersSince(ctx context.Context, orgID types.OrgID, since time.Time) ([]*model.Order, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	iter := f.orgDoc(orgID).Collection(ordersCollection).
		Where("CreatedAt", ">=", since).
		Documents(ctx)
	defer iter.Stop()

	var orders []*model.Order
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate orders")
		}

		var order model.Order
		if err := doc.DataTo(&order); err != nil {
			return nil, goerr.Wrap(err, "failed to decode order")
		}
		orders = append(orders, &order)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	return orders, nil
}

// DeleteOrdersByOrg deletes all orders of an organization in batches
func (f *Firestore) DeleteOrdersByOrg(ctx context.Context, orgID types.OrgID) (int, error) {
	if orgID == "" {
		return 0, goerr.New("organization ID is empty")
	}

	iter := f.orgDoc(orgID).Collection(ordersCollection).Documents(ctx)
	defer iter.Stop()

	deleted := 0
	bw := f.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, goerr.Wrap(err, "failed to iterate orders for deletion")
		}

		if _, err := bw.Delete(doc.Ref); err != nil {
			return deleted, goerr.Wrap(err, "failed to enqueue order deletion")
		}
		deleted++
	}
	bw.End()

	return deleted, nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	return f.client.Close()
}
