package repository

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Repository interface with MongoDB, for deployments that
// prefer a self-hosted document store over the hosted platform.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo creates a new MongoDB repository and verifies connectivity
func NewMongo(ctx context.Context, uri, database string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, goerr.Wrap(err, "failed to ping mongodb",
			goerr.V("database", database))
	}

	db := client.Database(database)

	// Unique index on slug enforces tenant uniqueness at the store level
	_, err = db.Collection(organizationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Warn("Failed to ensure slug index", "error", err)
	}

	logger.Info("MongoDB repository initialized successfully",
		"database", database,
	)

	return &Mongo{client: client, db: db}, nil
}

// SaveOrganization saves an organization
func (m *Mongo) SaveOrganization(ctx context.Context, org *model.Organization) error {
	if org == nil {
		return goerr.New("organization is nil")
	}
	if org.ID == "" {
		return goerr.New("organization ID is empty")
	}

	filter := bson.M{"_id": org.ID.String()}
	opts := options.Replace().SetUpsert(true)
	_, err := m.db.Collection(organizationsCollection).ReplaceOne(ctx, filter, org, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return goerr.New("slug already in use",
				goerr.V("slug", org.Slug),
				goerr.T(apperr.ErrTagSlugTaken))
		}
		return goerr.Wrap(err, "failed to save organization to mongodb")
	}

	return nil
}

// GetOrganization retrieves an organization by ID
func (m *Mongo) GetOrganization(ctx context.Context, id types.OrgID) (*model.Organization, error) {
	if id == "" {
		return nil, goerr.New("organization ID is empty")
	}

	var org model.Organization
	err := m.db.Collection(organizationsCollection).
		FindOne(ctx, bson.M{"_id": id.String()}).
		Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("organization not found",
			goerr.V("orgID", id),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get organization from mongodb")
	}

	return &org, nil
}

// GetOrganizationBySlug retrieves an organization by slug
func (m *Mongo) GetOrganizationBySlug(ctx context.Context, slug types.Slug) (*model.Organization, error) {
	if slug == "" {
		return nil, goerr.New("slug is empty")
	}

	var org model.Organization
	err := m.db.Collection(organizationsCollection).
		FindOne(ctx, bson.M{"slug": slug.String()}).
		Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("organization not found",
			goerr.V("slug", slug),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query organization by slug")
	}

	return &org, nil
}

// ListOrganizations lists all organizations ordered by creation time
func (m *Mongo) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.db.Collection(organizationsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list organizations from mongodb")
	}
	defer cur.Close(ctx)

	var orgs []*model.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode organizations")
	}

	return orgs, nil
}

// SaveUser saves a user
func (m *Mongo) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return goerr.New("user is nil")
	}
	if user.ID == "" {
		return goerr.New("user ID is empty")
	}

	filter := bson.M{"_id": user.ID.String()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.db.Collection(usersCollection).ReplaceOne(ctx, filter, user, opts); err != nil {
		return goerr.Wrap(err, "failed to save user to mongodb")
	}

	return nil
}

// GetUser retrieves a user by ID
func (m *Mongo) GetUser(ctx context.Context, id types.UserID) (*model.User, error) {
	if id == "" {
		return nil, goerr.New("user ID is empty")
	}

	var user model.User
	err := m.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": id.String()}).
		Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("user not found",
			goerr.V("userID", id),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user from mongodb")
	}

	return &user, nil
}

// GetUserBySubject retrieves a user by external auth subject
func (m *Mongo) GetUserBySubject(ctx context.Context, subject types.Subject) (*model.User, error) {
	if subject == "" {
		return nil, goerr.New("subject is empty")
	}

	var user model.User
	err := m.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"subject": subject.String()}).
		Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("user not found",
			goerr.V("subject", subject),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user by subject")
	}

	return &user, nil
}

// ListUsersByOrg lists users belonging to an organization
func (m *Mongo) ListUsersByOrg(ctx context.Context, orgID types.OrgID) ([]*model.User, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.db.Collection(usersCollection).Find(ctx, bson.M{"org_id": orgID.String()}, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users from mongodb")
	}
	defer cur.Close(ctx)

	var users []*model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, goerr.Wrap(err, "failed to decode users")
	}

	return users, nil
}

// SaveSession saves a session
func (m *Mongo) SaveSession(ctx context.Context, session *model.Session) error {
	if session == nil {
		return goerr.New("session is nil")
	}
	if session.ID == "" {
		return goerr.New("session ID is empty")
	}

	filter := bson.M{"_id": session.ID.String()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.db.Collection(sessionsCollection).ReplaceOne(ctx, filter, session, opts); err != nil {
		return goerr.Wrap(err, "failed to save session to mongodb")
	}

	return nil
}

// GetSession retrieves a session by ID
func (m *Mongo) GetSession(ctx context.Context, id types.SessionID) (*model.Session, error) {
	if id == "" {
		return nil, goerr.New("session ID is empty")
	}

	var session model.Session
	err := m.db.Collection(sessionsCollection).
		FindOne(ctx, bson.M{"_id": id.String()}).
		Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("session not found",
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session from mongodb")
	}

	return &session, nil
}

// DeleteSession deletes a session
func (m *Mongo) DeleteSession(ctx context.Context, id types.SessionID) error {
	if id == "" {
		return goerr.New("session ID is empty")
	}

	if _, err := m.db.Collection(sessionsCollection).DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return goerr.Wrap(err, "failed to delete session from mongodb")
	}

	return nil
}

// SaveProduct saves a product
func (m *Mongo) SaveProduct(ctx context.Context, product *model.Product) error {
	if product == nil {
		return goerr.New("product is nil")
	}
	if product.ID == "" {
		return goerr.New("product ID is empty")
	}
	if product.OrgID == "" {
		return goerr.New("product organization ID is empty")
	}

	filter := bson.M{"_id": product.ID.String()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.db.Collection(productsCollection).ReplaceOne(ctx, filter, product, opts); err != nil {
		return goerr.Wrap(err, "failed to save product to mongodb")
	}

	return nil
}

// GetProduct retrieves a product by organization and ID
func (m *Mongo) GetProduct(ctx context.Context, orgID types.OrgID, id types.ProductID) (*model.Product, error) {
	if orgID == "" || id == "" {
		return nil, goerr.New("organization ID and product ID are required")
	}

	var product model.Product
	err := m.db.Collection(productsCollection).
		FindOne(ctx, bson.M{"_id": id.String(), "org_id": orgID.String()}).
		Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("product not found",
			goerr.V("productID", id),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get product from mongodb")
	}

	return &product, nil
}

// ListProductsByOrg lists products for an organization
func (m *Mongo) ListProductsByOrg(ctx context.Context, orgID types.OrgID) ([]*model.Product, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.db.Collection(productsCollection).Find(ctx, bson.M{"org_id": orgID.String()}, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list products from mongodb")
	}
	defer cur.Close(ctx)

	var products []*model.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, goerr.Wrap(err, "failed to decode products")
	}

	return products, nil
}

// SaveOrder saves an order
func (m *Mongo) SaveOrder(ctx context.Context, order *model.Order) error {
	if order == nil {
		return goerr.New("order is nil")
	}
	if order.ID == "" {
		return goerr.New("order ID is empty")
	}
	if order.OrgID == "" {
		return goerr.New("order organization ID is empty")
	}

	filter := bson.M{"_id": order.ID.String()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.db.Collection(ordersCollection).ReplaceOne(ctx, filter, order, opts); err != nil {
		return goerr.Wrap(err, "failed to save order to mongodb")
	}

	return nil
}

// GetOrder retrieves an order by organization and ID
func (m *Mongo) GetOrder(ctx context.Context, orgID types.OrgID, id types.OrderID) (*model.Order, error) {
	if orgID == "" || id == "" {
		return nil, goerr.New("organization ID and order ID are required")
	}

	var order model.Order
	err := m.db.Collection(ordersCollection).
		FindOne(ctx, bson.M{"_id": id.String(), "org_id": orgID.String()}).
		Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, goerr.New("order not found",
			goerr.V("orderID", id),
			goerr.T(apperr.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get order from mongodb")
	}

	return &order, nil
}

// ListOrdersByStatus lists orders filtered by status, newest first
func (m *Mongo) ListOrdersByStatus(ctx context.Context, orgID types.OrgID, status types.OrderStatus, limit int) ([]*model.Order, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	filter := bson.M{"org_id": orgID.String(), "status": status.String()}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.db.Collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list orders from mongodb")
	}
	defer cur.Close(ctx)

	var orders []*model.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, goerr.Wrap(err, "failed to decode orders")
	}

	return orders, nil
}

// ListOrdersSince lists orders created at or after the given time, oldest first
func (m *Mongo) ListOrdersSince(ctx context.Context, orgID types.OrgID, since time.Time) ([]*model.Order, error) {
	if orgID == "" {
		return nil, goerr.New("organization ID is empty")
	}

	filter := bson.M{
		"org_id":     orgID.String(),
		"created_at": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := m.db.Collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list orders from mongodb")
	}
	defer cur.Close(ctx)

	var orders []*model.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, goerr.Wrap(err, "failed to decode orders")
	}

	return orders, nil
}

// DeleteOrdersByOrg deletes all orders of an organization and returns the count
func (m *Mongo) DeleteOrdersByOrg(ctx context.Context, orgID types.OrgID) (int, error) {
	if orgID == "" {
		return 0, goerr.New("organization ID is empty")
	}

	res, err := m.db.Collection(ordersCollection).DeleteMany(ctx, bson.M{"org_id": orgID.String()})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete orders from mongodb")
	}

	return int(res.DeletedCount), nil
}

// Close disconnects the MongoDB client
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
