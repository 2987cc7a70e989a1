package types

import (
	"regexp"

	"github.com/google/uuid"
)

// OrgID represents an organization identifier
type OrgID string

// String returns the string representation
func (id OrgID) String() string {
	return string(id)
}

// NewOrgID creates a new OrgID
func NewOrgID() OrgID {
	return OrgID(uuid.New().String())
}

// UserID represents a user identifier
type UserID string

// String returns the string representation
func (id UserID) String() string {
	return string(id)
}

// NewUserID creates a new UserID
func NewUserID() UserID {
	return UserID(uuid.New().String())
}

// Subject represents the external auth subject identifier (e.g. "auth0|abc123")
type Subject string

// String returns the string representation
func (s Subject) String() string {
	return string(s)
}

// RemoteOrgID represents the identity provider's organization identifier
type RemoteOrgID string

// String returns the string representation
func (id RemoteOrgID) String() string {
	return string(id)
}

// Slug represents a tenant subdomain label
type Slug string

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,48}$`)

// String returns the string representation
func (s Slug) String() string {
	return string(s)
}

// IsValid reports whether the slug matches [a-z0-9-]{3,48}
func (s Slug) IsValid() bool {
	return slugPattern.MatchString(string(s))
}

// SessionID represents a session identifier
type SessionID string

// String returns the string representation
func (id SessionID) String() string {
	return string(id)
}

// NewSessionID creates a new SessionID using UUID v7
func NewSessionID() (SessionID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return SessionID(id.String()), nil
}

// SessionSecret represents a session secret token
type SessionSecret string

// String returns the string representation
func (s SessionSecret) String() string {
	return string(s)
}

// ProductID represents a product identifier
type ProductID string

// String returns the string representation
func (id ProductID) String() string {
	return string(id)
}

// NewProductID creates a new ProductID
func NewProductID() ProductID {
	return ProductID(uuid.New().String())
}

// OrderID represents an order identifier
type OrderID string

// String returns the string representation
func (id OrderID) String() string {
	return string(id)
}

// NewOrderID creates a new OrderID
func NewOrderID() OrderID {
	return OrderID(uuid.New().String())
}
