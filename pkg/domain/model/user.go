package model

import (
	"time"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// User represents a back-office user. OrgID is empty only for a user with
// the owner role who has not finished onboarding yet.
type User struct {
	ID        types.UserID  `json:"id" bson:"_id"`
	Subject   types.Subject `json:"subject" bson:"subject"`
	Email     string        `json:"email" bson:"email"`
	Name      string        `json:"name" bson:"name"`
	Role      types.Role    `json:"role" bson:"role"`
	OrgID     types.OrgID   `json:"org_id,omitempty" bson:"org_id,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// NewUser creates a new User instance
func NewUser(subject types.Subject, name, email string, role types.Role) *User {
	now := time.Now()
	return &User{
		ID:        types.NewUserID(),
		Subject:   subject,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasOrganization reports whether the user is linked to an organization
func (u *User) HasOrganization() bool {
	return u.OrgID != ""
}
