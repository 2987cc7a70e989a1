package model

import (
	"time"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// Organization represents a tenant: one D2C store addressed by a unique
// subdomain slug. RemoteOrgID is filled in asynchronously once the identity
// provider organization has been provisioned; it may stay empty when the
// provider is degraded without affecting local usability.
type Organization struct {
	ID                  types.OrgID       `json:"id" bson:"_id"`
	Slug                types.Slug        `json:"slug" bson:"slug"`
	Name                string            `json:"name" bson:"name"`
	OwnerUserID         types.UserID      `json:"owner_user_id" bson:"owner_user_id"`
	RemoteOrgID         types.RemoteOrgID `json:"remote_org_id,omitempty" bson:"remote_org_id,omitempty"`
	OnboardingCompleted bool              `json:"onboarding_completed" bson:"onboarding_completed"`
	Active              bool              `json:"active" bson:"active"`
	CourierConnected    bool              `json:"courier_connected" bson:"courier_connected"`
	CreatedAt           time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" bson:"updated_at"`
}

// NewOrganization creates a new Organization owned by the given user
func NewOrganization(slug types.Slug, name string, ownerUserID types.UserID) *Organization {
	now := time.Now()
	return &Organization{
		ID:          types.NewOrgID(),
		Slug:        slug,
		Name:        name,
		OwnerUserID: ownerUserID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
