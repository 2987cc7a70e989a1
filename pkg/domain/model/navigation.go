package model

import "github.com/whatthepack/whatthepack/pkg/domain/types"

// LookupState is the tri-state result of an asynchronous lookup
type LookupState string

const (
	LookupLoading  LookupState = "loading"
	LookupNotFound LookupState = "not_found"
	LookupFound    LookupState = "found"
)

// OrgLookup carries the tri-state result of resolving an organization.
// Org is set only when State is LookupFound.
type OrgLookup struct {
	State LookupState
	Org   *Organization
}

// OrgLoading returns a lookup that has not completed yet
func OrgLoading() OrgLookup {
	return OrgLookup{State: LookupLoading}
}

// OrgNotFound returns a lookup that completed with no match
func OrgNotFound() OrgLookup {
	return OrgLookup{State: LookupNotFound}
}

// OrgFound returns a completed lookup
func OrgFound(org *Organization) OrgLookup {
	return OrgLookup{State: LookupFound, Org: org}
}

// NavigationOutcome enumerates what the client should render or do next
type NavigationOutcome string

const (
	NavMarketing   NavigationOutcome = "marketing"
	NavLoading     NavigationOutcome = "loading"
	NavOrgNotFound NavigationOutcome = "org_not_found"
	NavLogin       NavigationOutcome = "login"
	NavRedirect    NavigationOutcome = "redirect"
	NavOnboarding  NavigationOutcome = "onboarding"
	NavDashboard   NavigationOutcome = "dashboard"
	NavPendingRole NavigationOutcome = "pending_role"
)

// Navigation is the decision produced by the tenant routing state machine
type Navigation struct {
	Outcome NavigationOutcome `json:"outcome"`
	// RedirectURL is set for NavRedirect: the canonical subdomain URL with
	// the original path preserved
	RedirectURL string `json:"redirect_url,omitempty"`
	// RemoteOrgID pre-arms the identity provider login for NavLogin
	RemoteOrgID types.RemoteOrgID `json:"remote_org_id,omitempty"`
}
