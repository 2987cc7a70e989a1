package subdomain

import (
	"net"
	"strings"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/slugify"
)

// Resolver extracts the tenant slug from a request hostname. The platform
// root domain and its "dev" environment root carry no tenant; reserved
// labels never resolve to one.
type Resolver struct {
	// BaseDomain is the platform root, e.g. "whatthepack.today"
	BaseDomain string
}

// NewResolver creates a Resolver for the given platform root domain
func NewResolver(baseDomain string) *Resolver {
	return &Resolver{BaseDomain: strings.ToLower(baseDomain)}
}

// Resolve returns the tenant slug for a hostname, or ok=false when the
// hostname addresses no tenant (platform roots, reserved labels, dev/local
// hosts, anything unrecognized).
func (r *Resolver) Resolve(hostname string) (types.Slug, bool) {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")

	switch host {
	case "", "localhost", "127.0.0.1", r.BaseDomain, "dev." + r.BaseDomain:
		return "", false
	}

	labels := strings.Split(host, ".")
	first := types.Slug(labels[0])

	// tenant.localhost for local development
	if strings.HasSuffix(host, ".localhost") && len(labels) >= 2 {
		if slugify.Reserved[first] {
			return "", false
		}
		return first, true
	}

	// tenant.basedomain.tld (3 labels) or tenant.dev.basedomain.tld (>=4)
	if strings.HasSuffix(host, "."+r.BaseDomain) && len(labels) >= 3 {
		if slugify.Reserved[first] {
			return "", false
		}
		return first, true
	}

	return "", false
}
