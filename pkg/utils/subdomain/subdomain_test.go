package subdomain_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/subdomain"
)

func TestResolve(t *testing.T) {
	r := subdomain.NewResolver("whatthepack.today")

	tests := []struct {
		hostname string
		tenant   types.Slug
		ok       bool
	}{
		{"localhost", "", false},
		{"127.0.0.1", "", false},
		{"whatthepack.today", "", false},
		{"dev.whatthepack.today", "", false},
		{"acme.whatthepack.today", "acme", true},
		{"acme.dev.whatthepack.today", "acme", true},
		{"www.whatthepack.today", "", false},
		{"app.whatthepack.today", "", false},
		{"www.dev.whatthepack.today", "", false},
		{"acme.localhost", "acme", true},
		{"www.localhost", "", false},
		{"acme.localhost:3000", "acme", true},
		{"acme.whatthepack.today:443", "acme", true},
		{"ACME.Whatthepack.Today", "acme", true},
		{"bunga-mawar.whatthepack.today", "bunga-mawar", true},
		{"example.com", "", false},
		{"acme.example.com", "", false},
		{"deep.acme.example.com", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		name := tt.hostname
		if name == "" {
			name = "(empty)"
		}
		t.Run(name, func(t *testing.T) {
			tenant, ok := r.Resolve(tt.hostname)
			gt.Equal(t, ok, tt.ok)
			gt.Equal(t, tenant, tt.tenant)
		})
	}
}
