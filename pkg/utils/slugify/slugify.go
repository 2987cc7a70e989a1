package slugify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

const (
	maxSlugLength = 48
	fallbackSlug  = "store"

	// maxCandidates bounds the uniqueness search; beyond this the base name
	// is considered exhausted
	maxCandidates = 1000
)

// Reserved lists subdomain labels that can never be tenant slugs
var Reserved = map[types.Slug]bool{
	"www": true,
	"app": true,
	"dev": true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize converts a human-provided business name into a URL-safe slug
// candidate. It is deterministic, idempotent, and never fails: an input that
// normalizes to nothing yields the fallback literal.
func Normalize(input string) types.Slug {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
		s = strings.Trim(s, "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return types.Slug(s)
}

// ExistsFunc reports whether a slug is already taken
type ExistsFunc func(ctx context.Context, slug types.Slug) (bool, error)

// GenerateUnique returns the first of base, base-2, base-3, ... that is
// neither reserved nor already taken. The search is capped so a pathological
// dataset fails instead of looping forever.
func GenerateUnique(ctx context.Context, exists ExistsFunc, base types.Slug) (types.Slug, error) {
	if base == "" {
		base = fallbackSlug
	}

	for i := 1; i <= maxCandidates; i++ {
		candidate := base
		if i > 1 {
			candidate = types.Slug(fmt.Sprintf("%s-%d", base, i))
		}
		if Reserved[candidate] {
			continue
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", goerr.Wrap(err, "failed to check slug existence",
				goerr.V("candidate", candidate))
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", goerr.New("no available slug for base name",
		goerr.V("base", base),
		goerr.T(apperr.ErrTagSlugExhausted))
}
