package featureflag

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// Store is the system of record for flags.
//
// Every read excludes soft-deleted flags. Lookups and mutations of an absent
// or soft-deleted flag return feature.ErrFlagNotFound. Returned flags are
// owned by the caller.
type Store interface {
	// Insert persists a new flag, assigning its ID and CreatedAt.
	// It returns feature.ErrFlagExists if a live flag already uses the code.
	Insert(ctx context.Context, flag *feature.Flag) (uuid.UUID, error)

	FindByID(ctx context.Context, id uuid.UUID) (*feature.Flag, error)
	FindByCode(ctx context.Context, code string) (*feature.Flag, error)

	// UpdateEnabled flips the master switch and sets UpdatedAt.
	UpdateEnabled(ctx context.Context, code string, enabled bool) (*feature.Flag, error)

	// Update replaces name, description, enabled and rule, and sets UpdatedAt.
	// ID, code and CreatedAt are kept.
	Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error)

	// UpdateFields applies the non-nil fields of patch and sets UpdatedAt.
	UpdateFields(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error)

	// SoftDelete sets DeletedAt and returns the flag as it was deleted.
	SoftDelete(ctx context.Context, code string) (*feature.Flag, error)

	// Query returns live flags matching q, ordered by code ascending.
	// Count is the number of matches ignoring q.Limit and q.Offset.
	Query(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error)
}
