package pipeline

import (
	"context"
	"fmt"

	"github.com/lbwsg/get-draws/internal/domain"
)

// LocationResolver turns location names into ids using the reporting and
// model-results location sets of one round.
type LocationResolver struct {
	meta    MetadataSource
	roundID int
}

// NewLocationResolver creates a resolver for roundID.
func NewLocationResolver(meta MetadataSource, roundID int) *LocationResolver {
	return &LocationResolver{meta: meta, roundID: roundID}
}

// Resolve returns the id for name. It fails with domain.ErrLocationNotFound
// when neither set contains the name, and with a *domain.FetchError when a set
// cannot be fetched.
func (r *LocationResolver) Resolve(ctx context.Context, name string) (int, error) {
	reporting, err := r.fetch(ctx, domain.ReportingLocationSetID)
	if err != nil {
		return 0, err
	}
	modelResults, err := r.fetch(ctx, domain.ModelResultsLocationSetID)
	if err != nil {
		return 0, err
	}
	return domain.NewLocationIndex(domain.MergeLocations(reporting, modelResults)).Lookup(name)
}

func (r *LocationResolver) fetch(ctx context.Context, setID int) ([]domain.LocationRecord, error) {
	records, err := r.meta.Locations(ctx, setID, r.roundID)
	if err != nil {
		return nil, &domain.FetchError{Op: "locations", Err: fmt.Errorf("location set %d: %w", setID, err)}
	}
	return records, nil
}
