package domain

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Location set ids searched when resolving a name.
const (
	ReportingLocationSetID    = 1
	ModelResultsLocationSetID = 35
)

// LocationRecord is the (id, name) projection of a location-metadata row.
type LocationRecord struct {
	ID   int    `json:"location_id"`
	Name string `json:"location_name"`
}

// LocationIndex maps normalized location names to location ids.
type LocationIndex map[string]int

// MergeLocations appends modelResults after reporting and drops exact
// duplicate rows, keeping the first occurrence and the original order.
func MergeLocations(reporting, modelResults []LocationRecord) []LocationRecord {
	merged := make([]LocationRecord, 0, len(reporting)+len(modelResults))
	seen := make(map[LocationRecord]struct{}, len(reporting)+len(modelResults))
	for _, set := range [][]LocationRecord{reporting, modelResults} {
		for _, r := range set {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// NewLocationIndex indexes records by name. When two records share a name
// with different ids, the later record wins.
func NewLocationIndex(records []LocationRecord) LocationIndex {
	ix := make(LocationIndex, len(records))
	for _, r := range records {
		ix[normalizeName(r.Name)] = r.ID
	}
	return ix
}

// Lookup returns the id for name or an error wrapping ErrLocationNotFound.
func (ix LocationIndex) Lookup(name string) (int, error) {
	id, ok := ix[normalizeName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return id, nil
}

// normalizeName puts a name into Unicode NFC so "Côte d'Ivoire" typed with a
// combining accent still matches the metadata spelling.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}
