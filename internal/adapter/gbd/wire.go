package gbd

import "github.com/lbwsg/get-draws/internal/domain"

// LocationsResponse is the body of GET /v1/locations.
type LocationsResponse struct {
	Locations []domain.LocationRecord `json:"locations"`
}

// AgeGroup is one row of an age group set.
type AgeGroup struct {
	ID   int    `json:"age_group_id"`
	Name string `json:"age_group_name"`
}

// AgeGroupsResponse is the body of GET /v1/age-groups.
type AgeGroupsResponse struct {
	AgeGroups []AgeGroup `json:"age_groups"`
}

// ErrorResponse is the body of every non-200 answer. POST /v1/draws answers
// with a domain.DrawsTable directly.
type ErrorResponse struct {
	Error string `json:"error"`
}
