package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationNotFound means the name is in neither location set.
	ErrLocationNotFound = errors.New("location not found")

	// ErrNoData means the draws service answered but has nothing for the request.
	ErrNoData = errors.New("no draws available")

	ErrUnknownMeasure = errors.New("unknown measure")
	ErrUnknownSource  = errors.New("unknown source")
)

// FetchError reports a failed call to one of the remote services. Op names
// the call: "locations", "age_groups" or "draws".
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
