package catalog

import "errors"

var (
	// ErrDataUnavailable means the catalog source could not be fetched or parsed as a whole.
	ErrDataUnavailable = errors.New("catalog data unavailable")

	// ErrSchemaMismatch means required columns are missing from the source.
	ErrSchemaMismatch = errors.New("catalog schema mismatch")

	// ErrNotFound means the company has no catalog record. It is an expected outcome.
	ErrNotFound = errors.New("company not found in catalog")
)
