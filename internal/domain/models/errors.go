package models

import "errors"

// Feed failure taxonomy. Loaders catch these at their boundary and convert
// them into an empty snapshot plus a Notice; they never abort a refresh.
var (
	// ErrSourceUnavailable: storage unreachable or access denied.
	ErrSourceUnavailable = errors.New("feed source unavailable")

	// ErrSchemaMismatch: the object does not carry the columns the feed
	// schema expects (or no row does).
	ErrSchemaMismatch = errors.New("feed schema mismatch")

	// ErrEmptyAfterFilter: every row was dropped during validation.
	ErrEmptyAfterFilter = errors.New("feed empty after filtering")
)
