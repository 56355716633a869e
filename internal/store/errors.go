package store

import "errors"

// ErrNotFound is returned by single-row lookups that found no row.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExported is returned when an export insert would violate the
// per-(business, platform) unique constraint that is the exporter's
// idempotency anchor: a business is never exported twice to the same platform.
var ErrAlreadyExported = errors.New("store: business already exported for platform")
