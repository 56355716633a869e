package httpapi

import "errors"

var (
	errUnauthorized = errors.New("missing or invalid API key")
	errBusy         = errors.New("a pipeline cycle is already running")
)
