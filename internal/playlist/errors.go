package playlist

import "errors"

// Domain errors for playlist sources.
var (
	ErrEmptyID        = errors.New("source id cannot be empty")
	ErrEmptyURL       = errors.New("source url cannot be empty")
	ErrInvalidURL     = errors.New("source url must be an absolute http(s) url")
	ErrInvalidAlias   = errors.New("source alias must differ from its id")
	ErrUnknownDialect = errors.New("unknown playlist dialect")
)
