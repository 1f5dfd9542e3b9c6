package services

import "errors"

// ErrInvalidFilter marks a list query rejected during validation, before any
// repository call. Handlers map it to a 400 instead of a 500.
var ErrInvalidFilter = errors.New("invalid filter")
