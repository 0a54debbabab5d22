package constants

import "errors"

// Request errors.
var (
	ErrNilRequest   = errors.New("request is required")
	ErrPathRequired = errors.New("request path must start with /")
)
