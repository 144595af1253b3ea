package gateway

import "errors"

var (
	ErrIdentityRequired = errors.New("identity required")
	ErrAuthRequired     = errors.New("authentication required")
	ErrUnknownEvent     = errors.New("unknown event kind")
)
