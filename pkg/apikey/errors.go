package apikey

import "errors"

var (
	ErrMissingKey = errors.New("API key is required")
	ErrInvalidKey = errors.New("invalid API key")
)
