package event

import "errors"

var (
	// ErrUnknownChannel is returned when a payload arrives on a channel that does not map to an event kind.
	ErrUnknownChannel = errors.New("event: unknown channel")

	// ErrMalformedPayload is returned when a payload cannot be decoded into its event kind.
	ErrMalformedPayload = errors.New("event: malformed payload")

	// ErrMissingField is returned when a decoded event lacks a field required for routing.
	ErrMissingField = errors.New("event: missing required field")
)
