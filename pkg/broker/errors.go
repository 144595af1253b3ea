package broker

import "errors"

// Configuration outcomes. Any of them puts the adapter into the disabled state.
var (
	ErrDisabled         = errors.New("broker disabled by configuration")
	ErrMissingHost      = errors.New("broker host or port not configured")
	ErrPlaceholderValue = errors.New("broker settings contain a placeholder value")
	ErrInvalidPort      = errors.New("broker port must be an integer between 1 and 65535")
)

// Runtime errors.
var (
	ErrUnavailable     = errors.New("broker is not connected")
	ErrPublishFailed   = errors.New("broker publish failed")
	ErrSubscribeFailed = errors.New("broker subscribe failed")
	ErrLinkClosed      = errors.New("broker link closed")
	ErrAlreadyStarted  = errors.New("broker supervisor already started")
)
