package session

import "errors"

var (
	// ErrUnknownSession is returned when an operation targets a session that was never registered or already removed.
	ErrUnknownSession = errors.New("session: unknown session")

	// ErrEmptyRoom is returned when joining or leaving a room with an empty tag.
	ErrEmptyRoom = errors.New("session: empty room tag")
)
