package session

import "errors"

var (
	// ErrNoActiveSession is returned by Send before Create or Resume, or after Clear.
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidSpec     = errors.New("invalid session spec")
)
