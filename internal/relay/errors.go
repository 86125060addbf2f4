package relay

import "errors"

var (
	// ErrConfiguration marks a missing or invalid configuration value. It is
	// fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrDecode marks a payload that could not be decoded.
	ErrDecode = errors.New("decode error")

	// ErrDependency marks a failed call to the event bus or the store.
	ErrDependency = errors.New("dependency error")

	// ErrMissingField marks a delivered event without the fields the
	// subscriber requires.
	ErrMissingField = errors.New("missing field")
)
