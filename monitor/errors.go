package monitor

import "errors"

var (
	// ErrClosed is returned when feeding a closed session.
	ErrClosed = errors.New("monitor: session closed")
	// ErrInvalidConfig reports an option outside its allowed range.
	ErrInvalidConfig = errors.New("monitor: invalid configuration")
	// ErrInvalidRule reports a highlight rule that cannot be compiled.
	ErrInvalidRule = errors.New("monitor: invalid highlight rule")
)
