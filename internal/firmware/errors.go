package firmware

import "errors"

var (
	// ErrUnsupportedFunction is returned for unknown function or
	// sub-function codes.
	ErrUnsupportedFunction = errors.New("firmware: unsupported function")

	// ErrInvalidSignature is returned when a memory map enumeration call
	// carries the wrong signature constant.
	ErrInvalidSignature = errors.New("firmware: invalid signature")

	// ErrInvalidCursor is returned when an enumeration cursor does not
	// name an entry in the memory map.
	ErrInvalidCursor = errors.New("firmware: invalid cursor")

	// ErrUnsupportedRecordSize is returned when the caller's record size
	// does not match the fixed entry encoding.
	ErrUnsupportedRecordSize = errors.New("firmware: unsupported record size")

	// ErrModeTransition reports that the protected-mode block move could
	// not be constructed safely. On real hardware this class of fault is
	// fatal; the emulated transition refuses to start instead.
	ErrModeTransition = errors.New("firmware: mode transition fault")
)
