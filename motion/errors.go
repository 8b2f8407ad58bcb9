package motion

import "errors"

var (
	ErrInvalidPointerCount = errors.New("invalid pointer count")
	ErrArrayLength         = errors.New("array shorter than pointer count")
	ErrPointerIndex        = errors.New("pointer index out of range")
	ErrHistoryPos          = errors.New("history position out of range")
	ErrAxisCapacity        = errors.New("axis storage full")
	ErrUnencodableMask     = errors.New("axis mask not representable in a frame element")
	ErrProtocol            = errors.New("malformed wire frame")
)
