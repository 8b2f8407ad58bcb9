package motion

const (
	ActionDown = iota
	ActionUp
	ActionMove
	ActionCancel
	ActionOutside
	ActionPointerDown
	ActionPointerUp
)

const (
	ActionMask              = 0xff
	ActionPointerIndexMask  = 0xff00
	ActionPointerIndexShift = 8
)

// MakePointerAction packs a pointer index into a pointer-specific action code.
func MakePointerAction(action, pointerIndex int) int {
	return action&ActionMask | pointerIndex<<ActionPointerIndexShift&ActionPointerIndexMask
}

func ActionString(action int) string {
	switch action & ActionMask {
	case ActionDown:
		return "DOWN"
	case ActionUp:
		return "UP"
	case ActionMove:
		return "MOVE"
	case ActionCancel:
		return "CANCEL"
	case ActionOutside:
		return "OUTSIDE"
	case ActionPointerDown:
		return "POINTER_DOWN"
	case ActionPointerUp:
		return "POINTER_UP"
	}
	return "UNKNOWN"
}
