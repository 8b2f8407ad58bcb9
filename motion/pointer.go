package motion

import "fmt"

type ToolType int

const (
	ToolTypeUnknown ToolType = iota
	ToolTypeFinger
	ToolTypeStylus
	ToolTypeMouse
	ToolTypeEraser
)

func (t ToolType) Valid() bool {
	return t >= ToolTypeUnknown && t <= ToolTypeEraser
}

func (t ToolType) String() string {
	switch t {
	case ToolTypeFinger:
		return "finger"
	case ToolTypeStylus:
		return "stylus"
	case ToolTypeMouse:
		return "mouse"
	case ToolTypeEraser:
		return "eraser"
	}
	return "unknown"
}

// InvalidPointerID marks a PointerProperties that does not identify a pointer.
const InvalidPointerID = -1

// PointerProperties identifies a pointer across the samples of a gesture.
type PointerProperties struct {
	ID       int
	ToolType ToolType
}

func (p *PointerProperties) Clear() {
	p.ID = InvalidPointerID
	p.ToolType = ToolTypeUnknown
}

func (p PointerProperties) String() string {
	return fmt.Sprintf("%d/%s", p.ID, p.ToolType)
}
