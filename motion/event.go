// Package motion models batches of simultaneous pointer contacts and their flat numeric wire encoding.
//
// A MotionEvent holds a fixed set of pointers and one or more time-stamped samples. The most
// recent sample is the current one; earlier samples form the history, oldest first.
// Offsets are applied when X and Y are read, never when they are stored.
package motion

import (
	"fmt"
	"strings"
)

type sample struct {
	eventTime float64
	coords    []PointerCoords
}

type MotionEvent struct {
	action  int
	flags   int
	offsetX float64
	offsetY float64

	pointers []PointerProperties
	samples  []sample
}

// Obtain creates an event with a single sample. Only the first pointerCount entries of props and
// coords are used; coordinates are copied.
func Obtain(eventTime float64, action int, offsetX, offsetY float64, pointerCount int, props []PointerProperties, coords []PointerCoords, flags int) (*MotionEvent, error) {
	if pointerCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPointerCount, pointerCount)
	}
	if len(props) < pointerCount {
		return nil, fmt.Errorf("%w: %d pointer properties for %d pointers", ErrArrayLength, len(props), pointerCount)
	}
	if len(coords) < pointerCount {
		return nil, fmt.Errorf("%w: %d pointer coords for %d pointers", ErrArrayLength, len(coords), pointerCount)
	}
	pointers := make([]PointerProperties, pointerCount)
	copy(pointers, props)
	return &MotionEvent{
		action:   action,
		flags:    flags,
		offsetX:  offsetX,
		offsetY:  offsetY,
		pointers: pointers,
		samples:  []sample{newSample(eventTime, coords[:pointerCount])},
	}, nil
}

func newSample(eventTime float64, coords []PointerCoords) sample {
	s := sample{
		eventTime: eventTime,
		coords:    make([]PointerCoords, len(coords)),
	}
	for i, c := range coords {
		s.coords[i] = c.Copy()
	}
	return s
}

// AddBatch appends a new current sample. The previous current sample becomes the newest history entry.
func (e *MotionEvent) AddBatch(eventTime float64, coords []PointerCoords) error {
	if len(coords) < len(e.pointers) {
		return fmt.Errorf("%w: %d pointer coords for %d pointers", ErrArrayLength, len(coords), len(e.pointers))
	}
	e.samples = append(e.samples, newSample(eventTime, coords[:len(e.pointers)]))
	return nil
}

func (e *MotionEvent) Action() int {
	return e.action
}

func (e *MotionEvent) ActionMasked() int {
	return e.action & ActionMask
}

// ActionIndex returns the pointer index packed into a POINTER_DOWN or POINTER_UP action.
func (e *MotionEvent) ActionIndex() int {
	return (e.action & ActionPointerIndexMask) >> ActionPointerIndexShift
}

func (e *MotionEvent) Flags() int {
	return e.flags
}

func (e *MotionEvent) OffsetX() float64 {
	return e.offsetX
}

func (e *MotionEvent) OffsetY() float64 {
	return e.offsetY
}

func (e *MotionEvent) PointerCount() int {
	return len(e.pointers)
}

func (e *MotionEvent) HistorySize() int {
	return len(e.samples) - 1
}

func (e *MotionEvent) EventTime() float64 {
	return e.current().eventTime
}

func (e *MotionEvent) HistoricalEventTime(pos int) float64 {
	return e.historical(pos).eventTime
}

func (e *MotionEvent) PointerProperties(pointerIndex int) PointerProperties {
	e.checkPointer(pointerIndex)
	return e.pointers[pointerIndex]
}

func (e *MotionEvent) PointerID(pointerIndex int) int {
	return e.PointerProperties(pointerIndex).ID
}

func (e *MotionEvent) ToolType(pointerIndex int) ToolType {
	return e.PointerProperties(pointerIndex).ToolType
}

// FindPointerIndex returns the index of the pointer with the given id, or -1.
func (e *MotionEvent) FindPointerIndex(id int) int {
	for i, p := range e.pointers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PointerCoords returns a copy of the current coordinates of a pointer, without offsets.
func (e *MotionEvent) PointerCoords(pointerIndex int) PointerCoords {
	e.checkPointer(pointerIndex)
	return e.current().coords[pointerIndex].Copy()
}

func (e *MotionEvent) HistoricalPointerCoords(pointerIndex, pos int) PointerCoords {
	e.checkPointer(pointerIndex)
	return e.historical(pos).coords[pointerIndex].Copy()
}

func (e *MotionEvent) AxisValue(axis Axis, pointerIndex int) float64 {
	e.checkPointer(pointerIndex)
	return e.current().coords[pointerIndex].AxisValue(axis)
}

func (e *MotionEvent) HistoricalAxisValue(axis Axis, pointerIndex, pos int) float64 {
	e.checkPointer(pointerIndex)
	return e.historical(pos).coords[pointerIndex].AxisValue(axis)
}

func (e *MotionEvent) X(pointerIndex int) float64 {
	return e.AxisValue(AxisX, pointerIndex) + e.offsetX
}

func (e *MotionEvent) Y(pointerIndex int) float64 {
	return e.AxisValue(AxisY, pointerIndex) + e.offsetY
}

func (e *MotionEvent) Pressure(pointerIndex int) float64 {
	return e.AxisValue(AxisPressure, pointerIndex)
}

func (e *MotionEvent) Size(pointerIndex int) float64 {
	return e.AxisValue(AxisSize, pointerIndex)
}

// HistoricalX reads pointer 0 at history position pos.
func (e *MotionEvent) HistoricalX(pos int) float64 {
	return e.HistoricalXForPointer(0, pos)
}

// HistoricalY reads pointer 0 at history position pos.
func (e *MotionEvent) HistoricalY(pos int) float64 {
	return e.HistoricalYForPointer(0, pos)
}

func (e *MotionEvent) HistoricalXForPointer(pointerIndex, pos int) float64 {
	return e.HistoricalAxisValue(AxisX, pointerIndex, pos) + e.offsetX
}

func (e *MotionEvent) HistoricalYForPointer(pointerIndex, pos int) float64 {
	return e.HistoricalAxisValue(AxisY, pointerIndex, pos) + e.offsetY
}

func (e *MotionEvent) current() sample {
	return e.samples[len(e.samples)-1]
}

func (e *MotionEvent) historical(pos int) sample {
	if pos < 0 || pos >= e.HistorySize() {
		panic(fmt.Errorf("%w: %d not in [0, %d)", ErrHistoryPos, pos, e.HistorySize()))
	}
	return e.samples[pos]
}

func (e *MotionEvent) checkPointer(pointerIndex int) {
	if pointerIndex < 0 || pointerIndex >= len(e.pointers) {
		panic(fmt.Errorf("%w: %d not in [0, %d)", ErrPointerIndex, pointerIndex, len(e.pointers)))
	}
}

func (e *MotionEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MotionEvent{action=%s", ActionString(e.action))
	if masked := e.ActionMasked(); masked == ActionPointerDown || masked == ActionPointerUp {
		fmt.Fprintf(&b, "(%d)", e.ActionIndex())
	}
	fmt.Fprintf(&b, ", time=%g, history=%d", e.EventTime(), e.HistorySize())
	current := e.current()
	for i, p := range e.pointers {
		fmt.Fprintf(&b, ", [%d] id=%s x=%g y=%g", i, p, current.coords[i].X()+e.offsetX, current.coords[i].Y()+e.offsetY)
	}
	b.WriteString("}")
	return b.String()
}
