package motion

import (
	"fmt"
	"math"

	"github.com/neuroplastio/neio-draw/pkg/bits"
)

// Frame is the flat numeric sequence that carries coordinates and events across a boundary.
// Every element is a float64, so an axis mask travels exactly only while its value fits in 53 bits.
// Masks with axes above 52 set may fail to encode with ErrUnencodableMask.
type Frame []float64

// maxExactInteger is the largest integer a float64 frame element holds without rounding.
const maxExactInteger = 1 << 53

// FrameWriter appends values to a Frame.
type FrameWriter struct {
	frame Frame
}

func NewFrameWriter(capacity int) *FrameWriter {
	return &FrameWriter{frame: make(Frame, 0, capacity)}
}

func (w *FrameWriter) WriteFloat(v float64) {
	w.frame = append(w.frame, v)
}

func (w *FrameWriter) WriteInt(v int) {
	w.frame = append(w.frame, float64(v))
}

func (w *FrameWriter) WriteMask(m bits.Mask) error {
	v := float64(uint64(m))
	if v >= math.Exp2(64) || bits.Mask(uint64(v)) != m {
		return fmt.Errorf("%w: %#x", ErrUnencodableMask, uint64(m))
	}
	w.frame = append(w.frame, v)
	return nil
}

func (w *FrameWriter) Len() int {
	return len(w.frame)
}

// Frame returns the written values. The writer must not be used afterwards.
func (w *FrameWriter) Frame() Frame {
	return w.frame
}

// Cursor reads a Frame strictly left to right.
type Cursor struct {
	frame Frame
	pos   int
}

func NewCursor(frame Frame) *Cursor {
	return &Cursor{frame: frame}
}

func (c *Cursor) Remaining() int {
	return len(c.frame) - c.pos
}

func (c *Cursor) Pos() int {
	return c.pos
}

func (c *Cursor) NextFloat(field string) (float64, error) {
	if c.pos >= len(c.frame) {
		return 0, fmt.Errorf("%w: frame ended before %s at element %d", ErrProtocol, field, c.pos)
	}
	v := c.frame[c.pos]
	c.pos++
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s at element %d is not finite", ErrProtocol, field, c.pos-1)
	}
	return v, nil
}

func (c *Cursor) NextInt(field string) (int, error) {
	v, err := c.NextFloat(field)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) >= maxExactInteger {
		return 0, fmt.Errorf("%w: %s at element %d is not an integer: %g", ErrProtocol, field, c.pos-1, v)
	}
	return int(v), nil
}

func (c *Cursor) NextMask(field string) (bits.Mask, error) {
	v, err := c.NextFloat(field)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != math.Trunc(v) || v >= math.Exp2(64) {
		return 0, fmt.Errorf("%w: %s at element %d is not a mask: %g", ErrProtocol, field, c.pos-1, v)
	}
	return bits.Mask(uint64(v)), nil
}

// WriteToParcel appends the mask followed by one value per set bit in ascending axis order.
func (c PointerCoords) WriteToParcel(w *FrameWriter) error {
	if err := w.WriteMask(c.mask); err != nil {
		return err
	}
	for _, v := range c.values {
		w.WriteFloat(v)
	}
	return nil
}

// ReadFromParcel replaces the coordinates with the next mask and values from the cursor.
// It returns false when the mask holds more than MaxAxisValues axes or the cursor runs out.
func (c *PointerCoords) ReadFromParcel(cur *Cursor) bool {
	mask, err := cur.NextMask("axis mask")
	if err != nil {
		return false
	}
	count := mask.Count()
	if count > MaxAxisValues || count > cur.Remaining() {
		return false
	}
	values := make([]float64, count)
	for i := range values {
		v, err := cur.NextFloat("axis value")
		if err != nil {
			return false
		}
		values[i] = v
	}
	c.mask = mask
	c.values = values
	return true
}
