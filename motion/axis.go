package motion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neuroplastio/neio-draw/pkg/bits"
	"go.uber.org/zap"
)

// Axis addresses a scalar channel of a pointer sample.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisPressure
	AxisSize
	AxisTouchMajor
	AxisTouchMinor
	AxisToolMajor
	AxisToolMinor
	AxisOrientation
)

const (
	// MaxAxis is the highest addressable axis code.
	MaxAxis Axis = bits.MaskSize - 1
	// MaxAxisValues is the number of axes a single PointerCoords can hold at once.
	MaxAxisValues = 30
)

var axisNames = map[Axis]string{
	AxisX:           "x",
	AxisY:           "y",
	AxisPressure:    "pressure",
	AxisSize:        "size",
	AxisTouchMajor:  "touchMajor",
	AxisTouchMinor:  "touchMinor",
	AxisToolMajor:   "toolMajor",
	AxisToolMinor:   "toolMinor",
	AxisOrientation: "orientation",
}

func (a Axis) String() string {
	if name, ok := axisNames[a]; ok {
		return name
	}
	return "axis" + strconv.Itoa(int(a))
}

func (a Axis) Valid() bool {
	return a >= 0 && a <= MaxAxis
}

// PointerCoords stores the non-zero axis values of one pointer sample.
// values[i] belongs to the i-th set bit of mask, counted from bit 0 upward.
type PointerCoords struct {
	mask   bits.Mask
	values []float64
}

// NewPointerCoords returns coordinates with the X and Y axes set.
func NewPointerCoords(x, y float64) PointerCoords {
	var c PointerCoords
	// two axes never exceed capacity
	_ = c.SetAxisValue(AxisX, x)
	_ = c.SetAxisValue(AxisY, y)
	return c
}

func (c *PointerCoords) SetAxisValue(axis Axis, value float64) error {
	if !axis.Valid() {
		log().Warn("ignoring value for unknown axis", zap.Int("axis", int(axis)))
		return nil
	}
	n := int(axis)
	idx := c.mask.IndexOfBit(n)
	if c.mask.HasBit(n) {
		c.values[idx] = value
		return nil
	}
	if value == 0 {
		return nil
	}
	if c.mask.Count() >= MaxAxisValues {
		return fmt.Errorf("%w: cannot set %s", ErrAxisCapacity, axis)
	}
	c.values = append(c.values, 0)
	copy(c.values[idx+1:], c.values[idx:])
	c.values[idx] = value
	c.mask = c.mask.MarkBit(n)
	return nil
}

// MustSetAxisValue is SetAxisValue for callers that treat a full axis storage as a programming error.
func (c *PointerCoords) MustSetAxisValue(axis Axis, value float64) {
	if err := c.SetAxisValue(axis, value); err != nil {
		panic(err)
	}
}

func (c PointerCoords) AxisValue(axis Axis) float64 {
	if !axis.Valid() {
		log().Warn("reading unknown axis", zap.Int("axis", int(axis)))
		return 0
	}
	n := int(axis)
	if !c.mask.HasBit(n) {
		return 0
	}
	return c.values[c.mask.IndexOfBit(n)]
}

func (c PointerCoords) HasAxis(axis Axis) bool {
	return c.mask.HasBit(int(axis))
}

func (c PointerCoords) X() float64 {
	return c.AxisValue(AxisX)
}

func (c PointerCoords) Y() float64 {
	return c.AxisValue(AxisY)
}

func (c PointerCoords) Mask() bits.Mask {
	return c.mask
}

// Len returns the number of stored axes.
func (c PointerCoords) Len() int {
	return len(c.values)
}

func (c *PointerCoords) Clear() {
	c.mask = 0
	c.values = c.values[:0]
}

func (c PointerCoords) Copy() PointerCoords {
	values := make([]float64, len(c.values))
	copy(values, c.values)
	return PointerCoords{
		mask:   c.mask,
		values: values,
	}
}

func (c PointerCoords) Equal(other PointerCoords) bool {
	if c.mask != other.mask || len(c.values) != len(other.values) {
		return false
	}
	for i, v := range c.values {
		if v != other.values[i] {
			return false
		}
	}
	return true
}

// Each calls f for every stored axis in ascending axis order until f returns false.
func (c PointerCoords) Each(f func(axis Axis, value float64) bool) {
	c.mask.Each(func(i, bit int) bool {
		return f(Axis(bit), c.values[i])
	})
}

func (c PointerCoords) String() string {
	var parts []string
	c.Each(func(axis Axis, value float64) bool {
		parts = append(parts, fmt.Sprintf("%s=%g", axis, value))
		return true
	})
	return "{" + strings.Join(parts, ", ") + "}"
}
