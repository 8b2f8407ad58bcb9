package bits

import (
	"fmt"
	mathbits "math/bits"
)

// MaskSize is the number of addressable bits in a Mask.
const MaskSize = 64

// Mask is a 64-slot presence bitmap.
type Mask uint64

func (m Mask) HasBit(n int) bool {
	if n < 0 || n >= MaskSize {
		return false
	}
	return m&(1<<uint(n)) != 0
}

func (m Mask) MarkBit(n int) Mask {
	if n < 0 || n >= MaskSize {
		return m
	}
	return m | 1<<uint(n)
}

func (m Mask) ClearBit(n int) Mask {
	if n < 0 || n >= MaskSize {
		return m
	}
	return m &^ (1 << uint(n))
}

// IndexOfBit returns the number of set bits strictly below n.
func (m Mask) IndexOfBit(n int) int {
	switch {
	case n <= 0:
		return 0
	case n >= MaskSize:
		return m.Count()
	}
	return mathbits.OnesCount64(uint64(m) & (1<<uint(n) - 1))
}

func (m Mask) Count() int {
	return mathbits.OnesCount64(uint64(m))
}

func (m Mask) IsEmpty() bool {
	return m == 0
}

// FirstBit returns the lowest set bit, or -1 for an empty mask.
func (m Mask) FirstBit() int {
	if m == 0 {
		return -1
	}
	return mathbits.TrailingZeros64(uint64(m))
}

// Each calls f with the position of every set bit in ascending order until f returns false.
func (m Mask) Each(f func(i, bit int) bool) {
	i := 0
	for rest := m; rest != 0; rest &= rest - 1 {
		if !f(i, mathbits.TrailingZeros64(uint64(rest))) {
			return
		}
		i++
	}
}

func (m Mask) String() string {
	return fmt.Sprintf("%064b", uint64(m))
}
