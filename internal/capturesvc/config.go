package capturesvc

import (
	"fmt"
	"time"

	"github.com/neuroplastio/neio-draw/internal/configsvc"
	"github.com/neuroplastio/neio-draw/motion"
)

// Bounds is the tracked rectangle client coordinates are normalized against.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) normalize(clientX, clientY float64) (float64, float64) {
	x := clientX - b.Left
	y := clientY - b.Top
	if b.Width > 0 {
		x /= b.Width
	}
	if b.Height > 0 {
		y /= b.Height
	}
	return x, y
}

type Config struct {
	DebounceWait configsvc.Duration `json:"debounceWait"`
	MaxWait      configsvc.Duration `json:"maxWait"`
	Bounds       Bounds             `json:"bounds"`
	MaxPointers  int                `json:"maxPointers"`
}

func DefaultConfig() Config {
	return Config{
		DebounceWait: configsvc.Duration(16 * time.Millisecond),
		MaxWait:      configsvc.Duration(64 * time.Millisecond),
		Bounds:       Bounds{Width: 1, Height: 1},
		MaxPointers:  motion.MaxFramePointers,
	}
}

func (c Config) Validate() error {
	if c.DebounceWait < 0 {
		return fmt.Errorf("debounceWait must not be negative")
	}
	if c.MaxWait < 0 {
		return fmt.Errorf("maxWait must not be negative")
	}
	if c.MaxPointers < 1 || c.MaxPointers > motion.MaxFramePointers {
		return fmt.Errorf("maxPointers must be in [1, %d]", motion.MaxFramePointers)
	}
	return nil
}
