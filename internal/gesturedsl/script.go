package gesturedsl

import (
	"context"
	"fmt"
	"time"

	"github.com/neuroplastio/neio-draw/internal/capturesvc"
	"github.com/neuroplastio/neio-draw/motion"
)

var toolTypes = map[string]motion.ToolType{
	"":       motion.ToolTypeFinger,
	"finger": motion.ToolTypeFinger,
	"stylus": motion.ToolTypeStylus,
	"mouse":  motion.ToolTypeMouse,
	"eraser": motion.ToolTypeEraser,
}

var eventTypes = map[string]capturesvc.PointerEventType{
	"down":   capturesvc.PointerDown,
	"move":   capturesvc.PointerMove,
	"up":     capturesvc.PointerUp,
	"cancel": capturesvc.PointerCancel,
}

// Inputs converts the script into timestamped pointer input starting at start.
// up and cancel without coordinates reuse the pointer's last position.
func (s *Script) Inputs(start time.Time) ([]capturesvc.PointerInput, error) {
	type position struct{ x, y float64 }
	last := make(map[int]position)
	now := start
	var inputs []capturesvc.PointerInput
	for i, step := range s.Steps {
		if step.Wait != nil {
			now = now.Add(time.Duration(*step.Wait))
			continue
		}
		c := step.Contact
		in := capturesvc.PointerInput{
			Type:      eventTypes[step.Action],
			PointerID: c.ID,
			Time:      now,
		}
		tool, ok := toolTypes[c.Tool]
		if !ok {
			return nil, fmt.Errorf("step %d: unknown tool %q", i+1, c.Tool)
		}
		in.ToolType = tool
		switch {
		case c.X != nil:
			in.ClientX, in.ClientY = *c.X, *c.Y
		case in.Type == capturesvc.PointerDown || in.Type == capturesvc.PointerMove:
			return nil, fmt.Errorf("step %d: %s needs coordinates", i+1, step.Action)
		default:
			pos := last[c.ID]
			in.ClientX, in.ClientY = pos.x, pos.y
		}
		last[c.ID] = position{in.ClientX, in.ClientY}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Elapsed is the total wait time of the script.
func (s *Script) Elapsed() time.Duration {
	var total time.Duration
	for _, step := range s.Steps {
		if step.Wait != nil {
			total += time.Duration(*step.Wait)
		}
	}
	return total
}

type Submitter interface {
	Submit(ctx context.Context, in capturesvc.PointerInput)
}

// Play submits inputs in real time, sleeping between them as their timestamps dictate.
// Inputs are resubmitted with a zero Time so the capture service stamps them with its own clock.
func Play(ctx context.Context, inputs []capturesvc.PointerInput, sink Submitter) error {
	if len(inputs) == 0 {
		return nil
	}
	start := inputs[0].Time
	begin := time.Now()
	for _, in := range inputs {
		if wait := in.Time.Sub(start) - time.Since(begin); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		in.Time = time.Time{}
		sink.Submit(ctx, in)
	}
	return nil
}
