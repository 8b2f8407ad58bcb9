package motion

import "fmt"

const (
	MaxFramePointers = 16
	MaxFrameSamples  = 65535

	frameHeaderSize = 5
)

// EncodeEvent flattens an event to
// [pointerCount, sampleCount, action, offsetX, offsetY, (id, toolType)..., (time, (mask, values...)...)...].
// Flags are not part of the frame.
func EncodeEvent(e *MotionEvent) (Frame, error) {
	w := NewFrameWriter(frameHeaderSize + 2*len(e.pointers) + len(e.samples)*(1+3*len(e.pointers)))
	w.WriteInt(len(e.pointers))
	w.WriteInt(len(e.samples))
	w.WriteInt(e.action)
	w.WriteFloat(e.offsetX)
	w.WriteFloat(e.offsetY)
	for _, p := range e.pointers {
		w.WriteInt(p.ID)
		w.WriteInt(int(p.ToolType))
	}
	for i, s := range e.samples {
		w.WriteFloat(s.eventTime)
		for j, c := range s.coords {
			if err := c.WriteToParcel(w); err != nil {
				return nil, fmt.Errorf("failed to encode sample %d pointer %d: %w", i, j, err)
			}
		}
	}
	return w.Frame(), nil
}

// DecodeEvent rebuilds an event from a frame produced by EncodeEvent.
// Any inconsistency in the frame fails the whole decode.
func DecodeEvent(frame Frame) (*MotionEvent, error) {
	cur := NewCursor(frame)
	pointerCount, err := cur.NextInt("pointer count")
	if err != nil {
		return nil, err
	}
	if pointerCount < 1 || pointerCount > MaxFramePointers {
		return nil, fmt.Errorf("%w: pointer count %d not in [1, %d]", ErrProtocol, pointerCount, MaxFramePointers)
	}
	sampleCount, err := cur.NextInt("sample count")
	if err != nil {
		return nil, err
	}
	if sampleCount < 1 || sampleCount > MaxFrameSamples {
		return nil, fmt.Errorf("%w: sample count %d not in [1, %d]", ErrProtocol, sampleCount, MaxFrameSamples)
	}
	action, err := cur.NextInt("action")
	if err != nil {
		return nil, err
	}
	offsetX, err := cur.NextFloat("offset x")
	if err != nil {
		return nil, err
	}
	offsetY, err := cur.NextFloat("offset y")
	if err != nil {
		return nil, err
	}

	props := make([]PointerProperties, pointerCount)
	for i := range props {
		id, err := cur.NextInt("pointer id")
		if err != nil {
			return nil, err
		}
		toolType, err := cur.NextInt("tool type")
		if err != nil {
			return nil, err
		}
		if !ToolType(toolType).Valid() {
			return nil, fmt.Errorf("%w: unknown tool type %d for pointer %d", ErrProtocol, toolType, i)
		}
		props[i] = PointerProperties{ID: id, ToolType: ToolType(toolType)}
	}

	var event *MotionEvent
	coords := make([]PointerCoords, pointerCount)
	for s := 0; s < sampleCount; s++ {
		eventTime, err := cur.NextFloat("event time")
		if err != nil {
			return nil, err
		}
		for p := range coords {
			coords[p] = PointerCoords{}
			if !coords[p].ReadFromParcel(cur) {
				return nil, fmt.Errorf("%w: bad coords for sample %d pointer %d near element %d", ErrProtocol, s, p, cur.Pos())
			}
		}
		if event == nil {
			event, err = Obtain(eventTime, action, offsetX, offsetY, pointerCount, props, coords, 0)
		} else {
			err = event.AddBatch(eventTime, coords)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
	}
	if cur.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing elements", ErrProtocol, cur.Remaining())
	}
	return event, nil
}
