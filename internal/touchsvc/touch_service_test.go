package touchsvc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encode(t *testing.T, e *motion.MotionEvent) motion.Frame {
	t.Helper()
	frame, err := motion.EncodeEvent(e)
	require.NoError(t, err)
	return frame
}

func singlePointer(t *testing.T, action int, x, y float64) *motion.MotionEvent {
	t.Helper()
	e, err := motion.Obtain(0, action, 0, 0, 1,
		[]motion.PointerProperties{{ID: 4, ToolType: motion.ToolTypeStylus}},
		[]motion.PointerCoords{motion.NewPointerCoords(x, y)}, 0)
	require.NoError(t, err)
	return e
}

type memJournal struct {
	mu     sync.Mutex
	frames []motion.Frame
	err    error
}

func (j *memJournal) Append(frame motion.Frame) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.frames = append(j.frames, frame)
	return j.err
}

func TestDeliverDecodesAndCounts(t *testing.T) {
	var got []*motion.MotionEvent
	journal := &memJournal{}
	svc := New(zap.NewNop(), nil, ListenerFunc(func(e *motion.MotionEvent) bool {
		got = append(got, e)
		return e.ActionMasked() == motion.ActionDown
	}), WithJournal(journal))

	assert.True(t, svc.Deliver(encode(t, singlePointer(t, motion.ActionDown, 1, 2))))
	assert.False(t, svc.Deliver(encode(t, singlePointer(t, motion.ActionMove, 3, 4))))
	assert.False(t, svc.Deliver(motion.Frame{17, 1, 0, 0, 0}))

	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].PointerID(0))
	assert.Equal(t, 3.0, got[1].X(0))
	assert.Equal(t, Stats{Delivered: 2, Consumed: 1, Rejected: 1}, svc.Stats())
	assert.Len(t, journal.frames, 2, "rejected frames are not journaled")
}

func TestDeliverSurvivesJournalError(t *testing.T) {
	journal := &memJournal{err: errors.New("disk full")}
	svc := New(zap.NewNop(), nil, ListenerFunc(func(*motion.MotionEvent) bool { return true }), WithJournal(journal))
	assert.True(t, svc.Deliver(encode(t, singlePointer(t, motion.ActionDown, 1, 2))))
}

func TestSetListener(t *testing.T) {
	svc := New(zap.NewNop(), nil, nil)
	frame := encode(t, singlePointer(t, motion.ActionDown, 1, 2))
	assert.False(t, svc.Deliver(frame))

	svc.SetListener(ListenerFunc(func(*motion.MotionEvent) bool { return true }))
	assert.True(t, svc.Deliver(frame))
}

func TestServiceConsumesBusInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := bus.NewBus[string, motion.Frame](zap.NewNop())
	require.NoError(t, b.Start(ctx))

	var (
		mu sync.Mutex
		xs []float64
	)
	svc := New(zap.NewNop(), b.CreateSubscriber("touch"), ListenerFunc(func(e *motion.MotionEvent) bool {
		mu.Lock()
		xs = append(xs, e.X(0))
		mu.Unlock()
		return true
	}))
	go func() {
		_ = svc.Start(ctx)
	}()
	<-svc.Ready()

	publish := b.CreatePublisher("touch")
	for i := 1; i <= 20; i++ {
		publish(ctx, encode(t, singlePointer(t, motion.ActionMove, float64(i), 0)))
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(xs) == 20
	}, time.Second, 5*time.Millisecond)
	for i, x := range xs {
		assert.Equal(t, float64(i+1), x)
	}
}

func TestStrokeListener(t *testing.T) {
	l := NewStrokeListener(StrokeConfig{MinDistance: 1})
	down, err := motion.Obtain(0, motion.ActionDown, 0, 0, 1,
		[]motion.PointerProperties{{ID: 7}}, []motion.PointerCoords{motion.NewPointerCoords(0, 0)}, 0)
	require.NoError(t, err)
	assert.True(t, l.OnTouch(down))

	moveEvent, err := motion.Obtain(1, motion.ActionMove, 0, 0, 1,
		[]motion.PointerProperties{{ID: 7}}, []motion.PointerCoords{motion.NewPointerCoords(0.5, 0)}, 0)
	require.NoError(t, err)
	require.NoError(t, moveEvent.AddBatch(2, []motion.PointerCoords{motion.NewPointerCoords(2, 0)}))
	require.NoError(t, moveEvent.AddBatch(3, []motion.PointerCoords{motion.NewPointerCoords(4, 0)}))
	assert.True(t, l.OnTouch(moveEvent))
	assert.Equal(t, 1, l.ActiveCount())

	upEvent, err := motion.Obtain(4, motion.ActionUp, 0, 0, 1,
		[]motion.PointerProperties{{ID: 7}}, []motion.PointerCoords{motion.NewPointerCoords(4, 0)}, 0)
	require.NoError(t, err)
	assert.True(t, l.OnTouch(upEvent))

	strokes := l.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, 7, strokes[0].PointerID)
	assert.Equal(t, []Point{{X: 0, Y: 0, Time: 0}, {X: 2, Y: 0, Time: 2}, {X: 4, Y: 0, Time: 3}}, strokes[0].Points)
	assert.Equal(t, 0, l.ActiveCount())
}

func TestStrokeListenerCancel(t *testing.T) {
	l := NewStrokeListener(StrokeConfig{})
	assert.True(t, l.OnTouch(singlePointer(t, motion.ActionDown, 0, 0)))
	assert.True(t, l.OnTouch(singlePointer(t, motion.ActionCancel, 0, 0)))
	assert.Empty(t, l.Strokes())
	assert.False(t, l.OnTouch(singlePointer(t, motion.ActionOutside, 0, 0)))
}

func TestListenerRegistry(t *testing.T) {
	r := NewListenerRegistry(zap.NewNop())
	assert.Equal(t, []string{"log", "stroke"}, r.Names())

	l, err := r.New("stroke", json.RawMessage(`{"minDistance": 2}`))
	require.NoError(t, err)
	require.IsType(t, &StrokeListener{}, l)
	assert.Equal(t, 2.0, l.(*StrokeListener).cfg.MinDistance)

	l, err = r.New("log", nil)
	require.NoError(t, err)
	assert.True(t, l.OnTouch(singlePointer(t, motion.ActionDown, 0, 0)))

	_, err = r.New("stroke", json.RawMessage(`{"minDistance": "far"}`))
	assert.Error(t, err)
}
