package capturesvc

import (
	"time"

	"github.com/neuroplastio/neio-draw/motion"
	"go.uber.org/zap"
)

type PointerEventType uint8

const (
	PointerDown PointerEventType = iota
	PointerMove
	PointerUp
	PointerCancel
)

func (t PointerEventType) String() string {
	switch t {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	}
	return "unknown"
}

// PointerInput is one platform pointer notification in client coordinates.
type PointerInput struct {
	Type      PointerEventType `json:"type"`
	PointerID int              `json:"pointerId"`
	ClientX   float64          `json:"clientX"`
	ClientY   float64          `json:"clientY"`
	ToolType  motion.ToolType  `json:"toolType"`
	Time      time.Time        `json:"time"`
}

type State uint8

const (
	StateIdle State = iota
	StateTracking
)

func (s State) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "idle"
}

// pointerCache is the rolling state of one pointer, addressed by its dense index.
// flushed is where the pointer stood at the last emitted event; last includes pending moves.
type pointerCache struct {
	props   motion.PointerProperties
	flushed motion.PointerCoords
	last    motion.PointerCoords
}

// pendingMove is one move notification waiting for the next batch, in arrival order.
type pendingMove struct {
	index  int
	at     time.Time
	coords motion.PointerCoords
}

// Emitter receives every batch the adapter flushes. The adapter does not touch the event afterwards.
type Emitter func(event *motion.MotionEvent)

// Adapter turns pointer notifications into batched motion events.
// It is not safe for concurrent use; Service serializes access to it.
type Adapter struct {
	log   *zap.Logger
	cfg   Config
	epoch time.Time
	emit  Emitter

	pointers []*pointerCache
	index    map[int]int
	pending  []pendingMove
	debounce Debouncer
}

func NewAdapter(log *zap.Logger, cfg Config, epoch time.Time, emit Emitter) *Adapter {
	return &Adapter{
		log:      log,
		cfg:      cfg,
		epoch:    epoch,
		emit:     emit,
		index:    make(map[int]int),
		debounce: NewDebouncer(cfg.DebounceWait.Duration(), cfg.MaxWait.Duration()),
	}
}

func (a *Adapter) Configure(cfg Config) {
	a.cfg = cfg
	a.debounce.SetTimings(cfg.DebounceWait.Duration(), cfg.MaxWait.Duration())
}

func (a *Adapter) State() State {
	if len(a.pointers) == 0 {
		return StateIdle
	}
	return StateTracking
}

func (a *Adapter) PointerCount() int {
	return len(a.pointers)
}

// Deadline reports when pending moves must be flushed.
func (a *Adapter) Deadline() (time.Time, bool) {
	return a.debounce.Deadline()
}

// Tick flushes pending moves whose debounce deadline has passed.
func (a *Adapter) Tick(now time.Time) {
	if a.debounce.Due(now) {
		a.flushMoves()
	}
}

func (a *Adapter) Handle(in PointerInput) {
	switch in.Type {
	case PointerDown:
		a.handleDown(in)
	case PointerMove:
		a.handleMove(in)
	case PointerUp:
		a.handleUp(in)
	case PointerCancel:
		a.handleCancel(in)
	default:
		a.log.Warn("unknown pointer event", zap.Uint8("type", uint8(in.Type)))
	}
}

func (a *Adapter) coords(in PointerInput) motion.PointerCoords {
	x, y := a.cfg.Bounds.normalize(in.ClientX, in.ClientY)
	return motion.NewPointerCoords(x, y)
}

func (a *Adapter) eventTime(t time.Time) float64 {
	return float64(t.Sub(a.epoch)) / float64(time.Millisecond)
}

func (a *Adapter) handleDown(in PointerInput) {
	if _, ok := a.index[in.PointerID]; ok {
		a.log.Debug("pointer already down", zap.Int("pointerId", in.PointerID))
		return
	}
	if len(a.pointers) >= a.cfg.MaxPointers {
		a.log.Warn("ignoring pointer beyond limit", zap.Int("pointerId", in.PointerID), zap.Int("maxPointers", a.cfg.MaxPointers))
		return
	}
	a.flushMoves()
	coords := a.coords(in)
	p := &pointerCache{
		props:   motion.PointerProperties{ID: in.PointerID, ToolType: in.ToolType},
		flushed: coords,
		last:    coords,
	}
	idx := len(a.pointers)
	a.pointers = append(a.pointers, p)
	a.index[in.PointerID] = idx

	action := motion.ActionDown
	if idx > 0 {
		action = motion.MakePointerAction(motion.ActionPointerDown, idx)
	}
	a.emitCurrent(in.Time, action)
}

func (a *Adapter) handleMove(in PointerInput) {
	idx, ok := a.index[in.PointerID]
	if !ok {
		return
	}
	coords := a.coords(in)
	a.pointers[idx].last = coords
	a.pending = append(a.pending, pendingMove{index: idx, at: in.Time, coords: coords})
	a.debounce.Call(in.Time)
	if a.debounce.Due(in.Time) || len(a.pending) >= motion.MaxFrameSamples {
		a.flushMoves()
	}
}

func (a *Adapter) handleUp(in PointerInput) {
	idx, ok := a.index[in.PointerID]
	if !ok {
		return
	}
	a.flushMoves()
	a.pointers[idx].last = a.coords(in)

	action := motion.ActionUp
	if len(a.pointers) > 1 {
		action = motion.MakePointerAction(motion.ActionPointerUp, idx)
	}
	a.emitCurrent(in.Time, action)
	a.release(idx)
}

func (a *Adapter) handleCancel(in PointerInput) {
	if _, ok := a.index[in.PointerID]; !ok {
		return
	}
	a.flushMoves()
	a.emitCurrent(in.Time, motion.ActionCancel)
	for len(a.pointers) > 0 {
		a.release(len(a.pointers) - 1)
	}
}

// release drops the cache at idx and packs the remaining pointers so indices stay dense.
func (a *Adapter) release(idx int) {
	delete(a.index, a.pointers[idx].props.ID)
	copy(a.pointers[idx:], a.pointers[idx+1:])
	a.pointers[len(a.pointers)-1] = nil
	a.pointers = a.pointers[:len(a.pointers)-1]
	for i := idx; i < len(a.pointers); i++ {
		a.index[a.pointers[i].props.ID] = i
	}
	if len(a.pointers) == 0 {
		a.debounce.Cancel()
	}
}

// Flush emits pending moves immediately.
func (a *Adapter) Flush() {
	a.flushMoves()
}

// flushMoves emits one MOVE event holding a sample per pending move, oldest first.
// Each sample carries every pointer's position as of that move.
func (a *Adapter) flushMoves() {
	a.debounce.Cancel()
	if len(a.pending) == 0 {
		return
	}
	defer func() {
		clear(a.pending)
		a.pending = a.pending[:0]
	}()

	props := make([]motion.PointerProperties, len(a.pointers))
	coords := make([]motion.PointerCoords, len(a.pointers))
	for i, p := range a.pointers {
		props[i] = p.props
		coords[i] = p.flushed
	}
	var (
		event *motion.MotionEvent
		prev  time.Time
	)
	for k, m := range a.pending {
		coords[m.index] = m.coords
		// history never runs backwards
		at := m.at
		if k > 0 && at.Before(prev) {
			at = prev
		}
		prev = at
		var err error
		if event == nil {
			event, err = motion.Obtain(a.eventTime(at), motion.ActionMove, 0, 0, len(a.pointers), props, coords, 0)
		} else {
			err = event.AddBatch(a.eventTime(at), coords)
		}
		if err != nil {
			a.log.Error("failed to build move batch", zap.Error(err))
			return
		}
	}
	for i, p := range a.pointers {
		p.flushed = coords[i]
	}
	a.emit(event)
}

func (a *Adapter) emitCurrent(at time.Time, action int) {
	props := make([]motion.PointerProperties, len(a.pointers))
	coords := make([]motion.PointerCoords, len(a.pointers))
	for i, p := range a.pointers {
		props[i] = p.props
		coords[i] = p.last
	}
	event, err := motion.Obtain(a.eventTime(at), action, 0, 0, len(a.pointers), props, coords, 0)
	if err != nil {
		a.log.Error("failed to build event", zap.Error(err))
		return
	}
	a.emit(event)
}

// Replay feeds recorded input through the adapter as if it arrived at its timestamps,
// then flushes whatever is still pending.
func (a *Adapter) Replay(inputs []PointerInput) {
	for _, in := range inputs {
		a.Tick(in.Time)
		a.Handle(in)
	}
	a.Flush()
}
