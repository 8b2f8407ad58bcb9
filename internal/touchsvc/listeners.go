package touchsvc

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/registry"
	"go.uber.org/zap"
)

type ListenerProvider struct {
	Log *zap.Logger
}

type ListenerRegistry = registry.Registry[Listener, ListenerProvider]

// NewListenerRegistry returns a registry with the built-in listener types.
func NewListenerRegistry(log *zap.Logger) *ListenerRegistry {
	r := registry.NewRegistry[Listener, ListenerProvider](ListenerProvider{Log: log})
	r.Register("log", func(_ json.RawMessage, p ListenerProvider) (Listener, error) {
		return &LogListener{log: p.Log.Named("listener")}, nil
	})
	r.Register("stroke", func(config json.RawMessage, p ListenerProvider) (Listener, error) {
		var cfg StrokeConfig
		if len(config) > 0 {
			if err := json.Unmarshal(config, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal stroke config: %w", err)
			}
		}
		return NewStrokeListener(cfg), nil
	})
	return r
}

type LogListener struct {
	log *zap.Logger
}

func (l *LogListener) OnTouch(event *motion.MotionEvent) bool {
	l.log.Info("touch", zap.Stringer("event", event))
	return true
}

type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Time float64 `json:"time"`
}

type Stroke struct {
	PointerID int     `json:"pointerId"`
	Points    []Point `json:"points"`
}

type StrokeConfig struct {
	// MinDistance drops points closer than this to the previous point of the stroke.
	MinDistance float64 `json:"minDistance"`
}

// StrokeListener turns a stream of events into one polyline per pointer contact.
type StrokeListener struct {
	cfg StrokeConfig

	mu       sync.Mutex
	active   map[int]*Stroke
	finished []Stroke
}

func NewStrokeListener(cfg StrokeConfig) *StrokeListener {
	return &StrokeListener{
		cfg:    cfg,
		active: make(map[int]*Stroke),
	}
}

func (l *StrokeListener) OnTouch(event *motion.MotionEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch event.ActionMasked() {
	case motion.ActionDown, motion.ActionPointerDown:
		idx := event.ActionIndex()
		if event.ActionMasked() == motion.ActionDown {
			idx = 0
		}
		id := event.PointerID(idx)
		l.active[id] = &Stroke{PointerID: id}
		l.add(id, Point{X: event.X(idx), Y: event.Y(idx), Time: event.EventTime()})
	case motion.ActionMove:
		for p := 0; p < event.PointerCount(); p++ {
			id := event.PointerID(p)
			for h := 0; h < event.HistorySize(); h++ {
				l.add(id, Point{X: event.HistoricalXForPointer(p, h), Y: event.HistoricalYForPointer(p, h), Time: event.HistoricalEventTime(h)})
			}
			l.add(id, Point{X: event.X(p), Y: event.Y(p), Time: event.EventTime()})
		}
	case motion.ActionUp, motion.ActionPointerUp:
		idx := event.ActionIndex()
		if event.ActionMasked() == motion.ActionUp {
			idx = 0
		}
		id := event.PointerID(idx)
		l.add(id, Point{X: event.X(idx), Y: event.Y(idx), Time: event.EventTime()})
		if stroke, ok := l.active[id]; ok {
			l.finished = append(l.finished, *stroke)
			delete(l.active, id)
		}
	case motion.ActionCancel:
		clear(l.active)
	default:
		return false
	}
	return true
}

func (l *StrokeListener) add(id int, pt Point) {
	stroke, ok := l.active[id]
	if !ok {
		return
	}
	if n := len(stroke.Points); n > 0 {
		last := stroke.Points[n-1]
		if math.Hypot(pt.X-last.X, pt.Y-last.Y) < l.cfg.MinDistance || (pt.X == last.X && pt.Y == last.Y) {
			return
		}
	}
	stroke.Points = append(stroke.Points, pt)
}

// Strokes returns the completed strokes in completion order.
func (l *StrokeListener) Strokes() []Stroke {
	l.mu.Lock()
	defer l.mu.Unlock()
	strokes := make([]Stroke, len(l.finished))
	copy(strokes, l.finished)
	return strokes
}

func (l *StrokeListener) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}
