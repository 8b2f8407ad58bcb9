// Package touchsvc is the consuming side of the frame boundary: it decodes posted frames and
// hands each event to the registered listener in delivery order.
package touchsvc

import (
	"context"
	"errors"

	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/bus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Listener consumes decoded events. The return value reports whether the event was consumed.
type Listener interface {
	OnTouch(event *motion.MotionEvent) bool
}

type ListenerFunc func(event *motion.MotionEvent) bool

func (f ListenerFunc) OnTouch(event *motion.MotionEvent) bool {
	return f(event)
}

type FrameSubscriber = bus.Subscriber[string, motion.Frame]

// Journal records frames that decoded successfully.
type Journal interface {
	Append(frame motion.Frame) error
}

type listenerHolder struct {
	listener Listener
}

type Stats struct {
	Delivered int64 `json:"delivered"`
	Consumed  int64 `json:"consumed"`
	Rejected  int64 `json:"rejected"`
}

type Service struct {
	log       *zap.Logger
	subscribe FrameSubscriber
	journal   Journal
	ready     chan struct{}

	listener  *atomic.Pointer[listenerHolder]
	delivered *atomic.Int64
	consumed  *atomic.Int64
	rejected  *atomic.Int64
}

type Option func(*Service)

func WithJournal(j Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

func New(log *zap.Logger, subscribe FrameSubscriber, listener Listener, opts ...Option) *Service {
	s := &Service{
		log:       log,
		subscribe: subscribe,
		ready:     make(chan struct{}),
		listener:  atomic.NewPointer(&listenerHolder{listener: listener}),
		delivered: atomic.NewInt64(0),
		consumed:  atomic.NewInt64(0),
		rejected:  atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetListener replaces the listener. Frames already being delivered finish on the old one.
func (s *Service) SetListener(l Listener) {
	s.listener.Store(&listenerHolder{listener: l})
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Stats() Stats {
	return Stats{
		Delivered: s.delivered.Load(),
		Consumed:  s.consumed.Load(),
		Rejected:  s.rejected.Load(),
	}
}

func (s *Service) Start(ctx context.Context) error {
	ch := s.subscribe(ctx)
	close(s.ready)
	s.log.Info("Touch service started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			s.Deliver(msg.Message)
		}
	}
}

// Deliver decodes one frame and passes it to the listener. A frame that fails to decode is
// dropped whole; earlier deliveries are unaffected.
func (s *Service) Deliver(frame motion.Frame) bool {
	event, err := motion.DecodeEvent(frame)
	if err != nil {
		s.rejected.Inc()
		if errors.Is(err, motion.ErrProtocol) {
			s.log.Warn("rejecting frame", zap.Error(err), zap.Int("len", len(frame)))
		} else {
			s.log.Error("failed to decode frame", zap.Error(err))
		}
		return false
	}
	if s.journal != nil {
		if err := s.journal.Append(frame); err != nil {
			s.log.Error("failed to journal frame", zap.Error(err))
		}
	}
	s.delivered.Inc()
	holder := s.listener.Load()
	if holder.listener == nil {
		return false
	}
	consumed := holder.listener.OnTouch(event)
	if consumed {
		s.consumed.Inc()
	}
	return consumed
}
