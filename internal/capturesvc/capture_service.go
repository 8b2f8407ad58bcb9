// Package capturesvc accumulates pointer input into motion event batches and posts them as wire frames.
package capturesvc

import (
	"context"
	"fmt"
	"time"

	"github.com/neuroplastio/neio-draw/internal/configsvc"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/bus"
	"go.uber.org/zap"
)

type FramePublisher = bus.Publisher[motion.Frame]

type serviceOptions struct {
	config     Config
	configSvc  *configsvc.Service
	configPath string
	queueSize  int
}

type Option func(*serviceOptions)

func WithConfig(cfg Config) Option {
	return func(o *serviceOptions) {
		o.config = cfg
	}
}

// WithConfigFile loads the capture config from path and applies changes while running.
func WithConfigFile(svc *configsvc.Service, path string) Option {
	return func(o *serviceOptions) {
		o.configSvc = svc
		o.configPath = path
	}
}

func WithInputQueueSize(n int) Option {
	return func(o *serviceOptions) {
		o.queueSize = n
	}
}

// Service runs an Adapter on a single goroutine. Input, config changes and the debounce timer are
// all handled by that goroutine, so the adapter never sees concurrent calls.
type Service struct {
	log     *zap.Logger
	now     func() time.Time
	publish FramePublisher
	options serviceOptions

	inputCh  chan PointerInput
	configCh chan Config
	ready    chan struct{}
}

func New(log *zap.Logger, now func() time.Time, publish FramePublisher, opts ...Option) *Service {
	options := serviceOptions{
		config:    DefaultConfig(),
		queueSize: 256,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		log:      log,
		now:      now,
		publish:  publish,
		options:  options,
		inputCh:  make(chan PointerInput, options.queueSize),
		configCh: make(chan Config, 1),
		ready:    make(chan struct{}),
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Submit queues a pointer notification. A zero Time is stamped with the service clock.
func (s *Service) Submit(ctx context.Context, in PointerInput) {
	if in.Time.IsZero() {
		in.Time = s.now()
	}
	select {
	case <-ctx.Done():
	case s.inputCh <- in:
	}
}

func (s *Service) loadConfig(ctx context.Context) (Config, error) {
	if s.options.configSvc == nil {
		return s.options.config, s.options.config.Validate()
	}
	select {
	case <-ctx.Done():
		return s.options.config, ctx.Err()
	case <-s.options.configSvc.Ready():
	}
	cfg, err := configsvc.RegisterWriteable(s.options.configSvc, s.options.configPath, s.options.config, s.onConfigChange)
	if err != nil {
		return cfg, fmt.Errorf("failed to register capture config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (s *Service) onConfigChange(cfg Config, err error) {
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		s.log.Error("invalid capture config", zap.Error(err))
		return
	}
	// keep only the newest pending config
	select {
	case <-s.configCh:
	default:
	}
	s.configCh <- cfg
}

func (s *Service) Start(ctx context.Context) error {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("invalid capture config: %w", err)
	}
	adapter := NewAdapter(s.log, cfg, s.now(), func(event *motion.MotionEvent) {
		frame, err := motion.EncodeEvent(event)
		if err != nil {
			s.log.Error("failed to encode event", zap.Error(err))
			return
		}
		s.log.Debug("posting batch", zap.Stringer("event", event), zap.Int("frameLen", len(frame)))
		s.publish(ctx, frame)
	})

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	schedule := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if deadline, ok := adapter.Deadline(); ok {
			timer = time.NewTimer(deadline.Sub(s.now()))
			timerC = timer.C
		}
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	close(s.ready)
	s.log.Info("Capture service started", zap.Duration("debounceWait", cfg.DebounceWait.Duration()), zap.Duration("maxWait", cfg.MaxWait.Duration()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-s.inputCh:
			adapter.Tick(in.Time)
			adapter.Handle(in)
		case <-timerC:
			adapter.Tick(s.now())
		case cfg := <-s.configCh:
			s.log.Info("capture config updated")
			adapter.Configure(cfg)
		}
		schedule()
	}
}
