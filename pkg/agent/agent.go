package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/neuroplastio/neio-draw/internal/capturesvc"
	"github.com/neuroplastio/neio-draw/internal/configsvc"
	"github.com/neuroplastio/neio-draw/internal/gesturedsl"
	"github.com/neuroplastio/neio-draw/internal/journalsvc"
	"github.com/neuroplastio/neio-draw/internal/touchsvc"
	"github.com/neuroplastio/neio-draw/internal/wsbridge"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/bus"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// TopicFrames is the bus key encoded motion frames are published under.
const TopicFrames = "frames"

type FrameBus = bus.Bus[string, motion.Frame]

type services struct {
	dig.In

	Log       *zap.Logger
	DB        *badger.DB
	ConfigSvc *configsvc.Service
	Bus       *FrameBus
	Journal   *journalsvc.Journal
	Listeners *touchsvc.ListenerRegistry
	Listener  touchsvc.Listener
	Capture   *capturesvc.Service
	Touch     *touchsvc.Service
	Bridge    *wsbridge.Bridge
}

type Agent struct {
	config Config
	services
}

func NewLogger() (*zap.Logger, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func NewAgent(config Config) (*Agent, error) {
	logger, err := NewLogger()
	if err != nil {
		return nil, err
	}
	motion.SetLogger(logger.Named("motion"))

	c := dig.New()
	constructors := []any{
		func() Config { return config },
		func() *zap.Logger { return logger },
		newDB,
		newConfigService,
		newFrameBus,
		newJournal,
		touchsvc.NewListenerRegistry,
		newListener,
		newCaptureService,
		newTouchService,
		newBridge,
	}
	for _, constructor := range constructors {
		if err := c.Provide(constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %T: %w", constructor, err)
		}
	}
	a := &Agent{config: config}
	err = c.Invoke(func(s services) {
		a.services = s
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build agent: %w", dig.RootCause(err))
	}
	return a, nil
}

func newDB(config Config, log *zap.Logger) (*badger.DB, error) {
	return journalsvc.OpenDB(filepath.Join(config.DataDir, "db"), log.Named("badger"))
}

func newConfigService(log *zap.Logger) *configsvc.Service {
	return configsvc.New(log.Named("config"))
}

func newJournal(db *badger.DB, log *zap.Logger) (*journalsvc.Journal, error) {
	return journalsvc.Open(db, log.Named("journal"))
}

func newFrameBus(log *zap.Logger) *FrameBus {
	return bus.NewBus[string, motion.Frame](log.Named("bus"))
}

func newListener(config Config, listeners *touchsvc.ListenerRegistry) (touchsvc.Listener, error) {
	name := config.Listener
	if name == "" {
		name = "log"
	}
	listener, err := listeners.New(name, config.ListenerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener %s: %w", name, err)
	}
	return listener, nil
}

func newCaptureService(config Config, log *zap.Logger, configSvc *configsvc.Service, b *FrameBus) *capturesvc.Service {
	var opts []capturesvc.Option
	if config.CaptureConfig != "" {
		opts = append(opts, capturesvc.WithConfigFile(configSvc, config.CaptureConfig))
	}
	return capturesvc.New(log.Named("capture"), time.Now, b.CreatePublisher(TopicFrames), opts...)
}

func newTouchService(config Config, log *zap.Logger, b *FrameBus, listener touchsvc.Listener, journal *journalsvc.Journal) *touchsvc.Service {
	var opts []touchsvc.Option
	if config.Journal {
		opts = append(opts, touchsvc.WithJournal(journal))
	}
	return touchsvc.New(log.Named("touch"), b.CreateSubscriber(TopicFrames), listener, opts...)
}

func newBridge(log *zap.Logger, b *FrameBus) *wsbridge.Bridge {
	return wsbridge.New(log.Named("ws"), b.CreatePublisher(TopicFrames))
}

func (a *Agent) Close() error {
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("failed to close badger db: %w", err)
	}
	return nil
}

// Run starts the agent and blocks until the context is cancelled.
// Agent startup will fail if the capture configuration is not valid.
// In case it becomes invalid after the startup, the last valid configuration stays in effect.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.ConfigSvc.Start(groupCtx)
	})
	group.Go(func() error {
		return a.Bus.Start(groupCtx)
	})
	group.Go(func() error {
		return a.Capture.Start(groupCtx)
	})
	group.Go(func() error {
		return a.Touch.Start(groupCtx)
	})
	if a.config.Script != "" {
		group.Go(func() error {
			return a.playScript(groupCtx, a.config.Script)
		})
	}
	if a.config.ListenAddr != "" {
		group.Go(func() error {
			return a.Bridge.Start(groupCtx, a.config.ListenAddr)
		})
	}

	err := group.Wait()
	if err != nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	return nil
}

func (a *Agent) playScript(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read gesture script: %w", err)
	}
	script, err := gesturedsl.Parse(string(src))
	if err != nil {
		return err
	}
	inputs, err := script.Inputs(time.Now())
	if err != nil {
		return fmt.Errorf("invalid gesture script %s: %w", path, err)
	}
	for _, ready := range []<-chan struct{}{a.Bus.Ready(), a.Capture.Ready(), a.Touch.Ready()} {
		select {
		case <-ctx.Done():
			return nil
		case <-ready:
		}
	}
	a.Log.Info("playing gesture script", zap.String("path", path), zap.Int("inputs", len(inputs)), zap.Duration("duration", script.Elapsed()))
	if err := gesturedsl.Play(ctx, inputs, a.Capture); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Replay delivers every journaled frame to the configured listener in sequence order.
// The frames are not journaled again.
func (a *Agent) Replay(ctx context.Context) (int, error) {
	touch := touchsvc.New(a.Log.Named("replay"), nil, a.Listener)
	return a.Journal.Replay(ctx, func(_ context.Context, frame motion.Frame) {
		touch.Deliver(frame)
	})
}
