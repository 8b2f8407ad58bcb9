// Package wsbridge accepts encoded motion frames from browser clients over websocket.
// Every text message is one frame encoded as a JSON array of numbers.
package wsbridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/bus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const Path = "/touch"

type FramePublisher = bus.Publisher[motion.Frame]

type Option func(*Bridge)

func WithReadLimit(n int64) Option {
	return func(b *Bridge) {
		b.readLimit = n
	}
}

// WithCheckOrigin overrides the origin check of the upgrader. All origins are accepted by default.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(b *Bridge) {
		b.upgrader.CheckOrigin = fn
	}
}

type Bridge struct {
	log       *zap.Logger
	publish   FramePublisher
	upgrader  websocket.Upgrader
	readLimit int64

	accepted *atomic.Int64
	rejected *atomic.Int64
	ready    chan struct{}
}

func New(log *zap.Logger, publish FramePublisher, opts ...Option) *Bridge {
	b := &Bridge{
		log:     log,
		publish: publish,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		readLimit: 1 << 20,
		accepted:  atomic.NewInt64(0),
		rejected:  atomic.NewInt64(0),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Accepted and Rejected count frames across all connections.
func (b *Bridge) Accepted() int64 {
	return b.accepted.Load()
}

func (b *Bridge) Rejected() int64 {
	return b.rejected.Load()
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(b.readLimit)

	log := b.log.With(zap.String("remote", r.RemoteAddr))
	log.Info("client connected")
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection closed", zap.Error(err))
			} else {
				log.Info("client disconnected")
			}
			return
		}
		if msgType != websocket.TextMessage {
			b.rejected.Inc()
			log.Warn("ignoring non-text message", zap.Int("type", msgType))
			continue
		}
		frame, err := ParseFrame(data)
		if err != nil {
			b.rejected.Inc()
			log.Warn("rejected frame", zap.Error(err))
			continue
		}
		b.accepted.Inc()
		b.publish(r.Context(), frame)
	}
}

// ParseFrame decodes a JSON number array and checks that it is a well-formed frame.
func ParseFrame(data []byte) (motion.Frame, error) {
	var frame motion.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}
	if _, err := motion.DecodeEvent(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// Start serves the bridge on addr until ctx is done.
func (b *Bridge) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(Path, b)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	b.log.Info("websocket bridge listening", zap.String("addr", ln.Addr().String()), zap.String("path", Path))
	close(b.ready)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down websocket bridge: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("websocket bridge failed: %w", err)
	}
}
