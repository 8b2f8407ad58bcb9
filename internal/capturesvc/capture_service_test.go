package capturesvc

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/neuroplastio/neio-draw/internal/configsvc"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type framePosts struct {
	mu     sync.Mutex
	frames []motion.Frame
}

func (f *framePosts) publish(_ context.Context, frame motion.Frame) {
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
}

func (f *framePosts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *framePosts) decode(t *testing.T, i int) *motion.MotionEvent {
	t.Helper()
	f.mu.Lock()
	frame := f.frames[i]
	f.mu.Unlock()
	e, err := motion.DecodeEvent(frame)
	require.NoError(t, err)
	return e
}

func startService(t *testing.T, opts ...Option) (*Service, *framePosts, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	posts := &framePosts{}
	svc := New(zap.NewNop(), time.Now, posts.publish, opts...)
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start(ctx)
	}()
	select {
	case <-svc.Ready():
	case err := <-errCh:
		t.Fatalf("service failed to start: %v", err)
	}
	return svc, posts, ctx
}

func TestServiceDebouncesMoves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceWait = configsvc.Duration(50 * time.Millisecond)
	cfg.MaxWait = configsvc.Duration(time.Second)
	svc, posts, ctx := startService(t, WithConfig(cfg))

	svc.Submit(ctx, PointerInput{Type: PointerDown, PointerID: 1, ClientX: 1, ClientY: 1})
	for i := 0; i < 5; i++ {
		svc.Submit(ctx, PointerInput{Type: PointerMove, PointerID: 1, ClientX: float64(i + 2), ClientY: 1})
	}
	require.Eventually(t, func() bool { return posts.count() == 2 }, time.Second, 5*time.Millisecond)

	e := posts.decode(t, 1)
	assert.Equal(t, motion.ActionMove, e.ActionMasked())
	assert.Equal(t, 4, e.HistorySize())
	assert.Equal(t, 6.0, e.X(0))

	svc.Submit(ctx, PointerInput{Type: PointerUp, PointerID: 1, ClientX: 6, ClientY: 1})
	require.Eventually(t, func() bool { return posts.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, motion.ActionUp, posts.decode(t, 2).ActionMasked())
}

func TestServiceRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPointers = 0
	svc := New(zap.NewNop(), time.Now, func(context.Context, motion.Frame) {}, WithConfig(cfg))
	err := svc.Start(context.Background())
	assert.Error(t, err)
}

func TestServiceConfigFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configSvc := configsvc.New(zap.NewNop())
	go func() {
		_ = configSvc.Start(ctx)
	}()

	path := filepath.Join(t.TempDir(), "capture.yml")
	require.NoError(t, os.WriteFile(path, []byte("bounds:\n  left: 0\n  top: 0\n  width: 10\n  height: 10\n"), 0644))
	svc, posts, svcCtx := startService(t, WithConfigFile(configSvc, path))

	svc.Submit(svcCtx, PointerInput{Type: PointerDown, PointerID: 1, ClientX: 5, ClientY: 5})
	require.Eventually(t, func() bool { return posts.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.5, posts.decode(t, 0).X(0))
}
