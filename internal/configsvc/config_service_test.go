package configsvc

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testConfig struct {
	Name  string   `json:"name"`
	Wait  Duration `json:"wait"`
	Limit int      `json:"limit"`
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: capture\nwait: 20ms\n"), 0644))

	cfg, err := Load(path, testConfig{Limit: 16, Wait: Duration(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "capture", cfg.Name)
	assert.Equal(t, 20*time.Millisecond, cfg.Wait.Duration())
	assert.Equal(t, 16, cfg.Limit)
}

func TestDurationNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	require.NoError(t, os.WriteFile(path, []byte("wait: 1000\n"), 0644))
	cfg, err := Load(path, testConfig{})
	require.NoError(t, err)
	assert.Equal(t, time.Microsecond, cfg.Wait.Duration())

	require.NoError(t, os.WriteFile(path, []byte("wait: [1]\n"), 0644))
	_, err = Load(path, testConfig{})
	assert.Error(t, err)
}

func TestRegisterBeforeStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	require.NoError(t, Write(path, testConfig{}))
	_, err := Register(New(zap.NewNop()), path, testConfig{}, func(testConfig, error) {})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestRegisterWriteableReloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(zap.NewNop())
	go func() {
		_ = svc.Start(ctx)
	}()
	<-svc.Ready()

	path := filepath.Join(t.TempDir(), "nested", "test.yml")
	var (
		mu      sync.Mutex
		current testConfig
	)
	cfg, err := RegisterWriteable(svc, path, testConfig{Name: "default", Limit: 1}, func(c testConfig, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		current = c
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)
	_, err = os.Stat(path)
	require.NoError(t, err, "defaults are written to disk")

	require.NoError(t, os.WriteFile(path, []byte("name: updated\n"), 0644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return current.Name == "updated" && current.Limit == 1
	}, 2*time.Second, 10*time.Millisecond)
}
