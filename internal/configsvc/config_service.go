// Package configsvc loads YAML configuration files and notifies clients when they change on disk.
package configsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ghodss/yaml"
	"go.uber.org/zap"
)

type subscriber func(event fsnotify.Event)

type Service struct {
	log *zap.Logger

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	watched     map[string]struct{}
	subscribers []subscriber
	ready       chan struct{}
}

func New(log *zap.Logger) *Service {
	return &Service{
		log:     log,
		watched: make(map[string]struct{}),
		ready:   make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()
	close(s.ready)
	s.log.Info("Config service started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.mu.Lock()
			subs := append([]subscriber(nil), s.subscribers...)
			s.mu.Unlock()
			for _, sub := range subs {
				sub(event)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("Watcher error", zap.Error(err))
		}
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

var ErrNotStarted = errors.New("config service not started")

func (s *Service) watch(path string, fn subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return ErrNotStarted
	}
	dir := filepath.Dir(path)
	if _, ok := s.watched[dir]; !ok {
		if err := s.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add path to watcher %s: %w", dir, err)
		}
		s.watched[dir] = struct{}{}
	}
	s.subscribers = append(s.subscribers, fn)
	return nil
}

// Register reads the configuration at path, merged over def, and calls fn with the re-read value on every change.
// The service must be started. Service instance is used as a parameter instead of the method receiver to enable generic types.
func Register[T any](s *Service, path string, def T, fn func(config T, err error)) (T, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return def, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}
	config, err := Load(absPath, def)
	if err != nil {
		return def, fmt.Errorf("failed to read config: %w", err)
	}
	err = s.watch(absPath, func(event fsnotify.Event) {
		if event.Name == absPath && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
			fn(Load(absPath, def))
		}
	})
	if err != nil {
		return def, err
	}
	return config, nil
}

// RegisterWriteable is Register for files the agent owns: a missing file is created from def first.
func RegisterWriteable[T any](s *Service, path string, def T, fn func(config T, err error)) (T, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return def, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := Write(absPath, def); err != nil {
			return def, fmt.Errorf("failed to initialize config: %w", err)
		}
	}
	return Register(s, absPath, def, fn)
}

func Write[T any](path string, config T) error {
	jsonB, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	yamlB, err := yaml.JSONToYAML(jsonB)
	if err != nil {
		return fmt.Errorf("failed to convert json to yaml: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	err = os.WriteFile(path, yamlB, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads a YAML file into a copy of def. Fields missing from the file keep their default.
func Load[T any](path string, def T) (T, error) {
	yamlB, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read config file: %w", err)
	}

	jsonB, err := yaml.YAMLToJSON(yamlB)
	if err != nil {
		return def, fmt.Errorf("failed to convert yaml to json: %w", err)
	}
	config := def
	err = json.Unmarshal(jsonB, &config)
	if err != nil {
		return def, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return config, nil
}

// Duration accepts either a Go duration string or a number of nanoseconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
