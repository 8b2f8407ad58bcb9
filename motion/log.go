package motion

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var logger = atomic.NewPointer(zap.NewNop())

// SetLogger replaces the logger used to report soft errors such as unknown axis codes.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func log() *zap.Logger {
	return logger.Load()
}
