// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package's logger.
// This must be called before any coro or awaitable is created.
func SetLogger(l *zap.Logger) {
	logger = l
}

// debug gates the coro-switch trace. Switching is the hot path, so the
// trace is off unless explicitly enabled.
var debug = false

// SetDebug toggles the coro-switch and lifecycle trace.
func SetDebug(on bool) {
	debug = on
}

func debugf(format string, args ...any) {
	if debug {
		Logger().Sugar().Debugf(format, args...)
	}
}
