// Package logging builds the logr.Logger used by the binaries.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap-backed logger. verbosity enables logr V-levels up to the
// given value: 1 for debug output, 2 for per-snapshot trace. The returned func
// flushes buffered entries and should be deferred by main.
func New(verbosity int, development bool) (logr.Logger, func(), error) {
	if verbosity < 0 {
		verbosity = 0
	}

	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zc.DisableStacktrace = !development

	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("build logger: %w", err)
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}
