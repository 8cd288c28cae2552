// Package logging builds the zap logger shared by the CLI and its components.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w at debug level when debug is
// set, and a no-op logger otherwise. Stdout is never used so command output
// stays clean.
func New(debug bool, w io.Writer) *zap.Logger {
	if !debug || w == nil {
		return zap.NewNop()
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	return zap.New(core)
}
