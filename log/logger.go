// Package log builds the run-scoped structured logger shared by every
// other package. It hands out a *zap.SugaredLogger rather than a
// wrapper type, since every call site in this codebase already
// expects that exact type (store, dispatch, pipereader, executor all
// take *zap.SugaredLogger directly).
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a JSON-structured logger writing to stderr.
func New() *zap.SugaredLogger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput creates a JSON-structured logger writing to w.
func NewWithOutput(w io.Writer) *zap.SugaredLogger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core).Sugar()
}
