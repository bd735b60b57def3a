// Package debuglog sets up the process logger and the acceptance test debug
// log that is kept apart from the shop's exception log.
package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp format of the test debug log.
const TimeLayout = "02 Jan 15:04:05.000000 2006"

func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// TestLog appends "[<timestamp>] <message>" lines to a file.
type TestLog struct {
	path   string
	file   *os.File
	logger *zap.Logger
}

func OpenTestLog(dir, name string) (*TestLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open test log: %w", err)
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString("[" + t.Format(TimeLayout) + "]")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel)

	return &TestLog{path: path, file: f, logger: zap.New(core)}, nil
}

func (l *TestLog) Path() string {
	return l.path
}

func (l *TestLog) Write(message string) {
	if l == nil {
		return
	}
	l.logger.Info(message)
}

func (l *TestLog) Close() error {
	if l == nil {
		return nil
	}
	_ = l.logger.Sync()
	return l.file.Close()
}
