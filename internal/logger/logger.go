// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// Orderform writes lifecycle, access, and error events to one JSON log per
// day under `<dir>/YYYY-MM-DD.log`.  When running in an interactive TTY we
// tee the same events to stdout in console format.  Rotation, compression,
// and retention are handled by Lumberjack.
//
// Usage
// -----
//
//	log, err := logger.New(filepath.Join(cfg.Paths.Root, cfg.Log.Dir), runningInTTY())
//	if err != nil { … }
//	log.Infow("listening", "addr", addr)
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a *zap.SugaredLogger that writes JSON to logDir/YYYY-MM-DD.log.
// When tee == true, a console core is also attached.  The logger is
// installed as the process-wide default via zap.ReplaceGlobals.
func New(logDir string, tee bool) (*zap.SugaredLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	level := levelFromEnv()

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "tee", tee, "level", level.String())
	return z, nil
}

// levelFromEnv honours ZAP_LEVEL (debug, info, warn, error); default info.
func levelFromEnv() zapcore.Level {
	lvl := zap.InfoLevel
	if raw := os.Getenv("ZAP_LEVEL"); raw != "" {
		_ = lvl.Set(raw)
	}
	return lvl
}
