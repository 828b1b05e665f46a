package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"
	megabyte                    = 1 << 20
)

// RSyncWriter is a concurrent safe log file writer which rotates the
// file once it reaches the max size. It implements zapcore.WriteSyncer.
type RSyncWriter struct {
	sync.Mutex
	clock  Clocker
	file   *os.File
	folder string
	max    int64
	size   int64
	isProd bool
}

// NewRSyncWriter returns a writer for the configured log folder.
// The first file is created on the first write.
func NewRSyncWriter(config *Config, clock Clocker) *RSyncWriter {
	return &RSyncWriter{
		clock:  clock,
		folder: config.LogFolder,
		max:    int64(config.LogMaxSize) * megabyte,
		isProd: config.IsProduction,
	}
}

// Close closes the current log file.
func (w *RSyncWriter) Close() error {
	w.Lock()
	defer w.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Sync flushes the current log file.
func (w *RSyncWriter) Sync() error {
	w.Lock()
	defer w.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Write appends p to the current file and opens a new one when p would
// make it grow beyond the max size.
func (w *RSyncWriter) Write(p []byte) (int, error) {
	w.Lock()
	defer w.Unlock()
	n := int64(len(p))
	if n > w.max {
		return 0, fmt.Errorf("logging: log size %d exceeds max file size %d", n, w.max)
	}
	if w.file == nil || w.size+n > w.max {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	written, err := w.file.Write(p)
	w.size += int64(written)
	return written, err
}

// rotate must be called with the lock held.
func (w *RSyncWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}
	if err := os.MkdirAll(w.folder, 0o700); err != nil {
		return err
	}
	file, err := os.OpenFile(CreateLogFilePath(w.folder, w.isProd, w.clock.Now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = file
	w.size = 0
	return nil
}

// stdoutSyncer avoids the `Handle is invalid` error returned when
// calling Sync() on a logger writing to os.Stdout.
type stdoutSyncer struct {
	out *os.File
}

func (s *stdoutSyncer) Sync() error {
	return nil
}

func (s *stdoutSyncer) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// SetupLogging builds the application logger. Production logs go to the
// rotated file only. Development logs go to the file and to the console.
// Stacktraces are only attached to fatal entries and every entry carries
// the build details.
func SetupLogging(config *Config, w zapcore.WriteSyncer, clock TickerClocker) (*zap.Logger, func() error) {
	var encoderConfig zapcore.EncoderConfig
	if config.IsProduction {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "lvl"
	encoderConfig.NameKey = "name"
	encoderConfig.MessageKey = "msg"
	encoderConfig.CallerKey = "caller"
	encoderConfig.StacktraceKey = "skt"

	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, config.LogLevel)}
	if !config.IsProduction {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(&stdoutSyncer{os.Stdout}),
			config.LogLevel,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(clock))
	logger = logger.With(
		zap.String("app.commit", config.GitCommit),
		zap.String("app.tag", config.GitTag),
		zap.String("app.built", config.BuildTime),
	)

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}
	return logger, flusher
}

// GetLoggerFromContext retrieves the request logger set by the core middleware.
// It falls back to the api handler logger.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok {
		return logger
	}
	return api.logger
}

// CreateLogFilePath returns the path of a new log file named after t.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	envKey := "dev"
	if isProd {
		envKey = "prod"
	}
	name := fmt.Sprintf("%04d%02d%02d.%02d%02d%02d.%s.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), envKey)
	return filepath.Join(folder, name)
}
