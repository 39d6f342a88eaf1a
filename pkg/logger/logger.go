package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-research/pkg/config"
)

// Logger wraps zerolog for the research pipeline.
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New writes to stderr; stdout carries rendered result tables.
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a Logger writing to w. LOG_FORMAT=console|pretty
// switches to zerolog's human-readable writer.
func NewWithWriter(w io.Writer, cfg *config.Config) *Logger {
	var out io.Writer = w
	switch cfg.LogFormat {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))
	return &Logger{
		zlog: zerolog.New(out).With().Timestamp().Str("env", cfg.Env).Logger(),
	}
}

// Nop discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "debug", "info", "warn", "error", "fatal":
		l, _ := zerolog.ParseLevel(strings.ToLower(level))
		return l
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// WithField adds one structured field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields adds several structured fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Fields(fields).Logger()}
}

// WithError attaches err under the "error" key
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// WithComponent tags every entry with the emitting component (assembler, engine, api, ...)
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithField("component", name)
}
