package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a leveled structured logger backed by zerolog.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string // time format for log messages
	Service    string // added to every line when set
}

// callerSkip accounts for Logger.<Level> and emit above the zerolog call.
const callerSkip = 4

func New(cfg *Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zerolog.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	zctx := zerolog.New(output).Level(level).With().Timestamp().CallerWithSkipFrameCount(callerSkip)
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	return &Logger{zl: zctx.Logger()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// NewWriter returns a debug-level JSON logger writing to w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()}
}

// With returns a child logger that always carries fields.
func (l *Logger) With(fields ...Field) *Logger {
	zctx := l.zl.With()
	for _, f := range fields {
		zctx = f.context(zctx)
	}
	return &Logger{zl: zctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), msg, fields) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Field) { l.emit(l.zl.Fatal(), msg, fields) }

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		f.event(event)
	}
	event.Msg(msg)
}

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindError
	kindAny
)

// Field is one structured key/value pair.
type Field struct {
	Key  string
	kind fieldKind
	s    string
	i    int64
	f    float64
	b    bool
	err  error
	any  interface{}
}

func (f Field) event(e *zerolog.Event) {
	switch f.kind {
	case kindString:
		e.Str(f.Key, f.s)
	case kindInt:
		e.Int64(f.Key, f.i)
	case kindFloat:
		e.Float64(f.Key, f.f)
	case kindBool:
		e.Bool(f.Key, f.b)
	case kindError:
		e.AnErr(f.Key, f.err)
	default:
		e.Interface(f.Key, f.any)
	}
}

func (f Field) context(c zerolog.Context) zerolog.Context {
	switch f.kind {
	case kindString:
		return c.Str(f.Key, f.s)
	case kindInt:
		return c.Int64(f.Key, f.i)
	case kindFloat:
		return c.Float64(f.Key, f.f)
	case kindBool:
		return c.Bool(f.Key, f.b)
	case kindError:
		return c.AnErr(f.Key, f.err)
	default:
		return c.Interface(f.Key, f.any)
	}
}

func String(key, value string) Field  { return Field{Key: key, kind: kindString, s: value} }
func Int(key string, value int) Field { return Field{Key: key, kind: kindInt, i: int64(value)} }
func Int64(key string, value int64) Field {
	return Field{Key: key, kind: kindInt, i: value}
}
func Float64(key string, value float64) Field { return Field{Key: key, kind: kindFloat, f: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, kind: kindBool, b: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, kind: kindAny, any: value} }

// Error logs err under "error". A nil error is omitted.
func Error(err error) Field { return Field{Key: zerolog.ErrorFieldName, kind: kindError, err: err} }

// Duration logs whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, kind: kindInt, i: value.Milliseconds()}
}

// Strings logs a comma separated list.
func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}
