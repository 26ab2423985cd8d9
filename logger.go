package tinyflag

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogLevel orders log severities. LevelNone disables output.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

var levelNames = [...]string{"debug", "info", "warn", "error", "none"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelNone {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel maps a level name to a LogLevel, falling back to info.
func ParseLogLevel(name string) LogLevel {
	for i, n := range levelNames {
		if strings.EqualFold(name, n) {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger is what the core logs through.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

// BasicLoggerOptions configures BasicLogger.
type BasicLoggerOptions struct {
	Level  LogLevel
	Prefix string
	// Destination receives each formatted line. Defaults to stderr.
	Destination func(args ...any)
}

// BasicLogger returns a leveled logger writing to opts.Destination.
func BasicLogger(opts BasicLoggerOptions) Logger {
	if opts.Prefix == "" {
		opts.Prefix = "[tinyflag]"
	}
	dest := opts.Destination
	if dest == nil {
		dest = writerLog(os.Stderr)
	}
	return &basicLogger{
		min: opts.Level,
		write: func(l LogLevel, args []any) {
			dest(opts.Prefix + " " + strings.ToUpper(l.String()) + ": " + fmt.Sprint(args...))
		},
	}
}

// ConsoleLogger logs through a host console, mapping warn and error levels
// to the matching console methods.
func ConsoleLogger(level LogLevel, c Console) Logger {
	return &basicLogger{
		min: level,
		write: func(l LogLevel, args []any) {
			line := "[tinyflag] " + fmt.Sprint(args...)
			switch l {
			case LevelWarn:
				c.Warn(line)
			case LevelError:
				c.Error(line)
			default:
				c.Log(line)
			}
		},
	}
}

type basicLogger struct {
	min   LogLevel
	write func(l LogLevel, args []any)
}

func (b *basicLogger) log(l LogLevel, args []any) {
	if b.min == LevelNone || l < b.min {
		return
	}
	b.write(l, args)
}

func (b *basicLogger) Debug(args ...any) { b.log(LevelDebug, args) }
func (b *basicLogger) Info(args ...any)  { b.log(LevelInfo, args) }
func (b *basicLogger) Warn(args ...any)  { b.log(LevelWarn, args) }
func (b *basicLogger) Error(args ...any) { b.log(LevelError, args) }

func writerLog(w io.Writer) func(args ...any) {
	return func(args ...any) {
		fmt.Fprintln(w, args...)
	}
}
