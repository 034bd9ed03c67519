package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Entry is a structured log entry. In TUI mode entries are delivered over a
// channel so the dashboard can render them instead of writing to the terminal.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Subsystem string
	Message   string
	Err       error
}

const channelBufferSize = 1024

var (
	mu        sync.Mutex
	logger    *slog.Logger
	entryChan chan Entry
	tuiMode   bool
	debugMode bool
)

// InitForCLI routes all log output through a slog text handler on the given
// writer. Called once at startup.
func InitForCLI(level Level, output io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	tuiMode = false
	debugMode = level == LevelDebug
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level.slogLevel()}))
	slog.SetDefault(logger)
}

// InitForTUI switches logging into channel mode and returns the channel the
// TUI must drain. Writing to the terminal would corrupt the dashboard, so
// nothing is printed directly while the channel is installed.
func InitForTUI(level Level) <-chan Entry {
	mu.Lock()
	defer mu.Unlock()
	tuiMode = true
	debugMode = level == LevelDebug
	entryChan = make(chan Entry, channelBufferSize)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.slogLevel()}))
	return entryChan
}

// DebugEnabled reports whether debug-level logging is active. The supervisor
// uses it to decide whether ignored signal races are worth mentioning.
func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugMode
}

func log(level Level, subsystem string, err error, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	mu.Lock()
	ch, isTUI, l := entryChan, tuiMode, logger
	mu.Unlock()

	if isTUI && ch != nil {
		select {
		case ch <- Entry{Timestamp: time.Now(), Level: level, Subsystem: subsystem, Message: msg, Err: err}:
		default:
			// Channel full: the TUI stopped draining, drop rather than block.
		}
		return
	}

	if l == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", level, subsystem, msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
		}
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

// Debug logs a debug message for the given subsystem.
func Debug(subsystem, format string, args ...interface{}) {
	log(LevelDebug, subsystem, nil, format, args...)
}

// Info logs an informational message for the given subsystem.
func Info(subsystem, format string, args ...interface{}) {
	log(LevelInfo, subsystem, nil, format, args...)
}

// Warn logs a warning for the given subsystem.
func Warn(subsystem, format string, args ...interface{}) {
	log(LevelWarn, subsystem, nil, format, args...)
}

// Error logs an error with an optional underlying cause.
func Error(subsystem string, err error, format string, args ...interface{}) {
	log(LevelError, subsystem, err, format, args...)
}

// CloseChannel closes the TUI entry channel on shutdown.
func CloseChannel() {
	mu.Lock()
	defer mu.Unlock()
	if entryChan != nil {
		close(entryChan)
		entryChan = nil
		tuiMode = false
	}
}
