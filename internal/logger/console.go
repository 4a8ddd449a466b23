// Package logger provides leveled console logging and progress display for
// scan runs. Implementations are thread-safe; output is timestamped and
// colorized when writing to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes leveled, timestamped log lines to a writer.
// If writer is nil, messages are silently discarded.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to the provided writer.
// logLevel sets the minimum level for output (trace, debug, info, warn,
// error; case-insensitive; empty or invalid defaults to "info"). Color is
// enabled automatically for os.Stdout/os.Stderr TTYs and respects NO_COLOR.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// Tracef logs at trace level.
func (cl *ConsoleLogger) Tracef(format string, args ...any) {
	cl.logf("trace", format, args...)
}

// Debugf logs at debug level.
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.logf("debug", format, args...)
}

// Infof logs at info level.
func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.logf("info", format, args...)
}

// Warnf logs at warn level.
func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.logf("warn", format, args...)
}

// Errorf logs at error level.
func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.logf("error", format, args...)
}

func (cl *ConsoleLogger) logf(level, format string, args ...any) {
	if cl == nil || cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg)
	if cl.colorOutput {
		switch level {
		case "warn":
			line = color.YellowString("%s", line)
		case "error":
			line = color.RedString("%s", line)
		case "trace", "debug":
			line = color.HiBlackString("%s", line)
		}
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintln(cl.writer, line)
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true only for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// The color library's detection also honors NO_COLOR.
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel lowercases and validates a level string, defaulting to
// "info" for empty or unknown levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if _, ok := levelValue(normalized); ok {
		return normalized
	}
	return "info"
}

// shouldLog reports whether a message at messageLevel passes the configured
// threshold.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	configured, _ := levelValue(cl.logLevel)
	msg, _ := levelValue(messageLevel)
	return msg >= configured
}

func levelValue(level string) (int, bool) {
	switch level {
	case "trace":
		return levelTrace, true
	case "debug":
		return levelDebug, true
	case "info":
		return levelInfo, true
	case "warn":
		return levelWarn, true
	case "error":
		return levelError, true
	default:
		return levelInfo, false
	}
}
