package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGray   = "\x1b[90m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

// Logger provides leveled logging for the CLI. Info and Debug are gated
// by Verbose and DebugMode; Warn and Error always print.
type Logger struct {
	Verbose   bool
	DebugMode bool
	Color     bool

	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewLogger creates a new logger instance writing to stderr
func NewLogger(verbose, debug bool) *Logger {
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		out:       os.Stderr,
		now:       time.Now,
	}
}

// SetOutput redirects log lines to w
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		l.log("INFO", ansiCyan, format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.log("DEBUG", ansiGray, format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", ansiYellow, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", ansiRed, format, args...)
}

func (l *Logger) log(level, color, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag := "[" + level + "]"
	if l.Color {
		tag = color + tag + ansiReset
	}
	fmt.Fprintf(l.out, "%s %s: %s\n", tag, l.now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// HandleError logs err and exits with code 1. It does nothing for nil.
func HandleError(err error, logger *Logger) {
	if err != nil {
		if logger != nil {
			logger.Error("%v", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitFailure)
	}
}
