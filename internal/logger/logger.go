package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelSuccess
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO ",
	LevelWarn:    "WARN ",
	LevelSuccess: "GOOD ",
	LevelError:   "ERROR",
}

var levelColors = map[LogLevel]*color.Color{
	LevelDebug:   color.New(color.FgCyan),
	LevelInfo:    color.New(color.FgBlue),
	LevelWarn:    color.New(color.FgYellow),
	LevelSuccess: color.New(color.FgGreen, color.Bold),
	LevelError:   color.New(color.FgRed, color.Bold),
}

var levelEmojis = map[LogLevel]string{
	LevelDebug:   "🐞",
	LevelInfo:    "ℹ️ ",
	LevelWarn:    "⚠️ ",
	LevelSuccess: "✨",
	LevelError:   "💥",
}

// shared settings used by package loggers that were not given their own
var (
	sharedMu    sync.RWMutex
	sharedOut   io.Writer = os.Stderr
	sharedLevel           = LevelInfo
)

// Configure sets the output and minimum level for every package logger.
func Configure(out io.Writer, level LogLevel) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedOut = out
	sharedLevel = level
}

// EnableColor toggles color output process wide
func EnableColor(enable bool) {
	color.NoColor = !enable
}

// Logger is the main logger struct
type Logger struct {
	mu       sync.Mutex
	display  string
	out      io.Writer
	minLevel LogLevel
	shared   bool
}

// New creates a logger with its own output and level
func New(out io.Writer, minLevel LogLevel) *Logger {
	return &Logger{out: out, minLevel: minLevel}
}

// PackageLogger creates a logger that follows Configure and tags every line
// with displayName.
func PackageLogger(displayName string) *Logger {
	return &Logger{display: displayName, shared: true}
}

func currentOut() io.Writer {
	sharedMu.RLock()
	defer sharedMu.RUnlock()
	return sharedOut
}

func currentLevel() LogLevel {
	sharedMu.RLock()
	defer sharedMu.RUnlock()
	return sharedLevel
}

// Log logs a message at a specific level
func (l *Logger) Log(level LogLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, minLevel := l.out, l.minLevel
	if l.shared || out == nil {
		out, minLevel = currentOut(), currentLevel()
	}
	if level < minLevel {
		return
	}

	var line strings.Builder
	line.WriteString(levelEmojis[level])
	line.WriteString(" ")
	line.WriteString(levelColors[level].Sprint(levelNames[level]))
	line.WriteString(" ")
	if l.display != "" {
		line.WriteString(color.New(color.Faint).Sprint(l.display))
		line.WriteString(" ")
	}
	line.WriteString(fmt.Sprintf(msg, args...))
	line.WriteString("\n")

	_, _ = io.WriteString(out, line.String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Log(LevelDebug, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.Log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.Log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.Log(LevelError, msg, args...)
}

// Success logs a success message
func (l *Logger) Success(msg string, args ...interface{}) {
	l.Log(LevelSuccess, msg, args...)
}
