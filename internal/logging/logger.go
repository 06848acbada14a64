// Package logging provides structured logging for the filter panel.
// It implements a centralized logging strategy with configurable log levels
// and output formats built on log/slog.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents the severity of log messages
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a profile-supplied level name to a LogLevel,
// defaulting to InfoLevel for unrecognized input
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides structured logging with component context
type Logger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
}

// Config represents logging configuration
type Config struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    string // "stderr", "stdout", or file path
	Component string
}

// DefaultConfig returns a sensible default logging configuration. Output
// defaults to stderr so log lines do not interleave with the terminal UI
// drawn on stdout.
func DefaultConfig() Config {
	return Config{
		Level:     InfoLevel,
		Format:    "text",
		Output:    "stderr",
		Component: "panel",
	}
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config Config) (*Logger, error) {
	var output *os.File
	switch config.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		output = file
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel(config.Level),
	}

	var handler slog.Handler
	switch config.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		logger:    slog.New(handler),
		level:     config.Level,
		component: config.Component,
	}, nil
}

// slogLevel converts our LogLevel to slog.Level
func slogLevel(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent creates a new logger for a specific component
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.String("component", component)),
		level:     l.level,
		component: component,
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.Any(key, value)),
		level:     l.level,
		component: l.component,
	}
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		logger:    l.logger.With(args...),
		level:     l.level,
		component: l.component,
	}
}

// Debug logs a debug level message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DebugLevel {
		l.logger.Debug(msg, args...)
	}
}

// Info logs an info level message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= InfoLevel {
		l.logger.Info(msg, args...)
	}
}

// Warn logs a warning level message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WarnLevel {
		l.logger.Warn(msg, args...)
	}
}

// Error logs an error level message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.level <= ErrorLevel {
		l.logger.Error(msg, args...)
	}
}

// LogConnectionAttempt logs a channel connection attempt
func (l *Logger) LogConnectionAttempt(url string, attempt int) {
	l.Info("Attempting connection",
		slog.String("url", url),
		slog.Int("attempt", attempt))
}

// LogConnectionSuccess logs a completed opening handshake
func (l *Logger) LogConnectionSuccess(url string, duration time.Duration) {
	l.Info("Channel established",
		slog.String("url", url),
		slog.Duration("handshake_duration", duration))
}

// LogConnectionClosed logs channel termination with the close code when known
func (l *Logger) LogConnectionClosed(code int, reason string) {
	l.Warn("Channel closed",
		slog.Int("code", code),
		slog.String("reason", reason))
}

// LogReconnectScheduled logs a pending retry and its computed backoff delay
func (l *Logger) LogReconnectScheduled(attempt int, delay time.Duration) {
	l.Info("Reconnect scheduled",
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay))
}

// LogDecodeFailure logs a dropped inbound envelope. The raw payload is not
// logged, only its size.
func (l *Logger) LogDecodeFailure(err error, payloadSize int) {
	l.Warn("Dropped undecodable message",
		slog.String("error", err.Error()),
		slog.Int("payload_bytes", payloadSize))
}

// LogSendFailure logs a failed outbound write
func (l *Logger) LogSendFailure(messageType string, err error) {
	l.Warn("Send failed",
		slog.String("message_type", messageType),
		slog.String("error", err.Error()))
}

// LogConfigLoad logs configuration loading operations
func (l *Logger) LogConfigLoad(configPath string, profileName string) {
	l.Debug("Loading configuration",
		slog.String("config_path", configPath),
		slog.String("profile", profileName))
}

// LogHTTPRequest logs rule-submission request details
func (l *Logger) LogHTTPRequest(method string, url string, statusCode int, duration time.Duration) {
	l.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status_code", statusCode),
		slog.Duration("duration", duration))
}

// LogUIStateChange logs user interface state transitions
func (l *Logger) LogUIStateChange(from string, to string, reason string) {
	l.Debug("UI state change",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("reason", reason))
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger with the specified configuration
func InitGlobalLogger(config Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global logger: %w", err)
	}
	globalLogger = logger
	return nil
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// Fallback to default configuration if not initialized
		globalLogger, _ = NewLogger(DefaultConfig())
	}
	return globalLogger
}

// Component-specific logger creators
func GetTransportLogger() *Logger {
	return GetGlobalLogger().WithComponent("transport")
}

func GetSessionLogger() *Logger {
	return GetGlobalLogger().WithComponent("session")
}

func GetProtocolLogger() *Logger {
	return GetGlobalLogger().WithComponent("protocol")
}

func GetRulesLogger() *Logger {
	return GetGlobalLogger().WithComponent("rules")
}

func GetConfigLogger() *Logger {
	return GetGlobalLogger().WithComponent("config")
}

func GetUILogger() *Logger {
	return GetGlobalLogger().WithComponent("ui")
}
