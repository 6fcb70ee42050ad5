package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"mcp-tool-service/pkg/errors"
)

// LogContext represents contextual information for log entries
type LogContext map[string]interface{}

// StructuredLogger provides structured logging capabilities
type StructuredLogger struct {
	logger    *slog.Logger
	component string
	context   LogContext
	manager   *LoggingManager
}

// NewStructuredLoggerWithWriter creates a structured logger writing JSON to w
func NewStructuredLoggerWithWriter(component string, w io.Writer) *StructuredLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(time.Now().UTC().Format(time.RFC3339Nano)),
				}
			case slog.LevelKey:
				return slog.Attr{Key: "level", Value: a.Value}
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: a.Value}
			}
			return a
		},
	}

	return &StructuredLogger{
		logger:    slog.New(slog.NewJSONHandler(w, opts)),
		component: component,
		context:   make(LogContext),
	}
}

// WithContext adds context to the logger (returns a new logger instance)
func (sl *StructuredLogger) WithContext(key string, value interface{}) *StructuredLogger {
	newLogger := &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context:   make(LogContext, len(sl.context)+1),
		manager:   sl.manager,
	}

	for k, v := range sl.context {
		newLogger.context[k] = v
	}
	newLogger.context[key] = value
	return newLogger
}

// WithFields adds every entry of fields to the logger context
func (sl *StructuredLogger) WithFields(fields map[string]interface{}) *StructuredLogger {
	logger := sl
	for k, v := range fields {
		logger = logger.WithContext(k, v)
	}
	return logger
}

// WithError adds error information to the logger context
func (sl *StructuredLogger) WithError(err error) *StructuredLogger {
	if err == nil {
		return sl
	}

	newLogger := sl.WithContext("error", err.Error())

	if structuredErr, ok := err.(*errors.StructuredError); ok {
		newLogger = newLogger.
			WithContext("error_category", structuredErr.Category).
			WithContext("error_code", structuredErr.Code).
			WithContext("error_severity", structuredErr.Severity).
			WithContext("error_recoverable", structuredErr.IsRecoverable())

		for k, v := range structuredErr.Context {
			newLogger = newLogger.WithContext(fmt.Sprintf("error_ctx_%s", k), v)
		}
	}

	return newLogger
}

// buildLogAttributes creates slog attributes from context
func (sl *StructuredLogger) buildLogAttributes() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("component", sl.component),
	}
	for key, value := range sl.context {
		attrs = append(attrs, slog.Any(key, value))
	}
	return attrs
}

func (sl *StructuredLogger) log(level LogLevel, slogLevel slog.Level, message string) {
	if sl.manager != nil {
		if !sl.manager.shouldLog(level) {
			return
		}
		sl.manager.updateStats(sl.component, level.String())
	}
	sl.logger.LogAttrs(context.Background(), slogLevel, message, sl.buildLogAttributes()...)
}

// Debug logs a debug message
func (sl *StructuredLogger) Debug(message string) {
	sl.log(LogLevelDEBUG, slog.LevelDebug, message)
}

// Info logs an info message
func (sl *StructuredLogger) Info(message string) {
	sl.log(LogLevelINFO, slog.LevelInfo, message)
}

// Warn logs a warning message
func (sl *StructuredLogger) Warn(message string) {
	sl.log(LogLevelWARN, slog.LevelWarn, message)
}

// Error logs an error message
func (sl *StructuredLogger) Error(message string) {
	sl.log(LogLevelERROR, slog.LevelError, message)
}

// LogMCPMessage logs an MCP protocol message with timing information
func (sl *StructuredLogger) LogMCPMessage(method string, requestID interface{}, traceID string, duration time.Duration, success bool) {
	logger := sl.WithContext("mcp_method", method).
		WithContext("request_id", requestID).
		WithContext("trace_id", traceID).
		WithContext("duration_ms", duration.Milliseconds()).
		WithContext("success", success)

	if success {
		logger.Info("MCP message processed successfully")
	} else {
		logger.Warn("MCP message processing failed")
	}
}

// LogStartup logs application startup events
func (sl *StructuredLogger) LogStartup(event string, details map[string]interface{}) {
	sl.WithContext("startup_event", event).WithFields(details).Info("Application startup event")
}

// LogShutdown logs application shutdown events
func (sl *StructuredLogger) LogShutdown(event string, details map[string]interface{}) {
	sl.WithContext("shutdown_event", event).WithFields(details).Info("Application shutdown event")
}

// LogFileSystemEvent logs file system monitoring events
func (sl *StructuredLogger) LogFileSystemEvent(eventType string, path string, details map[string]interface{}) {
	sl.WithContext("fs_event_type", eventType).
		WithContext("fs_path", path).
		WithFields(details).
		Info("File system event detected")
}

// SanitizeArguments prepares tool arguments for logging: secret-looking keys
// are redacted and long strings truncated to a preview with their length.
func SanitizeArguments(arguments map[string]interface{}) map[string]interface{} {
	const maxLogLength = 100

	sanitized := make(map[string]interface{}, len(arguments))
	for key, value := range arguments {
		if isSensitiveKey(key) {
			sanitized[key] = "[REDACTED]"
			continue
		}
		if strValue, ok := value.(string); ok && len(strValue) > maxLogLength {
			sanitized[key] = fmt.Sprintf("%s... [%d chars]", strValue[:maxLogLength], len(strValue))
		} else {
			sanitized[key] = value
		}
	}
	return sanitized
}

var sensitiveKeys = []string{
	"password", "token", "secret", "key", "auth", "credential",
	"private", "confidential", "sensitive",
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(keyLower, sensitiveKey) {
			return true
		}
	}
	return false
}
