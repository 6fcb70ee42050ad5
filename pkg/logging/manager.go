package logging

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelDEBUG LogLevel = iota
	LogLevelINFO
	LogLevelWARN
	LogLevelERROR
)

// String returns the upper-case level name
func (l LogLevel) String() string {
	switch l {
	case LogLevelDEBUG:
		return "DEBUG"
	case LogLevelWARN:
		return "WARN"
	case LogLevelERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel maps a level name to a LogLevel, case-insensitively.
// Unknown names map to INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LogLevelDEBUG
	case "WARN", "WARNING":
		return LogLevelWARN
	case "ERROR":
		return LogLevelERROR
	default:
		return LogLevelINFO
	}
}

// LoggingManager manages structured logging across the application
type LoggingManager struct {
	loggers map[string]*StructuredLogger
	mutex   sync.RWMutex
	writer  io.Writer

	// Global context that gets added to all log entries
	globalContext LogContext

	stats LoggingStats

	logLevel LogLevel
}

// LoggingStats tracks logging statistics
type LoggingStats struct {
	TotalMessages    int64            `json:"totalMessages"`
	MessagesByLevel  map[string]int64 `json:"messagesByLevel"`
	MessagesByLogger map[string]int64 `json:"messagesByLogger"`
	ErrorCount       int64            `json:"errorCount"`
	LastLogTime      time.Time        `json:"lastLogTime"`
}

// NewLoggingManager creates a new logging manager writing to stderr
func NewLoggingManager() *LoggingManager {
	return NewLoggingManagerWithWriter(os.Stderr)
}

// NewLoggingManagerWithWriter creates a logging manager whose loggers write to w
func NewLoggingManagerWithWriter(w io.Writer) *LoggingManager {
	return &LoggingManager{
		loggers:       make(map[string]*StructuredLogger),
		writer:        &syncWriter{w: w},
		globalContext: make(LogContext),
		stats: LoggingStats{
			MessagesByLevel:  make(map[string]int64),
			MessagesByLogger: make(map[string]int64),
		},
		logLevel: LogLevelINFO,
	}
}

// GetLogger gets or creates a logger for a specific component
func (lm *LoggingManager) GetLogger(component string) *StructuredLogger {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if logger, exists := lm.loggers[component]; exists {
		return logger
	}

	logger := NewStructuredLoggerWithWriter(component, lm.writer)
	logger.manager = lm

	for key, value := range lm.globalContext {
		logger = logger.WithContext(key, value)
	}

	lm.loggers[component] = logger
	return logger
}

// SetLogLevel sets the logging level for all loggers.
// Accepts any string and defaults to INFO for invalid levels.
func (lm *LoggingManager) SetLogLevel(level string) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.logLevel = ParseLogLevel(level)
}

// GetLogLevel returns the active logging level
func (lm *LoggingManager) GetLogLevel() LogLevel {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return lm.logLevel
}

func (lm *LoggingManager) shouldLog(level LogLevel) bool {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return level >= lm.logLevel
}

// SetGlobalContext sets global context that will be added to all log entries
func (lm *LoggingManager) SetGlobalContext(key string, value interface{}) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.globalContext[key] = value

	for component, logger := range lm.loggers {
		lm.loggers[component] = logger.WithContext(key, value)
	}
}

// GetGlobalContext returns a copy of the global context
func (lm *LoggingManager) GetGlobalContext() LogContext {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	context := make(LogContext, len(lm.globalContext))
	for k, v := range lm.globalContext {
		context[k] = v
	}
	return context
}

// LogError logs an error with full context
func (lm *LoggingManager) LogError(component string, err error, message string, context map[string]interface{}) {
	lm.GetLogger(component).WithError(err).WithFields(context).Error(message)
}

// LogMCPRequest logs MCP protocol requests with timing
func (lm *LoggingManager) LogMCPRequest(method string, requestID interface{}, traceID string, duration time.Duration, success bool, errorMsg string) {
	logger := lm.GetLogger("mcp_protocol")

	if !success && errorMsg != "" {
		logger = logger.WithContext("error_message", errorMsg)
	}

	logger.LogMCPMessage(method, requestID, traceID, duration, success)
}

// LogToolInvocation logs a single tool call with its sanitized arguments
func (lm *LoggingManager) LogToolInvocation(tool, traceID string, arguments map[string]interface{}, duration time.Duration, err error) {
	logger := lm.GetLogger("tools").
		WithContext("tool", tool).
		WithContext("trace_id", traceID).
		WithContext("duration_ms", duration.Milliseconds())

	for k, v := range SanitizeArguments(arguments) {
		logger = logger.WithContext("arg_"+k, v)
	}

	if err != nil {
		logger.WithError(err).Warn("Tool execution failed")
		return
	}
	logger.Info("Tool execution completed")
}

// LogConfigReload logs a change applied from a reloaded configuration file
func (lm *LoggingManager) LogConfigReload(path string, changes map[string]interface{}, err error) {
	logger := lm.GetLogger("config").WithContext("config_path", path).WithFields(changes)
	if err != nil {
		logger.WithError(err).Warn("Configuration reload failed")
		return
	}
	logger.Info("Configuration reloaded")
}

// LogConfigWarnings logs each adjustment made while loading the configuration
func (lm *LoggingManager) LogConfigWarnings(path string, warnings []string) {
	logger := lm.GetLogger("config").WithContext("config_path", path)
	for _, warning := range warnings {
		logger.Warn(warning)
	}
}

// LogStartupSequence logs application startup sequence
func (lm *LoggingManager) LogStartupSequence(phase string, details map[string]interface{}, duration time.Duration, success bool) {
	startupDetails := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		startupDetails[k] = v
	}
	startupDetails["duration_ms"] = duration.Milliseconds()
	startupDetails["success"] = success

	lm.GetLogger("startup").LogStartup(phase, startupDetails)
}

// LogShutdownSequence logs application shutdown sequence
func (lm *LoggingManager) LogShutdownSequence(phase string, details map[string]interface{}, duration time.Duration, success bool) {
	shutdownDetails := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		shutdownDetails[k] = v
	}
	shutdownDetails["duration_ms"] = duration.Milliseconds()
	shutdownDetails["success"] = success

	lm.GetLogger("shutdown").LogShutdown(phase, shutdownDetails)
}

// updateStats updates logging statistics
func (lm *LoggingManager) updateStats(component, level string) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.stats.TotalMessages++
	lm.stats.MessagesByLevel[level]++
	lm.stats.MessagesByLogger[component]++
	lm.stats.LastLogTime = time.Now()

	if level == "ERROR" {
		lm.stats.ErrorCount++
	}
}

// GetStats returns current logging statistics
func (lm *LoggingManager) GetStats() LoggingStats {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	stats := LoggingStats{
		TotalMessages:    lm.stats.TotalMessages,
		ErrorCount:       lm.stats.ErrorCount,
		LastLogTime:      lm.stats.LastLogTime,
		MessagesByLevel:  make(map[string]int64, len(lm.stats.MessagesByLevel)),
		MessagesByLogger: make(map[string]int64, len(lm.stats.MessagesByLogger)),
	}

	for k, v := range lm.stats.MessagesByLevel {
		stats.MessagesByLevel[k] = v
	}
	for k, v := range lm.stats.MessagesByLogger {
		stats.MessagesByLogger[k] = v
	}

	return stats
}

// GetLoggerNames returns the names of all registered loggers, sorted
func (lm *LoggingManager) GetLoggerNames() []string {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// syncWriter serializes writes from the per-component handlers, which
// each hold their own lock, onto the one shared writer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}
