package tools

import (
	"context"
	"sort"
	"sync"

	"mcp-tool-service/pkg/errors"
	"mcp-tool-service/pkg/logging"
)

// ToolManager serves tool discovery and execution on top of a Registry
type ToolManager struct {
	registry *Registry
	executor *ToolExecutor
	logging  *logging.LoggingManager

	stats ToolStats
}

// ToolStats tracks performance metrics for tool invocations
type ToolStats struct {
	TotalInvocations     int64
	FailedInvocations    int64
	PanicCount           int64
	InvocationsByName    map[string]int64
	TotalExecutionTimeMs int64
	ExecutionTimeByName  map[string]int64
	mu                   sync.RWMutex
}

// NewToolManager creates a ToolManager serving registry
func NewToolManager(registry *Registry, loggingManager *logging.LoggingManager) *ToolManager {
	return &ToolManager{
		registry: registry,
		executor: NewToolExecutor(),
		logging:  loggingManager,
		stats: ToolStats{
			InvocationsByName:   make(map[string]int64),
			ExecutionTimeByName: make(map[string]int64),
		},
	}
}

// Registry returns the registry the manager serves
func (tm *ToolManager) Registry() *Registry {
	return tm.registry
}

// ListTools returns all registered tools in registration order
func (tm *ToolManager) ListTools() []Descriptor {
	return tm.registry.List()
}

// ExecuteTool looks up a tool by name and invokes it. An unknown name
// yields a tool-not-found error; any other failure an execution error.
func (tm *ToolManager) ExecuteTool(ctx context.Context, traceID, name string, arguments map[string]interface{}) Outcome {
	tool, ok := tm.registry.Lookup(name)
	if !ok {
		return Outcome{Err: errors.NewToolNotFoundError(name)}
	}

	if extra := unknownArguments(tool, arguments); len(extra) > 0 {
		tm.logging.GetLogger("tools").
			WithContext("tool_name", name).
			WithContext("trace_id", traceID).
			WithContext("arguments", extra).
			Debug("Ignoring unknown arguments")
	}

	outcome := tm.executor.Execute(ctx, tool, arguments)

	if outcome.OK() {
		tm.recordSuccess(name, outcome.Duration.Milliseconds())
		tm.logging.LogToolInvocation(name, traceID, arguments, outcome.Duration, nil)
	} else {
		tm.recordFailure(name, outcome.Err.Code == errors.ErrCodeToolPanic)
		tm.logging.LogToolInvocation(name, traceID, arguments, outcome.Duration, outcome.Err)
	}

	return outcome
}

// unknownArguments lists the supplied argument names the tool does not
// declare, sorted
func unknownArguments(tool Descriptor, arguments map[string]interface{}) []string {
	if len(arguments) == 0 {
		return nil
	}

	declared := make(map[string]struct{}, len(tool.Parameters))
	for _, name := range tool.ParameterNames() {
		declared[name] = struct{}{}
	}

	var extra []string
	for name := range arguments {
		if _, ok := declared[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}

// GetPerformanceMetrics returns current performance metrics
func (tm *ToolManager) GetPerformanceMetrics() map[string]interface{} {
	tm.stats.mu.RLock()
	defer tm.stats.mu.RUnlock()

	invocationsByName := make(map[string]int64, len(tm.stats.InvocationsByName))
	for name, count := range tm.stats.InvocationsByName {
		invocationsByName[name] = count
	}

	executionTimeByName := make(map[string]int64, len(tm.stats.ExecutionTimeByName))
	for name, ms := range tm.stats.ExecutionTimeByName {
		executionTimeByName[name] = ms
	}

	return map[string]interface{}{
		"registered_tools":        tm.registry.Len(),
		"total_invocations":       tm.stats.TotalInvocations,
		"failed_invocations":      tm.stats.FailedInvocations,
		"panic_count":             tm.stats.PanicCount,
		"invocations_by_name":     invocationsByName,
		"total_execution_time_ms": tm.stats.TotalExecutionTimeMs,
		"execution_time_by_name":  executionTimeByName,
	}
}

func (tm *ToolManager) recordSuccess(toolName string, executionTimeMs int64) {
	tm.stats.mu.Lock()
	defer tm.stats.mu.Unlock()

	tm.stats.TotalInvocations++
	tm.stats.InvocationsByName[toolName]++
	tm.stats.TotalExecutionTimeMs += executionTimeMs
	tm.stats.ExecutionTimeByName[toolName] += executionTimeMs
}

func (tm *ToolManager) recordFailure(toolName string, panicked bool) {
	tm.stats.mu.Lock()
	defer tm.stats.mu.Unlock()

	tm.stats.TotalInvocations++
	tm.stats.FailedInvocations++
	tm.stats.InvocationsByName[toolName]++
	if panicked {
		tm.stats.PanicCount++
	}
}
