package server

import (
	"encoding/json"
	"runtime"

	"mcp-tool-service/internal/models"
	"mcp-tool-service/pkg/errors"
)

// createErrorResponse creates an MCP error response
func (s *MCPServer) createErrorResponse(id json.RawMessage, code int, message string) *models.MCPMessage {
	return models.NewErrorResponse(id, &models.MCPError{
		Code:    code,
		Message: message,
	})
}

// createStructuredErrorResponse creates an MCP error response from a structured error
func (s *MCPServer) createStructuredErrorResponse(id json.RawMessage, structuredErr *errors.StructuredError) *models.MCPMessage {
	return models.NewErrorResponse(id, structuredErr.ToMCPError())
}

// getMemoryStats returns current memory statistics
func getMemoryStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"alloc_bytes":       m.Alloc,
		"total_alloc_bytes": m.TotalAlloc,
		"sys_bytes":         m.Sys,
		"num_gc":            m.NumGC,
		"gc_cpu_fraction":   m.GCCPUFraction,
	}
}
