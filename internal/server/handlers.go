package server

import (
	"encoding/json"
	"runtime"
	"time"

	"mcp-tool-service/internal/models"
)

// handleInitialize handles the MCP initialize method. It always succeeds;
// client parameters are only logged.
func (s *MCPServer) handleInitialize(message *models.MCPMessage) *models.MCPMessage {
	var params models.MCPInitializeParams
	if len(message.Params) > 0 && json.Unmarshal(message.Params, &params) == nil {
		s.logger.
			WithContext("client_name", params.ClientInfo.Name).
			WithContext("client_version", params.ClientInfo.Version).
			WithContext("client_protocol_version", params.ProtocolVersion).
			Info("Client connected")
	}

	result := models.MCPInitializeResult{
		ProtocolVersion: s.config.Server.ProtocolVersion,
		Capabilities:    s.capabilities,
		ServerInfo:      s.serverInfo,
	}

	return models.NewResponse(message.ID, result)
}

// handleInitialized handles the notifications/initialized method
func (s *MCPServer) handleInitialized(message *models.MCPMessage) *models.MCPMessage {
	s.initialized.Store(true)
	s.logger.Info("MCP session initialized")
	return nil // No response for notifications
}

// handlePing answers a liveness check with an empty result
func (s *MCPServer) handlePing(message *models.MCPMessage) *models.MCPMessage {
	return models.NewResponse(message.ID, struct{}{})
}

// handlePerformanceMetrics handles requests for server performance metrics
func (s *MCPServer) handlePerformanceMetrics(message *models.MCPMessage) *models.MCPMessage {
	serverMetrics := map[string]interface{}{
		"server_info":   s.serverInfo,
		"initialized":   s.initialized.Load(),
		"uptime_ms":     time.Since(s.startTime).Milliseconds(),
		"tool_metrics":  s.toolManager.GetPerformanceMetrics(),
		"logging_stats": s.loggingManager.GetStats(),
		"loggers":       s.loggingManager.GetLoggerNames(),
		"log_context":   s.loggingManager.GetGlobalContext(),
		"log_level":     s.loggingManager.GetLogLevel().String(),
		"goroutines":    runtime.NumGoroutine(),
		"memory_stats":  getMemoryStats(),
		"timestamp":     time.Now().Format(time.RFC3339),
	}

	return models.NewResponse(message.ID, serverMetrics)
}
