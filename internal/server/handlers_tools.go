package server

import (
	"bytes"
	"context"
	"encoding/json"

	"mcp-tool-service/internal/models"
	"mcp-tool-service/pkg/errors"
)

// handleToolsList handles the tools/list method
func (s *MCPServer) handleToolsList(message *models.MCPMessage) *models.MCPMessage {
	descriptors := s.toolManager.ListTools()

	mcpTools := make([]models.MCPTool, 0, len(descriptors))
	for _, d := range descriptors {
		mcpTools = append(mcpTools, models.MCPTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
		})
	}

	return models.NewResponse(message.ID, models.MCPToolsListResult{Tools: mcpTools})
}

// handleToolsCall handles the tools/call method
func (s *MCPServer) handleToolsCall(ctx context.Context, traceID string, message *models.MCPMessage) *models.MCPMessage {
	params, err := decodeToolsCallParams(message.Params)
	if err != nil {
		structuredErr := errors.NewValidationError(errors.ErrCodeInvalidParams, "Invalid params", err)
		return s.createStructuredErrorResponse(message.ID, structuredErr)
	}

	outcome := s.toolManager.ExecuteTool(ctx, traceID, params.Name, params.Arguments)
	if !outcome.OK() {
		return s.createStructuredErrorResponse(message.ID, outcome.Err)
	}

	return models.NewResponse(message.ID, models.NewTextResult(outcome.Text))
}

// decodeToolsCallParams decodes tools/call params, keeping numbers as
// json.Number so integers survive without a float round trip. Absent or
// null params decode to the zero value.
func decodeToolsCallParams(raw json.RawMessage) (models.MCPToolsCallParams, error) {
	var params models.MCPToolsCallParams
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return params, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil {
		return models.MCPToolsCallParams{}, err
	}
	return params, nil
}
