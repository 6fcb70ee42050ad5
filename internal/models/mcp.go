package models

import "encoding/json"

// JSONRPCVersion is the only protocol version this server speaks
const JSONRPCVersion = "2.0"

// MCPMessage represents a JSON-RPC 2.0 message for MCP protocol.
//
// ID and Params are kept as raw JSON so the request id is echoed back
// byte-for-byte. A nil ID marshals as null, which is what responses to
// id-less requests carry.
type MCPMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *MCPError       `json:"error,omitempty"`
}

// IsNotification reports whether the message carries no id at all.
// An explicit "id": null is still a request.
func (m *MCPMessage) IsNotification() bool {
	return m.ID == nil
}

// MCPError represents an error in MCP protocol
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used by the server
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// MCPServerInfo represents server information for MCP initialization
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPCapabilities represents server capabilities.
// Tools is always present, even when empty, so clients see "tools":{}.
type MCPCapabilities struct {
	Tools MCPToolCapabilities `json:"tools"`
}

// MCPInitializeParams represents initialization parameters
type MCPInitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      MCPClientInfo          `json:"clientInfo"`
}

// MCPClientInfo represents client information
type MCPClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPInitializeResult represents initialization result
type MCPInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    MCPCapabilities `json:"capabilities"`
	ServerInfo      MCPServerInfo   `json:"serverInfo"`
}

// NewResponse builds a result response echoing id
func NewResponse(id json.RawMessage, result interface{}) *MCPMessage {
	return &MCPMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse builds an error response echoing id
func NewErrorResponse(id json.RawMessage, mcpErr *MCPError) *MCPMessage {
	return &MCPMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   mcpErr,
	}
}
