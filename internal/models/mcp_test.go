package models

import (
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPMessageIDEcho(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{"numeric id", `{"jsonrpc":"2.0","id":7,"method":"ping"}`, `7`},
		{"string id", `{"jsonrpc":"2.0","id":"abc","method":"ping"}`, `"abc"`},
		{"large numeric id", `{"jsonrpc":"2.0","id":12345678901234567890,"method":"ping"}`, `12345678901234567890`},
		{"explicit null id", `{"jsonrpc":"2.0","id":null,"method":"ping"}`, `null`},
		{"absent id", `{"jsonrpc":"2.0","method":"ping"}`, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var request MCPMessage
			require.NoError(t, json.Unmarshal([]byte(tt.input), &request))

			data, err := json.Marshal(NewResponse(request.ID, struct{}{}))
			require.NoError(t, err)

			var envelope map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &envelope))
			assert.Equal(t, tt.wantID, string(envelope["id"]))
			assert.Equal(t, `"2.0"`, string(envelope["jsonrpc"]))
		})
	}
}

func TestMCPMessageIsNotification(t *testing.T) {
	var withNull, without MCPMessage
	require.NoError(t, json.Unmarshal([]byte(`{"id":null,"method":"x"}`), &withNull))
	require.NoError(t, json.Unmarshal([]byte(`{"method":"x"}`), &without))

	assert.False(t, withNull.IsNotification())
	assert.True(t, without.IsNotification())
}

func TestErrorResponseSerialization(t *testing.T) {
	response := NewErrorResponse(json.RawMessage(`5`), &MCPError{
		Code:    CodeMethodNotFound,
		Message: "Method not found",
	})

	data, err := json.Marshal(response)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.NotContains(t, parsed, "result")
	errObj, ok := parsed["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(-32601), errObj["code"])
	assert.Equal(t, "Method not found", errObj["message"])
	assert.NotContains(t, errObj, "data")
}

func TestInitializeResultSerialization(t *testing.T) {
	result := MCPInitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo:      MCPServerInfo{Name: "svc", Version: "1.0.0"},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"protocolVersion":"2024-11-05","capabilities":{"tools":{}},"serverInfo":{"name":"svc","version":"1.0.0"}}`,
		string(data))
}

func TestToolSerialization(t *testing.T) {
	tool := MCPTool{
		Name:        "add",
		Description: "Add two numbers.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"b": {Type: "integer", Description: "Second number"},
				"a": {Type: "integer", Description: "First number"},
			},
			PropertyOrder: []string{"a", "b"},
			Required:      []string{"a", "b"},
		},
	}

	data, err := json.Marshal(tool)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "add",
		"description": "Add two numbers.",
		"inputSchema": {
			"type": "object",
			"properties": {
				"a": {"type": "integer", "description": "First number"},
				"b": {"type": "integer", "description": "Second number"}
			},
			"required": ["a", "b"]
		}
	}`, string(data))
}

func TestTextResultSerialization(t *testing.T) {
	data, err := json.Marshal(NewTextResult(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":""}]}`, string(data))
}
