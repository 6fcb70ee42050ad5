package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"mcp-tool-service/pkg/coerce"
)

// Func is the bound implementation of a tool. args holds one coerced value
// per declared parameter, in declaration order; a parameter the caller did
// not supply is nil. The result is rendered as text for the response.
type Func func(ctx context.Context, args []any) (any, error)

// Parameter describes one positional tool parameter
type Parameter struct {
	Name string `json:"name"`
	// Type is a free-form type tag such as "Integer" or "Array<String>";
	// see package coerce for how it is interpreted.
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Descriptor is a tool exposed via MCP: its metadata plus the function it is bound to
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Invoke      Func        `json:"-"`
}

// InputSchema returns the JSON Schema advertised for the tool's arguments.
// Every parameter is required and properties keep declaration order.
func (d Descriptor) InputSchema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:          "object",
		Properties:    make(map[string]*jsonschema.Schema, len(d.Parameters)),
		PropertyOrder: make([]string, 0, len(d.Parameters)),
		Required:      make([]string, 0, len(d.Parameters)),
	}

	for _, p := range d.Parameters {
		schema.Properties[p.Name] = &jsonschema.Schema{
			Type:        coerce.SchemaType(p.Type),
			Description: p.Description,
		}
		schema.PropertyOrder = append(schema.PropertyOrder, p.Name)
		schema.Required = append(schema.Required, p.Name)
	}

	return schema
}

// ParameterNames returns the parameter names in declaration order
func (d Descriptor) ParameterNames() []string {
	names := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i] = p.Name
	}
	return names
}
