package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, []any) (any, error) { return nil, nil }

func addTool() Descriptor {
	return Descriptor{
		Name:        "add",
		Description: "Add two numbers.",
		Parameters: []Parameter{
			{Name: "a", Type: "Integer", Description: "First number"},
			{Name: "b", Type: "Integer", Description: "Second number"},
		},
		Invoke: func(_ context.Context, args []any) (any, error) {
			return args[0].(int64) + args[1].(int64), nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("preserves registration order", func(t *testing.T) {
		registry, err := NewRegistry(
			Descriptor{Name: "zeta", Invoke: noop},
			Descriptor{Name: "alpha", Invoke: noop},
			Descriptor{Name: "mid", Invoke: noop},
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"zeta", "alpha", "mid"}, registry.Names())
		assert.Equal(t, 3, registry.Len())

		list := registry.List()
		require.Len(t, list, 3)
		assert.Equal(t, "alpha", list[1].Name)
	})

	t.Run("empty registry", func(t *testing.T) {
		registry, err := NewRegistry()
		require.NoError(t, err)
		assert.Zero(t, registry.Len())
		assert.Empty(t, registry.List())
	})

	invalid := []struct {
		name    string
		tools   []Descriptor
		message string
	}{
		{"empty name", []Descriptor{{Invoke: noop}}, "tool name cannot be empty"},
		{"missing implementation", []Descriptor{{Name: "x"}}, "tool x has no implementation"},
		{"duplicate tool", []Descriptor{{Name: "x", Invoke: noop}, {Name: "x", Invoke: noop}}, "tool x already registered"},
		{"duplicate parameter", []Descriptor{{
			Name:       "x",
			Invoke:     noop,
			Parameters: []Parameter{{Name: "a"}, {Name: "a"}},
		}}, "tool x: duplicate parameter a"},
		{"unnamed parameter", []Descriptor{{
			Name:       "x",
			Invoke:     noop,
			Parameters: []Parameter{{Type: "String"}},
		}}, "tool x: parameter 0 has no name"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.tools...)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestMustNewRegistryPanics(t *testing.T) {
	assert.Panics(t, func() { MustNewRegistry(Descriptor{Name: "x"}) })
	assert.NotPanics(t, func() { MustNewRegistry(addTool()) })
}

func TestRegistryLookup(t *testing.T) {
	registry := MustNewRegistry(addTool())

	tool, ok := registry.Lookup("add")
	require.True(t, ok)
	assert.Equal(t, "add", tool.Name)
	assert.Equal(t, []string{"a", "b"}, tool.ParameterNames())

	_, ok = registry.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestRegistryIsolatedFromCaller(t *testing.T) {
	params := []Parameter{{Name: "a", Type: "Integer"}}
	registry := MustNewRegistry(Descriptor{Name: "x", Invoke: noop, Parameters: params})

	params[0].Name = "mutated"
	tool, _ := registry.Lookup("x")
	assert.Equal(t, "a", tool.Parameters[0].Name)

	list := registry.List()
	list[0].Name = "changed"
	assert.Equal(t, []string{"x"}, registry.Names())
}

func TestInputSchema(t *testing.T) {
	tool := Descriptor{
		Name: "mixed",
		Parameters: []Parameter{
			{Name: "count", Type: "Integer", Description: "How many"},
			{Name: "ratio", Type: "Float"},
			{Name: "flag", Type: "Boolean"},
			{Name: "items", Type: "Array"},
			{Name: "opts", Type: "Hash"},
			{Name: "label", Type: "Whatever", Description: "Free text"},
		},
	}

	data, err := json.Marshal(tool.InputSchema())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"count": {"type": "integer", "description": "How many"},
			"ratio": {"type": "number"},
			"flag":  {"type": "boolean"},
			"items": {"type": "array"},
			"opts":  {"type": "object"},
			"label": {"type": "string", "description": "Free text"}
		},
		"required": ["count", "ratio", "flag", "items", "opts", "label"]
	}`, string(data))

	// properties keep declaration order on the wire
	assert.Regexp(t, `"count".*"ratio".*"flag".*"items".*"opts".*"label"`, string(data))
}

func TestInputSchemaWithoutParameters(t *testing.T) {
	data, err := json.Marshal(Descriptor{Name: "ping"}.InputSchema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(data))
}
