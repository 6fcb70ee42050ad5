package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-tool-service/pkg/tools"
)

func TestDescriptors(t *testing.T) {
	descriptors, err := Descriptors()
	require.NoError(t, err)

	require.Len(t, descriptors, 3)
	assert.Equal(t, "add", descriptors[0].Name)
	assert.Equal(t, "render_markdown", descriptors[1].Name)
	assert.Equal(t, "word_count", descriptors[2].Name)

	add := descriptors[0]
	assert.Equal(t, "Add two numbers", add.Description)
	assert.Equal(t, []tools.Parameter{
		{Name: "a", Type: "Integer", Description: "First number"},
		{Name: "b", Type: "Integer", Description: "Second number"},
	}, add.Parameters)

	assert.Equal(t, "Render Markdown source as HTML.", descriptors[1].Description)
	assert.Equal(t, "Count the words in a text.", descriptors[2].Description)
	assert.Equal(t, "Count each distinct word once, ignoring case", descriptors[2].Parameters[1].Description)
}

func TestIntegerArgOnlyHelperIsNotATool(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, ok := registry.Lookup("integer_arg")
	assert.False(t, ok)
	assert.Equal(t, []string{"add", "render_markdown", "word_count"}, registry.Names())
}

func TestAddInputSchema(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	tool, ok := registry.Lookup("add")
	require.True(t, ok)

	data, err := json.Marshal(tool.InputSchema())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"a": {"type": "integer", "description": "First number"},
			"b": {"type": "integer", "description": "Second number"}
		},
		"required": ["a", "b"]
	}`, string(data))
}

func TestBuiltinTools(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	executor := tools.NewToolExecutor()
	ctx := context.Background()

	tests := []struct {
		name      string
		tool      string
		arguments map[string]interface{}
		expected  string
	}{
		{"add coerces text", "add", map[string]interface{}{"a": "5", "b": "20"}, "25"},
		{"add negative", "add", map[string]interface{}{"a": -3, "b": 1}, "-2"},
		{"render heading", "render_markdown", map[string]interface{}{"markdown": "# Hi"}, "<h1>Hi</h1>\n"},
		{"render emphasis", "render_markdown", map[string]interface{}{"markdown": "*a* and **b**"}, "<p><em>a</em> and <strong>b</strong></p>\n"},
		{"render empty", "render_markdown", map[string]interface{}{}, ""},
		{"count words", "word_count", map[string]interface{}{"text": "the cat and the hat", "unique": false}, "5"},
		{"count unique words", "word_count", map[string]interface{}{"text": "The cat and the hat", "unique": "true"}, "4"},
		{"apostrophes", "word_count", map[string]interface{}{"text": "don't stop, won't stop"}, "4"},
		{"punctuation only", "word_count", map[string]interface{}{"text": "... --- !!!"}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, ok := registry.Lookup(tt.tool)
			require.True(t, ok)

			outcome := executor.Execute(ctx, tool, tt.arguments)
			require.True(t, outcome.OK(), "unexpected error: %v", outcome.Err)
			assert.Equal(t, tt.expected, outcome.Text)
		})
	}
}

func TestAddMissingArgument(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	tool, _ := registry.Lookup("add")

	outcome := tools.NewToolExecutor().Execute(context.Background(), tool, map[string]interface{}{"a": 1})
	require.False(t, outcome.OK())
	assert.Equal(t, "Execution error: missing argument b", outcome.Err.Message)
}

func TestAddOverflow(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	tool, _ := registry.Lookup("add")

	tests := []struct {
		name string
		a, b interface{}
		want string
	}{
		{"above max", json.Number("9223372036854775807"), json.Number("1"), "Execution error: integer overflow adding 9223372036854775807 and 1"},
		{"below min", json.Number("-9223372036854775808"), json.Number("-1"), "Execution error: integer overflow adding -9223372036854775808 and -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := tools.NewToolExecutor().Execute(context.Background(), tool, map[string]interface{}{"a": tt.a, "b": tt.b})
			require.False(t, outcome.OK())
			assert.Equal(t, tt.want, outcome.Err.Message)
		})
	}

	outcome := tools.NewToolExecutor().Execute(context.Background(), tool, map[string]interface{}{"a": json.Number("9223372036854775806"), "b": json.Number("1")})
	require.True(t, outcome.OK())
	assert.Equal(t, "9223372036854775807", outcome.Text)
}

func TestDescribeUnboundFunction(t *testing.T) {
	src := []byte("package x\n\n// Orphan tool\n//\n// @mcp.tool\nfunc orphan() {}\n")

	_, err := describe("x.go", src, map[string]tools.Func{})
	assert.EqualError(t, err, "tool orphan: function orphan is not bound")
}

func TestImplementationsAreAllDocumented(t *testing.T) {
	descriptors, err := Descriptors()
	require.NoError(t, err)
	assert.Len(t, descriptors, len(implementations))
}
