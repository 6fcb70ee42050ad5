package tools

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-tool-service/internal/models"
	"mcp-tool-service/pkg/errors"
)

func TestToolExecutor_Execute(t *testing.T) {
	executor := NewToolExecutor()
	ctx := context.Background()

	t.Run("coerces string arguments", func(t *testing.T) {
		outcome := executor.Execute(ctx, addTool(), map[string]interface{}{"a": "5", "b": "20"})
		require.True(t, outcome.OK(), "unexpected error: %v", outcome.Err)
		assert.Equal(t, "25", outcome.Text)
	})

	t.Run("accepts native numbers", func(t *testing.T) {
		outcome := executor.Execute(ctx, addTool(), map[string]interface{}{"a": float64(2), "b": 3})
		require.True(t, outcome.OK())
		assert.Equal(t, "5", outcome.Text)
	})

	t.Run("ignores unknown arguments", func(t *testing.T) {
		outcome := executor.Execute(ctx, addTool(), map[string]interface{}{"a": 1, "b": 1, "c": "extra"})
		require.True(t, outcome.OK())
		assert.Equal(t, "2", outcome.Text)
	})

	t.Run("nil result renders empty text", func(t *testing.T) {
		tool := Descriptor{Name: "nothing", Invoke: noop}
		outcome := executor.Execute(ctx, tool, nil)
		require.True(t, outcome.OK())
		assert.Equal(t, "", outcome.Text)
	})

	t.Run("missing arguments are passed as nil", func(t *testing.T) {
		var received []any
		tool := Descriptor{
			Name:       "echo",
			Parameters: []Parameter{{Name: "x", Type: "Integer"}, {Name: "y", Type: "String"}},
			Invoke: func(_ context.Context, args []any) (any, error) {
				received = args
				return "ok", nil
			},
		}

		outcome := executor.Execute(ctx, tool, map[string]interface{}{})
		require.True(t, outcome.OK())
		assert.Equal(t, []any{nil, nil}, received)
	})

	t.Run("duration comes from the clock", func(t *testing.T) {
		clock := time.Unix(0, 0)
		fixed := &ToolExecutor{now: func() time.Time {
			clock = clock.Add(15 * time.Millisecond)
			return clock
		}}

		outcome := fixed.Execute(ctx, addTool(), map[string]interface{}{"a": 1, "b": 2})
		assert.Equal(t, 15*time.Millisecond, outcome.Duration)
	})
}

func TestToolExecutor_CoercionFailure(t *testing.T) {
	outcome := NewToolExecutor().Execute(context.Background(), addTool(), map[string]interface{}{"a": "abc", "b": "1"})

	require.False(t, outcome.OK())
	assert.Equal(t, `Execution error: argument a: cannot convert "abc" to integer`, outcome.Err.Message)
	assert.Equal(t, errors.ErrCodeCoercionFailed, outcome.Err.Code)
	assert.Equal(t, models.CodeInternalError, outcome.Err.RPCCode())
	assert.NotEmpty(t, outcome.Err.Backtrace)
	assert.LessOrEqual(t, len(outcome.Err.Backtrace), errors.MaxBacktraceLines)
}

func TestToolExecutor_ToolError(t *testing.T) {
	base := stderrors.New("disk full")
	tool := Descriptor{
		Name: "fails",
		Invoke: func(context.Context, []any) (any, error) {
			return nil, fmt.Errorf("write report: %w", base)
		},
	}

	outcome := NewToolExecutor().Execute(context.Background(), tool, nil)

	require.False(t, outcome.OK())
	assert.Equal(t, "Execution error: write report: disk full", outcome.Err.Message)
	assert.Equal(t, errors.ErrCodeExecutionFailed, outcome.Err.Code)
	assert.ErrorIs(t, outcome.Err, base)
	assert.Len(t, outcome.Err.Backtrace, 2)
	assert.Equal(t, "fails", outcome.Err.Context["tool_name"])
}

func TestToolExecutor_PanicRecovery(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		message string
	}{
		{"string panic", "boom", "Execution error: boom"},
		{"error panic", stderrors.New("bad state"), "Execution error: bad state"},
		{"runtime panic", nil, "Execution error: runtime error: index out of range [3] with length 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := Descriptor{
				Name: "explodes",
				Invoke: func(context.Context, []any) (any, error) {
					if tt.value == nil {
						var empty []int
						_ = empty[3]
					}
					panic(tt.value)
				},
			}

			var outcome Outcome
			require.NotPanics(t, func() {
				outcome = NewToolExecutor().Execute(context.Background(), tool, nil)
			})

			require.False(t, outcome.OK())
			assert.Equal(t, tt.message, outcome.Err.Message)
			assert.Equal(t, errors.ErrCodeToolPanic, outcome.Err.Code)
			assert.Equal(t, true, outcome.Err.Context["panic"])
			assert.NotEmpty(t, outcome.Err.Backtrace)
			assert.LessOrEqual(t, len(outcome.Err.Backtrace), errors.MaxBacktraceLines)

			data := outcome.Err.ToMCPError().Data.(map[string]interface{})
			assert.Equal(t, outcome.Err.Backtrace, data["backtrace"])
		})
	}
}

func TestCoerceArguments(t *testing.T) {
	tool := Descriptor{
		Name: "mixed",
		Parameters: []Parameter{
			{Name: "n", Type: "Integer"},
			{Name: "f", Type: "Float"},
			{Name: "b", Type: "Boolean"},
			{Name: "l", Type: "Array"},
			{Name: "s", Type: "String"},
		},
	}

	args, err := CoerceArguments(tool, map[string]interface{}{
		"n": "7.9",
		"f": "2.5",
		"b": "TRUE",
		"l": "solo",
		"s": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), 2.5, true, []any{"solo"}, "42"}, args)

	_, err = CoerceArguments(tool, map[string]interface{}{"f": "three"})
	assert.EqualError(t, err, `argument f: cannot convert "three" to float`)
}

func TestPanicBacktraceFormat(t *testing.T) {
	assert.Equal(t, "tools/executor.go", trimPath("/home/dev/mcp-tool-service/pkg/tools/executor.go"))
	assert.Equal(t, "main.go", trimPath("main.go"))
}
