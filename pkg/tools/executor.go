package tools

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"mcp-tool-service/pkg/coerce"
	"mcp-tool-service/pkg/errors"
)

// Outcome is the result of one tool invocation: either Text or Err is set.
type Outcome struct {
	Text     string
	Err      *errors.StructuredError
	Duration time.Duration
}

// OK reports whether the invocation succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ToolExecutor coerces arguments and invokes tools, turning every failure,
// including panics, into an execution error.
type ToolExecutor struct {
	// now is replaceable in tests
	now func() time.Time
}

// NewToolExecutor creates a new ToolExecutor
func NewToolExecutor() *ToolExecutor {
	return &ToolExecutor{now: time.Now}
}

// Execute coerces arguments in declaration order and calls the tool.
// It never panics.
func (te *ToolExecutor) Execute(ctx context.Context, tool Descriptor, arguments map[string]interface{}) Outcome {
	start := te.now()

	text, err := te.invoke(ctx, tool, arguments)
	outcome := Outcome{Text: text, Err: err}
	outcome.Duration = te.now().Sub(start)
	return outcome
}

// CoerceArguments builds the positional argument list for tool.
// A nil arguments map behaves like an empty one.
func CoerceArguments(tool Descriptor, arguments map[string]interface{}) ([]any, error) {
	args := make([]any, len(tool.Parameters))
	for i, p := range tool.Parameters {
		value, err := coerce.Coerce(arguments[p.Name], p.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", p.Name, err)
		}
		args[i] = value
	}
	return args, nil
}

func (te *ToolExecutor) invoke(ctx context.Context, tool Descriptor, arguments map[string]interface{}) (text string, structuredErr *errors.StructuredError) {
	defer func() {
		if r := recover(); r != nil {
			structuredErr = errors.NewExecutionError(tool.Name, panicError(r)).
				WithContext("panic", true).
				WithBacktrace(panicBacktrace())
			structuredErr.Code = errors.ErrCodeToolPanic
		}
	}()

	args, err := CoerceArguments(tool, arguments)
	if err != nil {
		se := errors.NewExecutionError(tool.Name, err).WithBacktrace(errorChain(err))
		se.Code = errors.ErrCodeCoercionFailed
		return "", se
	}

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		return "", errors.NewExecutionError(tool.Name, err).WithBacktrace(errorChain(err))
	}

	return coerce.Text(result), nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// errorChain lists the messages of err and the errors it wraps
func errorChain(err error) []string {
	var chain []string
	for err != nil && len(chain) < errors.MaxBacktraceLines {
		chain = append(chain, fmt.Sprintf("%T: %s", err, err.Error()))
		err = stderrors.Unwrap(err)
	}
	return chain
}

// panicBacktrace returns the innermost frames of the panicking goroutine,
// skipping the runtime's own panic machinery.
func panicBacktrace() []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var lines []string
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			lines = append(lines, fmt.Sprintf("%s (%s:%d)", frame.Function, trimPath(frame.File), frame.Line))
		}
		if !more || len(lines) == errors.MaxBacktraceLines {
			break
		}
	}
	return lines
}

func trimPath(file string) string {
	if i := strings.LastIndex(file, "/"); i >= 0 {
		if j := strings.LastIndex(file[:i], "/"); j >= 0 {
			return file[j+1:]
		}
	}
	return file
}
