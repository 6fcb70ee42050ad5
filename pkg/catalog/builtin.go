package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
)

// Add two numbers
//
// @param a [Integer] First number
// @param b [Integer] Second number
//
// @return [Integer] Sum of a and b
//
// @mcp.tool
func add(_ context.Context, args []any) (any, error) {
	a, err := integerArg(args, 0, "a")
	if err != nil {
		return nil, err
	}
	b, err := integerArg(args, 1, "b")
	if err != nil {
		return nil, err
	}
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return nil, fmt.Errorf("integer overflow adding %d and %d", a, b)
	}
	return sum, nil
}

// Render Markdown source as HTML. CommonMark rules apply.
//
// @param markdown [String] Markdown source to render
// @return [String] The rendered HTML
//
// @mcp.tool
func renderMarkdown(_ context.Context, args []any) (any, error) {
	source, _ := args[0].(string)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Count the words in a text. Words are runs of letters and digits; an
// apostrophe does not split a word.
//
// @param text [String] Text to analyse
// @param unique [Boolean] Count each distinct word once, ignoring case
// @return [Integer] Number of words
//
// @mcp.tool
func wordCount(_ context.Context, args []any) (any, error) {
	text, _ := args[0].(string)
	unique, _ := args[1].(bool)

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	if !unique {
		return len(words), nil
	}

	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return len(seen), nil
}

// integerArg returns the coerced integer argument at i. A missing argument
// is an error rather than zero.
func integerArg(args []any, i int, name string) (int64, error) {
	v, ok := args[i].(int64)
	if !ok {
		return 0, fmt.Errorf("missing argument %s", name)
	}
	return v, nil
}
