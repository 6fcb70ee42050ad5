// Package annotations extracts tool metadata from documentation comments
// written with YARD-style tags:
//
//	Add two numbers
//
//	@param a [Integer] First number
//	@param b [Integer] Second number
//	@return [Integer] Sum of a and b
//
//	@mcp.tool
//
// Only documentation carrying the @mcp.tool marker describes a tool.
package annotations

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"mcp-tool-service/pkg/tools"
)

// ToolTag marks a documentation comment as describing a tool. Its optional
// text overrides the tool name.
const ToolTag = "mcp.tool"

// AnyType is the declared type of a parameter whose tag lists no types
const AnyType = "Any"

// Param is a @param or @return tag
type Param struct {
	Name  string
	Types []string
	Text  string
}

// Type returns the declared types joined by ", ", or AnyType if none were given
func (p Param) Type() string {
	if len(p.Types) == 0 {
		return AnyType
	}
	return strings.Join(p.Types, ", ")
}

// Doc is a parsed documentation comment
type Doc struct {
	// Func is the documented function's name; set by ParseGoSource
	Func string
	// Summary is the first sentence of the first paragraph
	Summary string
	// Text is the prose with all tag lines removed
	Text    string
	Params  []Param
	Returns *Param
	// Tool reports whether the @mcp.tool marker is present
	Tool     bool
	ToolName string
}

// Description returns the summary, falling back to the full prose
func (d *Doc) Description() string {
	if d.Summary != "" {
		return d.Summary
	}
	return d.Text
}

// Name returns the tool name: the @mcp.tool text if given, otherwise the
// documented function's name in snake_case.
func (d *Doc) Name() string {
	if d.ToolName != "" {
		return d.ToolName
	}
	return SnakeCase(d.Func)
}

// Descriptor binds the documented metadata to fn
func (d *Doc) Descriptor(fn tools.Func) tools.Descriptor {
	params := make([]tools.Parameter, len(d.Params))
	for i, p := range d.Params {
		params[i] = tools.Parameter{
			Name:        p.Name,
			Type:        p.Type(),
			Description: p.Text,
		}
	}

	return tools.Descriptor{
		Name:        d.Name(),
		Description: d.Description(),
		Parameters:  params,
		Invoke:      fn,
	}
}

// Parser parses documentation comments
type Parser struct {
	markdown goldmark.Markdown
}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{
		markdown: goldmark.New(),
	}
}

// Parse parses one documentation comment with its comment markers already
// removed. Unknown tags are ignored.
func (p *Parser) Parse(comment string) (*Doc, error) {
	doc := &Doc{}

	var prose []string
	var current *Param

	for n, line := range strings.Split(comment, "\n") {
		trimmed := strings.TrimSpace(line)

		// indented lines continue the preceding tag
		if current != nil && trimmed != "" && isIndented(line) && !strings.HasPrefix(trimmed, "@") {
			current.Text = strings.TrimSpace(current.Text + " " + trimmed)
			continue
		}
		current = nil

		if !strings.HasPrefix(trimmed, "@") {
			prose = append(prose, line)
			continue
		}

		tag, rest, _ := strings.Cut(trimmed[1:], " ")
		rest = strings.TrimSpace(rest)

		switch tag {
		case "param":
			param, err := parseTypedTag(rest, true)
			if err != nil {
				return nil, fmt.Errorf("line %d: @param: %w", n+1, err)
			}
			doc.Params = append(doc.Params, param)
			current = &doc.Params[len(doc.Params)-1]
		case "return":
			ret, err := parseTypedTag(rest, false)
			if err != nil {
				return nil, fmt.Errorf("line %d: @return: %w", n+1, err)
			}
			doc.Returns = &ret
			current = doc.Returns
		case ToolTag:
			doc.Tool = true
			doc.ToolName = rest
		}
	}

	doc.Text = strings.TrimSpace(strings.Join(prose, "\n"))
	doc.Summary = p.summary([]byte(doc.Text))

	return doc, nil
}

// summary returns the first sentence of the first paragraph of content
func (p *Parser) summary(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	root := p.markdown.Parser().Parse(text.NewReader(content))

	var paragraph string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindParagraph {
			lines := n.Lines()
			parts := make([]string, 0, lines.Len())
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				parts = append(parts, strings.TrimSpace(string(segment.Value(content))))
			}
			paragraph = strings.Join(parts, " ")
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return firstSentence(paragraph)
}

// firstSentence cuts s after the first period that ends a sentence
func firstSentence(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && (i+1 == len(s) || s[i+1] == ' ') {
			return s[:i+1]
		}
	}
	return s
}

// parseTypedTag parses "name [Type, ...] text", also accepting the types
// before the name. Unnamed tags (@return) take "[Type, ...] text".
func parseTypedTag(rest string, named bool) (Param, error) {
	var param Param

	if named && !strings.HasPrefix(rest, "[") {
		name, after, _ := strings.Cut(rest, " ")
		param.Name = name
		rest = strings.TrimSpace(after)
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return Param{}, fmt.Errorf("unterminated type list %q", rest)
		}
		param.Types = splitTypes(rest[1:end])
		rest = strings.TrimSpace(rest[end+1:])
	}

	if named && param.Name == "" {
		name, after, _ := strings.Cut(rest, " ")
		param.Name = name
		rest = strings.TrimSpace(after)
	}

	if named && param.Name == "" {
		return Param{}, fmt.Errorf("missing parameter name")
	}

	param.Text = rest
	return param, nil
}

// splitTypes splits a type list on commas outside of <>, () and {}
func splitTypes(list string) []string {
	var types []string
	depth, start := 0, 0

	add := func(t string) {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	for i, r := range list {
		switch r {
		case '<', '(', '{':
			depth++
		case '>', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				add(list[start:i])
				start = i + 1
			}
		}
	}
	add(list[start:])

	return types
}

// SnakeCase converts a Go identifier such as renderMarkdown to render_markdown
func SnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !isUpper(name[i-1]) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
