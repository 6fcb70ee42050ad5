package annotations

import (
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
)

// ParseGoSource parses the doc comments of the top-level functions in a Go
// source file, in declaration order. Methods and undocumented functions
// are skipped. Callers select tools with Doc.Tool.
func (p *Parser) ParseGoSource(filename string, src []byte) ([]*Doc, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	var docs []*Doc
	for _, decl := range file.Decls {
		fn, ok := decl.(*goast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Doc == nil {
			continue
		}

		doc, err := p.Parse(fn.Doc.Text())
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", fset.Position(fn.Pos()), fn.Name.Name, err)
		}
		doc.Func = fn.Name.Name
		docs = append(docs, doc)
	}

	return docs, nil
}

// Tools returns the docs marked with @mcp.tool
func Tools(docs []*Doc) []*Doc {
	var out []*Doc
	for _, d := range docs {
		if d.Tool {
			out = append(out, d)
		}
	}
	return out
}
