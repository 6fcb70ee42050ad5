// Package catalog holds the tools served by mcp-server. Tools are ordinary
// functions in builtin.go whose doc comments carry the @mcp.tool marker;
// their metadata is read from that file's source at startup.
package catalog

import (
	_ "embed"
	"fmt"

	"mcp-tool-service/pkg/annotations"
	"mcp-tool-service/pkg/tools"
)

//go:embed builtin.go
var builtinSource []byte

// implementations binds documented function names to their code
var implementations = map[string]tools.Func{
	"add":            add,
	"renderMarkdown": renderMarkdown,
	"wordCount":      wordCount,
}

// Descriptors returns the annotated tools of builtin.go in source order
func Descriptors() ([]tools.Descriptor, error) {
	return describe("builtin.go", builtinSource, implementations)
}

// NewRegistry builds the registry of the built-in tools
func NewRegistry() (*tools.Registry, error) {
	descriptors, err := Descriptors()
	if err != nil {
		return nil, err
	}
	return tools.NewRegistry(descriptors...)
}

func describe(filename string, src []byte, funcs map[string]tools.Func) ([]tools.Descriptor, error) {
	docs, err := annotations.NewParser().ParseGoSource(filename, src)
	if err != nil {
		return nil, err
	}

	var descriptors []tools.Descriptor
	for _, doc := range annotations.Tools(docs) {
		fn, ok := funcs[doc.Func]
		if !ok {
			return nil, fmt.Errorf("tool %s: function %s is not bound", doc.Name(), doc.Func)
		}
		descriptors = append(descriptors, doc.Descriptor(fn))
	}

	return descriptors, nil
}
