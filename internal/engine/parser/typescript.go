// # internal/engine/parser/typescript.go
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// TypeScriptExtractor layers the type-level declarations over the
// JavaScript extractor. It serves both the typescript and tsx dialects.
type TypeScriptExtractor struct {
	*JSExtractor
}

func NewTypeScriptExtractor(language string) *TypeScriptExtractor {
	e := &TypeScriptExtractor{}
	e.JSExtractor = newJSExtractor(language, map[string]NodeHandler{
		"abstract_class_declaration": func(ctx *ExtractionContext, node *sitter.Node) bool {
			return e.handleClass(ctx, node)
		},
		"interface_declaration": e.handleInterface,
		"enum_declaration":      e.handleEnum,
	})
	return e
}

// handleInterface records the declaration itself. Member signatures carry
// no bodies, so the body is not walked.
func (e *TypeScriptExtractor) handleInterface(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "interface missing name")
		return true
	}

	ctx.Emit(Symbol{
		Name: name,
		Kind: KindClass,
		Doc:  jsDoc(ctx, node),
		Span: ctx.Span(node),
	})
	return true
}

func (e *TypeScriptExtractor) handleEnum(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "enum missing name")
		return true
	}

	ctx.Emit(Symbol{
		Name: name,
		Kind: KindClass,
		Doc:  jsDoc(ctx, node),
		Span: ctx.Span(node),
	})
	return true
}
