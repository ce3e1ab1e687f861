// # internal/engine/parser/markup.go
package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/core/errors"
)

// CSSExtractor and HTMLExtractor cover the import-only markup languages.
// Neither produces symbols; stylesheets and pages still contribute
// dependency edges to the project graph.

type CSSExtractor struct {
	engine *ExtractorEngine
}

func NewCSSExtractor() *CSSExtractor {
	e := &CSSExtractor{}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.handleImport,
	})
	return e
}

func (e *CSSExtractor) Language() string { return "css" }

func (e *CSSExtractor) Capabilities() Capabilities { return Capabilities{} }

func (e *CSSExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   "css",
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)
	return file, nil
}

func (e *CSSExtractor) handleImport(ctx *ExtractionContext, node *sitter.Node) bool {
	module := trimQuoted(ctx.Text(firstChildOfKind(node, "string_value")))
	if module == "" {
		// @import url("x.css") and the unquoted url(x.css) form.
		if call := firstChildOfKind(node, "call_expression"); call != nil {
			module = trimQuoted(ctx.Text(firstDescendantOfKind(call, "string_value")))
			if module == "" {
				module = strings.TrimSpace(ctx.Text(firstDescendantOfKind(call, "plain_value")))
			}
		}
	}
	if module == "" {
		ctx.Anomaly(node, "@import without target")
		return true
	}

	depth, relative := jsRelativeDepth(module)
	kind := ImportDirect
	if relative {
		kind = ImportRelative
	}

	ctx.EmitImport(Import{
		Raw:           ctx.Text(node),
		Kind:          kind,
		Module:        module,
		Resolved:      module,
		Targets:       []ImportTarget{{Name: module}},
		RelativeDepth: depth,
		Span:          ctx.Span(node),
	})
	return true
}

type HTMLExtractor struct {
	engine *ExtractorEngine
}

func NewHTMLExtractor() *HTMLExtractor {
	e := &HTMLExtractor{}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"start_tag":        e.handleTag,
		"self_closing_tag": e.handleTag,
	})
	return e
}

func (e *HTMLExtractor) Language() string { return "html" }

func (e *HTMLExtractor) Capabilities() Capabilities { return Capabilities{} }

func (e *HTMLExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   "html",
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)
	return file, nil
}

// handleTag records script sources and link targets as dependencies.
func (e *HTMLExtractor) handleTag(ctx *ExtractionContext, node *sitter.Node) bool {
	tag := strings.ToLower(ctx.ChildText(node, "tag_name"))
	if tag != "script" && tag != "link" {
		return false
	}

	want := "src"
	if tag == "link" {
		want = "href"
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		attr := node.Child(i)
		if attr.Kind() != "attribute" {
			continue
		}
		name := strings.ToLower(ctx.ChildText(attr, "attribute_name"))
		if name != want {
			continue
		}
		value := trimQuoted(ctx.Text(firstDescendantOfKind(attr, "attribute_value")))
		if value == "" {
			continue
		}

		depth, relative := jsRelativeDepth(value)
		kind := ImportDirect
		if relative {
			kind = ImportRelative
		}
		ctx.EmitImport(Import{
			Raw:           ctx.Text(attr),
			Kind:          kind,
			Module:        value,
			Resolved:      value,
			Targets:       []ImportTarget{{Name: value}},
			RelativeDepth: depth,
			Span:          ctx.Span(attr),
		})
	}
	return false
}
