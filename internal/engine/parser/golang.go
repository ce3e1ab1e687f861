// # internal/engine/parser/golang.go
package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/core/errors"
)

// GoExtractor maps Go declarations onto the shared model. A method whose
// receiver type is declared in the same file hangs off that type's class
// record; a method on a type declared elsewhere is recorded as a plain
// function, since nothing in the file can anchor its scope.
type GoExtractor struct {
	engine *ExtractorEngine
}

func NewGoExtractor() *GoExtractor {
	e := &GoExtractor{}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_declaration":   e.handleImport,
		"function_declaration": e.handleFunction,
		"method_declaration":   e.handleMethod,
		"type_declaration":     e.handleType,
		"func_literal":         e.handleFuncLiteral,
	})
	return e
}

func (e *GoExtractor) Language() string { return "go" }

// Capabilities is empty: Go has no decorator syntax and no named constructors.
func (e *GoExtractor) Capabilities() Capabilities { return Capabilities{} }

func (e *GoExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   "go",
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	ctx.TypeScopes = collectGoTypeScopes(ctx, root)
	e.engine.Walk(ctx, root)
	return file, nil
}

// collectGoTypeScopes records the class id each top-level type spec will
// produce, keyed by type name. Methods may precede their receiver type in
// the file, so the binding must exist before the walk starts.
func collectGoTypeScopes(ctx *ExtractionContext, root *sitter.Node) map[string]string {
	types := make(map[string]string)
	for i := uint(0); i < root.ChildCount(); i++ {
		decl := root.Child(i)
		if decl.Kind() != "type_declaration" {
			continue
		}
		for j := uint(0); j < decl.ChildCount(); j++ {
			spec := decl.Child(j)
			if spec.Kind() != "type_spec" {
				continue
			}
			name := ctx.FieldText(spec, "name")
			if name == "" {
				continue
			}
			cls := Symbol{Kind: KindClass, Span: ctx.Span(spec)}
			types[name] = cls.ID()
		}
	}
	return types
}

// handleImport flattens grouped import blocks; each spec is an independent
// dependency with its own record.
func (e *GoExtractor) handleImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import_spec":
			e.emitImportSpec(ctx, child)
		case "import_spec_list":
			for j := uint(0); j < child.ChildCount(); j++ {
				if spec := child.Child(j); spec.Kind() == "import_spec" {
					e.emitImportSpec(ctx, spec)
				}
			}
		}
	}
	return true
}

func (e *GoExtractor) emitImportSpec(ctx *ExtractionContext, spec *sitter.Node) {
	path := trimQuoted(ctx.FieldText(spec, "path"))
	if path == "" {
		ctx.Anomaly(spec, "import spec missing path")
		return
	}

	imp := Import{
		Raw:      ctx.Text(spec),
		Kind:     ImportDirect,
		Module:   path,
		Resolved: path,
		Targets:  []ImportTarget{{Name: path}},
		Span:     ctx.Span(spec),
	}

	if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
		switch nameNode.Kind() {
		case "dot":
			// Dot imports merge the package's names into the file scope.
			imp.Kind = ImportWildcard
			imp.Targets = []ImportTarget{{Name: "*", Wildcard: true}}
		case "blank_identifier":
			imp.Kind = ImportAliased
			imp.Targets = []ImportTarget{{Name: path, Alias: "_"}}
		default:
			imp.Kind = ImportAliased
			imp.Targets = []ImportTarget{{Name: path, Alias: ctx.Text(nameNode)}}
		}
	}

	ctx.EmitImport(imp)
}

func (e *GoExtractor) handleFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "function declaration missing name")
		return true
	}

	sym := ctx.Emit(Symbol{
		Name: name,
		Kind: KindFunction,
		Doc:  leadingComment(ctx.Source, node),
		Span: ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *GoExtractor) handleMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "method declaration missing name")
		return true
	}

	recv := goReceiverTypeName(ctx, node.ChildByFieldName("receiver"))
	classID, bound := ctx.TypeScopes[recv]

	kind := KindFunction
	if bound {
		kind = KindMethod
		ctx.PushScope(classID)
	}
	sym := ctx.Emit(Symbol{
		Name: name,
		Kind: kind,
		Doc:  leadingComment(ctx.Source, node),
		Span: ctx.Span(node),
	})
	if bound {
		ctx.PopScope()
	}

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

// goReceiverTypeName digs the named type out of a method receiver, looking
// through pointers and type parameter lists.
func goReceiverTypeName(ctx *ExtractionContext, recv *sitter.Node) string {
	decl := firstChildOfKind(recv, "parameter_declaration")
	if decl == nil {
		return ""
	}
	return ctx.Text(firstDescendantOfKind(decl.ChildByFieldName("type"), "type_identifier"))
}

func (e *GoExtractor) handleType(ctx *ExtractionContext, node *sitter.Node) bool {
	specs := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "type_spec" {
			specs++
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec.Kind() != "type_spec" {
			continue
		}
		name := ctx.FieldText(spec, "name")
		if name == "" {
			ctx.Anomaly(spec, "type spec missing name")
			continue
		}

		doc := leadingComment(ctx.Source, spec)
		if doc == "" && specs == 1 {
			// Single-spec declarations carry their doc above the type keyword.
			doc = leadingComment(ctx.Source, node)
		}

		ctx.Emit(Symbol{
			Name: name,
			Kind: KindClass,
			Doc:  doc,
			Span: ctx.Span(spec),
		})
	}
	return true
}

func (e *GoExtractor) handleFuncLiteral(ctx *ExtractionContext, node *sitter.Node) bool {
	span := ctx.Span(node)
	sym := ctx.Emit(Symbol{
		Name: syntheticLambdaName(span),
		Kind: KindLambda,
		Span: span,
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}
