// # internal/engine/parser/java.go
package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/core/errors"
)

// JavaExtractor maps Java declarations onto the shared model. Annotations
// fill the decorator slot; constructors are their own declaration kind, so
// no configured names are needed.
type JavaExtractor struct {
	engine *ExtractorEngine
}

func NewJavaExtractor() *JavaExtractor {
	e := &JavaExtractor{}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_declaration":          e.handleImport,
		"class_declaration":           e.handleClassLike,
		"interface_declaration":       e.handleClassLike,
		"enum_declaration":            e.handleClassLike,
		"record_declaration":          e.handleClassLike,
		"annotation_type_declaration": e.handleClassLike,
		"method_declaration":          e.handleMethod,
		"constructor_declaration":     e.handleConstructor,
		"lambda_expression":           e.handleLambda,
	})
	return e
}

func (e *JavaExtractor) Language() string { return "java" }

func (e *JavaExtractor) Capabilities() Capabilities { return Capabilities{} }

func (e *JavaExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   "java",
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)
	return file, nil
}

func (e *JavaExtractor) handleImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var module string
	wildcard := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "identifier", "scoped_identifier":
			module = ctx.Text(child)
		case "asterisk":
			wildcard = true
		}
	}
	if module == "" {
		ctx.Anomaly(node, "import missing name")
		return true
	}

	kind := ImportDirect
	targets := []ImportTarget{{Name: module}}
	if wildcard {
		kind = ImportWildcard
		targets = []ImportTarget{{Name: "*", Wildcard: true}}
	}

	ctx.EmitImport(Import{
		Raw:      ctx.Text(node),
		Kind:     kind,
		Module:   module,
		Resolved: module,
		Targets:  targets,
		Span:     ctx.Span(node),
	})
	return true
}

func (e *JavaExtractor) handleClassLike(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "type declaration missing name")
		return true
	}

	annotations := javaAnnotations(ctx, node)
	var mods Modifier
	if len(annotations) > 0 {
		mods |= ModDecorated
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       KindClass,
		Modifiers:  mods,
		Decorators: annotations,
		Doc:        leadingComment(ctx.Source, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *JavaExtractor) handleMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "method declaration missing name")
		return true
	}

	annotations := javaAnnotations(ctx, node)
	var mods Modifier
	if len(annotations) > 0 {
		mods |= ModDecorated
	}

	// Methods of anonymous classes have no class record to bind to.
	kind := KindFunction
	if ctx.InClassBody() {
		kind = KindMethod
		if hasChildOfKind(firstChildOfKind(node, "modifiers"), "static") {
			kind = KindStaticMethod
			mods |= ModStatic
		}
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       kind,
		Modifiers:  mods,
		Decorators: annotations,
		Doc:        leadingComment(ctx.Source, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *JavaExtractor) handleConstructor(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "constructor missing name")
		return true
	}

	annotations := javaAnnotations(ctx, node)
	var mods Modifier
	if len(annotations) > 0 {
		mods |= ModDecorated
	}

	kind := KindConstructor
	if !ctx.InClassBody() {
		kind = KindFunction
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       kind,
		Modifiers:  mods,
		Decorators: annotations,
		Doc:        leadingComment(ctx.Source, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *JavaExtractor) handleLambda(ctx *ExtractionContext, node *sitter.Node) bool {
	span := ctx.Span(node)
	sym := ctx.Emit(Symbol{
		Name: syntheticLambdaName(span),
		Kind: KindLambda,
		Span: span,
	})

	// The body may be a bare expression holding the next lambda.
	ctx.PushScope(sym.ID())
	e.engine.Walk(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

// javaAnnotations reads the annotations off a declaration's modifier list.
func javaAnnotations(ctx *ExtractionContext, node *sitter.Node) []string {
	modifiers := firstChildOfKind(node, "modifiers")
	if modifiers == nil {
		return nil
	}
	var out []string
	for i := uint(0); i < modifiers.ChildCount(); i++ {
		child := modifiers.Child(i)
		if child.Kind() != "marker_annotation" && child.Kind() != "annotation" {
			continue
		}
		ann := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(child)), "@"))
		if ann != "" {
			out = append(out, ann)
		}
	}
	return out
}
