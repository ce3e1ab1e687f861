// # internal/engine/parser/javascript.go
package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/core/errors"
)

// JSExtractor maps JavaScript declarations onto the shared model. It covers
// ES module syntax, CommonJS require bindings, and the dynamic import()
// form. TypeScript extends it with the type-level declarations.
type JSExtractor struct {
	language string
	ctors    map[string]bool
	engine   *ExtractorEngine
}

// JSCapabilities classifies members by syntax only: the static keyword and
// the fixed constructor name. There are no marker decorators.
func JSCapabilities() Capabilities {
	return Capabilities{ConstructorNames: []string{"constructor"}}
}

func NewJavaScriptExtractor() *JSExtractor {
	return newJSExtractor("javascript", nil)
}

func newJSExtractor(language string, extra map[string]NodeHandler) *JSExtractor {
	e := &JSExtractor{
		language: language,
		ctors:    constructorSet(JSCapabilities().ConstructorNames),
	}
	handlers := map[string]NodeHandler{
		"import_statement":               e.handleImportStatement,
		"export_statement":               e.handleExport,
		"function_declaration":           e.handleFunction,
		"generator_function_declaration": e.handleFunction,
		"function_expression":            e.handleFunctionExpression,
		"generator_function":             e.handleFunctionExpression,
		"arrow_function":                 e.handleArrow,
		"class_declaration":              e.handleClass,
		"class":                          e.handleClass,
		"method_definition":              e.handleMethod,
		"call_expression":                e.handleCall,
	}
	for kind, handler := range extra {
		handlers[kind] = handler
	}
	e.engine = NewExtractorEngine(handlers)
	return e
}

func (e *JSExtractor) Language() string { return e.language }

func (e *JSExtractor) Capabilities() Capabilities { return JSCapabilities() }

func (e *JSExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   e.language,
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)
	return file, nil
}

func (e *JSExtractor) handleImportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	raw := ctx.Text(node)

	// TypeScript's import x = require("m") shares the statement kind.
	if clause := firstChildOfKind(node, "import_require_clause"); clause != nil {
		module := trimQuoted(ctx.Text(firstDescendantOfKind(clause, "string")))
		if module == "" {
			ctx.Anomaly(node, "import missing source")
			return true
		}
		alias := ctx.FieldText(clause, "name")
		if alias == "" {
			alias = ctx.Text(firstChildOfKind(clause, "identifier"))
		}
		depth, relative := jsRelativeDepth(module)
		kind := ImportAliased
		if relative {
			kind = ImportRelative
		}
		ctx.EmitImport(Import{
			Raw:           raw,
			Kind:          kind,
			Module:        module,
			Resolved:      module,
			Targets:       []ImportTarget{{Name: module, Alias: alias}},
			RelativeDepth: depth,
			Span:          ctx.Span(node),
		})
		return true
	}

	module := trimQuoted(ctx.FieldText(node, "source"))
	if module == "" {
		ctx.Anomaly(node, "import missing source")
		return true
	}

	targets := jsImportTargets(ctx, node)
	if len(targets) == 0 {
		// Side-effect import: the module itself is the only target.
		targets = []ImportTarget{{Name: module}}
	}

	depth, relative := jsRelativeDepth(module)
	ctx.EmitImport(Import{
		Raw:           raw,
		Kind:          classifyStaticImport(targets, relative, false),
		Module:        module,
		Resolved:      module,
		Targets:       targets,
		RelativeDepth: depth,
		Span:          ctx.Span(node),
	})
	return true
}

// handleExport records re-exports, which pull another module in just like an
// import. Exported declarations fall through to their own handlers.
func (e *JSExtractor) handleExport(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		return false
	}

	module := trimQuoted(ctx.Text(source))
	if module == "" {
		ctx.Anomaly(node, "re-export missing source")
		return true
	}

	var targets []ImportTarget
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "*":
			targets = append(targets, ImportTarget{Name: "*", Wildcard: true})
		case "namespace_export":
			alias := ctx.Text(firstChildOfKind(child, "identifier"))
			targets = append(targets, ImportTarget{Name: "*", Alias: alias, Wildcard: true})
		case "export_clause":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec.Kind() != "export_specifier" {
					continue
				}
				targets = append(targets, ImportTarget{
					Name:  ctx.FieldText(spec, "name"),
					Alias: ctx.FieldText(spec, "alias"),
				})
			}
		}
	}
	if len(targets) == 0 {
		targets = []ImportTarget{{Name: module}}
	}

	depth, relative := jsRelativeDepth(module)
	ctx.EmitImport(Import{
		Raw:           ctx.Text(node),
		Kind:          classifyStaticImport(targets, relative, false),
		Module:        module,
		Resolved:      module,
		Targets:       targets,
		RelativeDepth: depth,
		Span:          ctx.Span(node),
	})
	return true
}

// handleCall recognizes the two runtime loaders: dynamic import() and
// CommonJS require. A require with a literal specifier is an ordinary
// static dependency; anything computed resolves to the sentinel.
func (e *JSExtractor) handleCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	if fn.Kind() == "import" {
		guarded, _ := jsGuard(node)
		ctx.EmitImport(Import{
			Raw:      ctx.Text(node),
			Kind:     ImportDynamic,
			Resolved: Unresolved,
			Guarded:  guarded,
			Span:     ctx.Span(node),
		})
		return false
	}

	if ctx.Text(fn) != "require" {
		return false
	}

	guarded, conditional := jsGuard(node)
	lit := firstChildOfKind(node.ChildByFieldName("arguments"), "string")
	if lit == nil {
		ctx.EmitImport(Import{
			Raw:      ctx.Text(node),
			Kind:     ImportDynamic,
			Resolved: Unresolved,
			Guarded:  guarded,
			Span:     ctx.Span(node),
		})
		return false
	}

	module := trimQuoted(ctx.Text(lit))
	targets := requireTargets(ctx, node, module)
	if len(targets) == 0 {
		targets = []ImportTarget{{Name: module}}
	}

	depth, relative := jsRelativeDepth(module)
	kind := classifyStaticImport(targets, relative, conditional)
	ctx.EmitImport(Import{
		Raw:           ctx.Text(node),
		Kind:          kind,
		Module:        module,
		Resolved:      module,
		Targets:       targets,
		RelativeDepth: depth,
		Guarded:       guarded,
		Span:          ctx.Span(node),
	})
	return false
}

func (e *JSExtractor) handleFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "function declaration missing name")
		return true
	}

	var mods Modifier
	if node.Kind() == "generator_function_declaration" {
		mods |= ModGenerator
	}
	if hasChildOfKind(node, "async") {
		mods |= ModAsync
	}

	sym := ctx.Emit(Symbol{
		Name:      name,
		Kind:      KindFunction,
		Modifiers: mods,
		Doc:       jsDoc(ctx, node),
		Span:      ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("parameters"))
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

// handleFunctionExpression covers function expressions. Named ones keep
// their name; anonymous ones are lambdas with a position-derived name.
func (e *JSExtractor) handleFunctionExpression(ctx *ExtractionContext, node *sitter.Node) bool {
	span := ctx.Span(node)
	name := ctx.FieldText(node, "name")
	kind := KindFunction
	if name == "" {
		name = syntheticLambdaName(span)
		kind = KindLambda
	}

	var mods Modifier
	if node.Kind() == "generator_function" {
		mods |= ModGenerator
	}
	if hasChildOfKind(node, "async") {
		mods |= ModAsync
	}

	sym := ctx.Emit(Symbol{
		Name:      name,
		Kind:      kind,
		Modifiers: mods,
		Span:      span,
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("parameters"))
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *JSExtractor) handleArrow(ctx *ExtractionContext, node *sitter.Node) bool {
	span := ctx.Span(node)
	var mods Modifier
	if hasChildOfKind(node, "async") {
		mods |= ModAsync
	}

	sym := ctx.Emit(Symbol{
		Name:      syntheticLambdaName(span),
		Kind:      KindLambda,
		Modifiers: mods,
		Span:      span,
	})

	// An expression body may itself be the next arrow in a curried chain.
	ctx.PushScope(sym.ID())
	e.engine.Walk(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *JSExtractor) handleClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		if node.Kind() == "class_declaration" {
			ctx.Anomaly(node, "class declaration missing name")
			return true
		}
		// Anonymous class expression: nothing to anchor members to, so its
		// methods record as plain functions.
		return false
	}

	decorators := jsDecorators(ctx, node)
	var mods Modifier
	if len(decorators) > 0 {
		mods |= ModDecorated
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       KindClass,
		Modifiers:  mods,
		Decorators: decorators,
		Doc:        jsDoc(ctx, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *JSExtractor) handleMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "method missing name")
		return true
	}

	decorators := jsDecorators(ctx, node)
	var mods Modifier
	if len(decorators) > 0 {
		mods |= ModDecorated
	}

	// Object-literal methods share this node kind; only class members get
	// the method kinds.
	kind := KindFunction
	if ctx.InClassBody() {
		kind = KindMethod
		if hasChildOfKind(node, "static") {
			kind = KindStaticMethod
			mods |= ModStatic
		}
		if kind == KindMethod && e.ctors[name] {
			kind = KindConstructor
		}
	}

	if hasChildOfKind(node, "async") {
		mods |= ModAsync
	}
	if hasChildOfKind(node, "*") {
		mods |= ModGenerator
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       kind,
		Modifiers:  mods,
		Decorators: decorators,
		Doc:        leadingComment(ctx.Source, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("parameters"))
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

// classifyStaticImport applies the shape precedence shared by ES imports,
// re-exports, and literal requires.
func classifyStaticImport(targets []ImportTarget, relative, conditional bool) ImportKind {
	wildcard := len(targets) == 1 && targets[0].Wildcard
	aliased := false
	for _, t := range targets {
		if t.Alias != "" {
			aliased = true
		}
	}

	switch {
	case conditional:
		return ImportConditional
	case relative:
		return ImportRelative
	case wildcard:
		return ImportWildcard
	case len(targets) > 1:
		return ImportSelectiveMultiple
	case aliased:
		return ImportAliased
	default:
		return ImportDirect
	}
}

// jsImportTargets reads the import clause: default binding, namespace
// binding, and named specifiers.
func jsImportTargets(ctx *ExtractionContext, node *sitter.Node) []ImportTarget {
	clause := firstChildOfKind(node, "import_clause")
	if clause == nil {
		return nil
	}

	var targets []ImportTarget
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		switch child.Kind() {
		case "identifier":
			targets = append(targets, ImportTarget{Name: "default", Alias: ctx.Text(child)})
		case "namespace_import":
			alias := ctx.Text(firstChildOfKind(child, "identifier"))
			targets = append(targets, ImportTarget{Name: "*", Alias: alias, Wildcard: true})
		case "named_imports":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				targets = append(targets, ImportTarget{
					Name:  ctx.FieldText(spec, "name"),
					Alias: ctx.FieldText(spec, "alias"),
				})
			}
		}
	}
	return targets
}

// requireTargets maps the binding side of const x = require("m") onto
// import targets. Destructuring enumerates the picked names.
func requireTargets(ctx *ExtractionContext, call *sitter.Node, module string) []ImportTarget {
	parent := call.Parent()
	if parent == nil || parent.Kind() != "variable_declarator" {
		return nil
	}
	nameNode := parent.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	switch nameNode.Kind() {
	case "identifier":
		return []ImportTarget{{Name: module, Alias: ctx.Text(nameNode)}}
	case "object_pattern":
		var targets []ImportTarget
		for i := uint(0); i < nameNode.ChildCount(); i++ {
			child := nameNode.Child(i)
			switch child.Kind() {
			case "shorthand_property_identifier_pattern":
				targets = append(targets, ImportTarget{Name: ctx.Text(child)})
			case "pair_pattern":
				targets = append(targets, ImportTarget{
					Name:  ctx.FieldText(child, "key"),
					Alias: ctx.FieldText(child, "value"),
				})
			}
		}
		return targets
	}
	return nil
}

// jsRelativeDepth classifies specifier shape. "./x" is relative at depth
// zero; each "../" hop adds one level.
func jsRelativeDepth(module string) (depth int, relative bool) {
	if module != "." && module != ".." &&
		!strings.HasPrefix(module, "./") && !strings.HasPrefix(module, "../") {
		return 0, false
	}
	rest := module
	for strings.HasPrefix(rest, "../") {
		depth++
		rest = strings.TrimPrefix(rest, "../")
	}
	if rest == ".." {
		depth++
	}
	return depth, true
}

// jsGuard walks enclosing statements up to the nearest scope boundary.
// Reaching a try statement through its protected body is the optional-
// dependency idiom and classifies a require Conditional; other branch
// constructs only mark the record guarded.
func jsGuard(node *sitter.Node) (guarded, conditional bool) {
	prev := node
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "function_declaration", "generator_function_declaration",
			"function_expression", "generator_function", "arrow_function",
			"method_definition", "class_declaration", "class", "class_static_block":
			return guarded, false
		case "try_statement":
			if prev.Kind() == "statement_block" {
				return true, true
			}
			guarded = true
		case "if_statement", "else_clause", "switch_case", "switch_default",
			"while_statement", "do_statement", "for_statement",
			"for_in_statement", "catch_clause", "finally_clause",
			"ternary_expression":
			guarded = true
		}
		prev = p
	}
	return guarded, false
}

func jsDecorators(ctx *ExtractionContext, node *sitter.Node) []string {
	var out []string
	collect := func(parent *sitter.Node) {
		for i := uint(0); i < parent.ChildCount(); i++ {
			child := parent.Child(i)
			if child.Kind() != "decorator" {
				continue
			}
			dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(child)), "@"))
			if dec != "" {
				out = append(out, dec)
			}
		}
	}
	collect(node)
	// Decorators on an exported class hang off the export statement.
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		collect(parent)
	}
	return out
}

// jsDoc reads the comment block above a declaration, looking through an
// export wrapper when present.
func jsDoc(ctx *ExtractionContext, node *sitter.Node) string {
	if doc := leadingComment(ctx.Source, node); doc != "" {
		return doc
	}
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		return leadingComment(ctx.Source, parent)
	}
	return ""
}
