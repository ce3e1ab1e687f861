// # internal/engine/parser/python.go
package parser

import (
	"strings"
	"time"

	"codemap/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor is the grammar adapter for Python sources. It is the
// reference adapter: every import shape and member classification the
// normalized model knows appears in this grammar.
type PythonExtractor struct {
	caps    Capabilities
	markers classifierTable
	ctors   map[string]bool
	engine  *ExtractorEngine
}

// PythonCapabilities returns the default marker tables for Python.
func PythonCapabilities() Capabilities {
	return Capabilities{
		ClassMethodMarkers:  []string{"classmethod"},
		StaticMethodMarkers: []string{"staticmethod"},
		ConstructorNames:    []string{"__init__"},
	}
}

func NewPythonExtractor() (*PythonExtractor, error) {
	return NewPythonExtractorWithCapabilities(PythonCapabilities())
}

func NewPythonExtractorWithCapabilities(caps Capabilities) (*PythonExtractor, error) {
	markers, err := buildClassifierTable(caps)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxLanguage, "python")
	}
	e := &PythonExtractor{
		caps:    caps,
		markers: markers,
		ctors:   constructorSet(caps.ConstructorNames),
	}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"function_definition":   e.handleFunction,
		"class_definition":      e.handleClass,
		"lambda":                e.handleLambda,
		"import_statement":      e.handleImport,
		"import_from_statement": e.handleFromImport,
		"call":                  e.handleCall,
	})
	return e, nil
}

func (e *PythonExtractor) Language() string { return "python" }

func (e *PythonExtractor) Capabilities() Capabilities { return e.caps }

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   "python",
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)
	return file, nil
}

func (e *PythonExtractor) handleFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "function declaration missing name")
		return true
	}

	decorators := pythonDecorators(ctx, node)
	inClass := ctx.InClassBody()

	kind := KindFunction
	var mods Modifier
	if inClass {
		kind = KindMethod
		if len(decorators) > 0 {
			selected, classified, plain := e.markers.classify(decorators)
			if classified {
				kind = selected
				switch selected {
				case KindClassMethod:
					mods |= ModClassBound
				case KindStaticMethod:
					mods |= ModStatic
				}
			}
			if plain {
				mods |= ModDecorated
			}
		}
		if kind == KindMethod && e.ctors[name] {
			kind = KindConstructor
		}
	} else if len(decorators) > 0 {
		// Marker decorators only classify inside a class body.
		mods |= ModDecorated
	}

	if hasChildOfKind(node, "async") {
		mods |= ModAsync
	}
	body := node.ChildByFieldName("body")
	if HasDescendant(body, pythonYieldKinds, pythonScopeBarriers) {
		mods |= ModGenerator
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       kind,
		Modifiers:  mods,
		Decorators: decorators,
		Doc:        pythonDocstring(ctx, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("parameters"))
	e.engine.WalkChildren(ctx, body)
	ctx.PopScope()
	return true
}

func (e *PythonExtractor) handleClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "class declaration missing name")
		return true
	}

	decorators := pythonDecorators(ctx, node)
	var mods Modifier
	if len(decorators) > 0 {
		mods |= ModDecorated
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       KindClass,
		Modifiers:  mods,
		Decorators: decorators,
		Doc:        pythonDocstring(ctx, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

func (e *PythonExtractor) handleLambda(ctx *ExtractionContext, node *sitter.Node) bool {
	span := ctx.Span(node)
	var mods Modifier
	if HasDescendant(node.ChildByFieldName("body"), pythonYieldKinds, pythonScopeBarriers) {
		mods |= ModGenerator
	}

	sym := ctx.Emit(Symbol{
		Name:      syntheticLambdaName(span),
		Kind:      KindLambda,
		Modifiers: mods,
		Span:      span,
	})

	// The body is a bare expression and may itself be a lambda, so walk the
	// node rather than its children.
	ctx.PushScope(sym.ID())
	e.engine.Walk(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

// handleImport covers plain "import a.b" statements. Comma-separated module
// lists enumerate independent dependencies, so each module becomes its own
// record under the shared raw statement.
func (e *PythonExtractor) handleImport(ctx *ExtractionContext, node *sitter.Node) bool {
	raw := ctx.Text(node)
	guarded, conditional := pythonGuard(node)
	span := ctx.Span(node)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			module := ctx.Text(child)
			kind := ImportDirect
			if conditional {
				kind = ImportConditional
			}
			ctx.EmitImport(Import{
				Raw:      raw,
				Kind:     kind,
				Module:   module,
				Resolved: module,
				Targets:  []ImportTarget{{Name: module}},
				Guarded:  guarded,
				Span:     span,
			})
		case "aliased_import":
			module := ctx.FieldText(child, "name")
			alias := ctx.FieldText(child, "alias")
			kind := ImportAliased
			if conditional {
				kind = ImportConditional
			}
			ctx.EmitImport(Import{
				Raw:      raw,
				Kind:     kind,
				Module:   module,
				Resolved: module,
				Targets:  []ImportTarget{{Name: module, Alias: alias}},
				Guarded:  guarded,
				Span:     span,
			})
		}
	}
	return true
}

func (e *PythonExtractor) handleFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	raw := ctx.Text(node)
	guarded, conditional := pythonGuard(node)

	moduleNode := node.ChildByFieldName("module_name")
	module := ctx.Text(moduleNode)
	relative := moduleNode != nil && moduleNode.Kind() == "relative_import"
	depth := 0
	if relative {
		depth = countLeadingDots(module)
	}

	targets := collectPythonTargets(ctx, node)
	if len(targets) == 0 {
		ctx.Anomaly(node, "from-import without targets")
		return true
	}

	wildcard := len(targets) == 1 && targets[0].Wildcard
	aliased := false
	for _, t := range targets {
		if t.Alias != "" {
			aliased = true
		}
	}

	kind := ImportDirect
	switch {
	case conditional:
		kind = ImportConditional
	case relative:
		kind = ImportRelative
	case wildcard:
		kind = ImportWildcard
	case len(targets) > 1:
		kind = ImportSelectiveMultiple
	case aliased:
		kind = ImportAliased
	}

	ctx.EmitImport(Import{
		Raw:           raw,
		Kind:          kind,
		Module:        module,
		Resolved:      module,
		Targets:       targets,
		RelativeDepth: depth,
		Guarded:       guarded,
		Span:          ctx.Span(node),
	})
	return true
}

// handleCall recognizes runtime import calls. Their targets are computed at
// execution time, so the record is Dynamic and resolves to the sentinel.
func (e *PythonExtractor) handleCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := ctx.Text(node.ChildByFieldName("function"))
	if fn == "__import__" || fn == "import_module" || strings.HasSuffix(fn, ".import_module") {
		guarded, _ := pythonGuard(node)
		ctx.EmitImport(Import{
			Raw:      ctx.Text(node),
			Kind:     ImportDynamic,
			Resolved: Unresolved,
			Guarded:  guarded,
			Span:     ctx.Span(node),
		})
	}
	return false
}

// collectPythonTargets gathers the imported names following the "import"
// keyword: plain names, aliased names, or the wildcard.
func collectPythonTargets(ctx *ExtractionContext, node *sitter.Node) []ImportTarget {
	var targets []ImportTarget
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			seenImport = true
			continue
		}
		if !seenImport {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			targets = append(targets, ImportTarget{Name: ctx.Text(child)})
		case "aliased_import":
			targets = append(targets, ImportTarget{
				Name:  ctx.FieldText(child, "name"),
				Alias: ctx.FieldText(child, "alias"),
			})
		case "wildcard_import":
			targets = append(targets, ImportTarget{Name: "*", Wildcard: true})
		}
	}
	return targets
}

var pythonYieldKinds = map[string]bool{"yield": true}

var pythonScopeBarriers = map[string]bool{
	"function_definition": true,
	"class_definition":    true,
	"lambda":              true,
}

func pythonDecorators(ctx *ExtractionContext, node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}

	decorators := make([]string, 0, parent.ChildCount())
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(child)), "@"))
		if dec == "" {
			continue
		}
		decorators = append(decorators, dec)
	}
	return decorators
}

// pythonGuard walks enclosing statements up to the nearest scope boundary.
// Reaching a try statement through its protected body is the
// fallback-import idiom and classifies the statement Conditional; any other
// branch construct only marks the record guarded.
func pythonGuard(node *sitter.Node) (guarded, conditional bool) {
	prev := node
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "function_definition", "class_definition", "lambda":
			return guarded, false
		case "try_statement":
			if prev.Kind() == "block" {
				return true, true
			}
			guarded = true
		case "if_statement", "elif_clause", "else_clause", "while_statement",
			"match_statement", "case_clause", "except_clause", "finally_clause":
			guarded = true
		}
		prev = p
	}
	return guarded, false
}

func pythonDocstring(ctx *ExtractionContext, node *sitter.Node) string {
	body := node.ChildByFieldName("body")
	if body == nil {
		return ""
	}
	first := body.Child(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := firstChildOfKind(first, "string")
	if str == nil {
		return ""
	}
	return cleanDocstring(ctx.Text(str))
}
