// # internal/engine/parser/rust.go
package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/core/errors"
)

// RustExtractor maps Rust items onto the shared model. Impl blocks bind
// their functions to the target type's class record when that type is
// declared in the same file; attributes fill the decorator slot.
type RustExtractor struct {
	ctors  map[string]bool
	engine *ExtractorEngine
}

// RustCapabilities treats the conventional new as the constructor name.
// There are no marker decorators; self receivers decide method binding.
func RustCapabilities() Capabilities {
	return Capabilities{ConstructorNames: []string{"new"}}
}

func NewRustExtractor() *RustExtractor {
	e := &RustExtractor{ctors: constructorSet(RustCapabilities().ConstructorNames)}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"use_declaration":          e.handleUse,
		"extern_crate_declaration": e.handleExternCrate,
		"mod_item":                 e.handleMod,
		"function_item":            e.handleFunction,
		"struct_item":              e.handleTypeItem,
		"enum_item":                e.handleTypeItem,
		"union_item":               e.handleTypeItem,
		"trait_item":               e.handleTypeItem,
		"impl_item":                e.handleImpl,
		"closure_expression":       e.handleClosure,
	})
	return e
}

func (e *RustExtractor) Language() string { return "rust" }

func (e *RustExtractor) Capabilities() Capabilities { return RustCapabilities() }

func (e *RustExtractor) Extract(root *sitter.Node, source []byte, path string) (*FileMap, error) {
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "nil syntax tree"), errors.CtxPath, path)
	}

	file := &FileMap{
		Path:       path,
		Language:   "rust",
		AnalyzedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, File: file}
	ctx.TypeScopes = make(map[string]string)
	collectRustTypeScopes(ctx, root, ctx.TypeScopes)
	e.engine.Walk(ctx, root)
	return file, nil
}

// collectRustTypeScopes records the class id each type item will produce,
// keyed by name, descending into inline modules. An impl block may precede
// its type in the file, so the binding must exist before the walk starts.
func collectRustTypeScopes(ctx *ExtractionContext, node *sitter.Node, types map[string]string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "struct_item", "enum_item", "union_item", "trait_item":
			if name := ctx.FieldText(child, "name"); name != "" {
				cls := Symbol{Kind: KindClass, Span: ctx.Span(child)}
				types[name] = cls.ID()
			}
		case "mod_item", "declaration_list":
			collectRustTypeScopes(ctx, child, types)
		}
	}
}

func (e *RustExtractor) handleUse(ctx *ExtractionContext, node *sitter.Node) bool {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		ctx.Anomaly(node, "use declaration without path")
		return true
	}

	module, targets := rustUseParts(ctx, arg)
	if len(targets) == 0 {
		ctx.Anomaly(node, "use declaration without targets")
		return true
	}

	depth, relative := rustRelativeDepth(module)
	ctx.EmitImport(Import{
		Raw:           ctx.Text(node),
		Kind:          classifyStaticImport(targets, relative, false),
		Module:        module,
		Resolved:      module,
		Targets:       targets,
		RelativeDepth: depth,
		Guarded:       rustCfgGuarded(ctx, node),
		Span:          ctx.Span(node),
	})
	return true
}

func (e *RustExtractor) handleExternCrate(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "extern crate without name")
		return true
	}

	kind := ImportDirect
	target := ImportTarget{Name: name}
	if alias := ctx.FieldText(node, "alias"); alias != "" {
		kind = ImportAliased
		target.Alias = alias
	}

	ctx.EmitImport(Import{
		Raw:      ctx.Text(node),
		Kind:     kind,
		Module:   name,
		Resolved: name,
		Targets:  []ImportTarget{target},
		Guarded:  rustCfgGuarded(ctx, node),
		Span:     ctx.Span(node),
	})
	return true
}

// handleMod records file-backed module declarations as dependencies; an
// inline body is only a namespace to descend into.
func (e *RustExtractor) handleMod(ctx *ExtractionContext, node *sitter.Node) bool {
	if node.ChildByFieldName("body") != nil {
		return false
	}
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "mod declaration without name")
		return true
	}

	ctx.EmitImport(Import{
		Raw:      ctx.Text(node),
		Kind:     ImportDirect,
		Module:   name,
		Resolved: name,
		Targets:  []ImportTarget{{Name: name}},
		Guarded:  rustCfgGuarded(ctx, node),
		Span:     ctx.Span(node),
	})
	return true
}

func (e *RustExtractor) handleFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "function item missing name")
		return true
	}

	attrs := rustAttributes(ctx, node)
	var mods Modifier
	if len(attrs) > 0 {
		mods |= ModDecorated
	}
	if modifiers := firstChildOfKind(node, "function_modifiers"); hasChildOfKind(modifiers, "async") {
		mods |= ModAsync
	}
	body := node.ChildByFieldName("body")
	if HasDescendant(body, rustYieldKinds, rustScopeBarriers) {
		mods |= ModGenerator
	}

	kind := KindFunction
	if ctx.InClassBody() {
		hasSelf := hasChildOfKind(node.ChildByFieldName("parameters"), "self_parameter")
		switch {
		case !hasSelf && e.ctors[name]:
			kind = KindConstructor
		case hasSelf:
			kind = KindMethod
		default:
			kind = KindStaticMethod
			mods |= ModStatic
		}
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       kind,
		Modifiers:  mods,
		Decorators: attrs,
		Doc:        rustDoc(ctx, node),
		Span:       ctx.Span(node),
	})

	ctx.PushScope(sym.ID())
	e.engine.WalkChildren(ctx, body)
	ctx.PopScope()
	return true
}

func (e *RustExtractor) handleTypeItem(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		ctx.Anomaly(node, "type item missing name")
		return true
	}

	attrs := rustAttributes(ctx, node)
	var mods Modifier
	if len(attrs) > 0 {
		mods |= ModDecorated
	}

	sym := ctx.Emit(Symbol{
		Name:       name,
		Kind:       KindClass,
		Modifiers:  mods,
		Decorators: attrs,
		Doc:        rustDoc(ctx, node),
		Span:       ctx.Span(node),
	})

	// Trait bodies may carry default method implementations.
	if node.Kind() == "trait_item" {
		ctx.PushScope(sym.ID())
		e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
		ctx.PopScope()
	}
	return true
}

// handleImpl binds the block's functions to the target type's class record.
// A foreign target type leaves the functions unbound, so they record as
// plain functions.
func (e *RustExtractor) handleImpl(ctx *ExtractionContext, node *sitter.Node) bool {
	target := ctx.Text(firstDescendantOfKind(node.ChildByFieldName("type"), "type_identifier"))
	classID, bound := ctx.TypeScopes[target]

	if bound {
		ctx.PushScope(classID)
	}
	e.engine.WalkChildren(ctx, node.ChildByFieldName("body"))
	if bound {
		ctx.PopScope()
	}
	return true
}

func (e *RustExtractor) handleClosure(ctx *ExtractionContext, node *sitter.Node) bool {
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

	// The body expression may itself be the next closure in a chain.
	ctx.PushScope(sym.ID())
	e.engine.Walk(ctx, node.ChildByFieldName("body"))
	ctx.PopScope()
	return true
}

var rustYieldKinds = map[string]bool{"yield_expression": true}

var rustScopeBarriers = map[string]bool{
	"function_item":      true,
	"closure_expression": true,
}

// rustUseParts splits a use tree into the base module path and the set of
// imported targets.
func rustUseParts(ctx *ExtractionContext, arg *sitter.Node) (string, []ImportTarget) {
	switch arg.Kind() {
	case "use_as_clause":
		path := ctx.FieldText(arg, "path")
		return path, []ImportTarget{{Name: path, Alias: ctx.FieldText(arg, "alias")}}
	case "use_wildcard":
		module := strings.TrimSuffix(strings.TrimSuffix(ctx.Text(arg), "*"), "::")
		return module, []ImportTarget{{Name: "*", Wildcard: true}}
	case "scoped_use_list":
		module := ctx.FieldText(arg, "path")
		return module, collectRustUseTargets(ctx, arg.ChildByFieldName("list"), "")
	case "use_list":
		return "", collectRustUseTargets(ctx, arg, "")
	default:
		// identifier, scoped_identifier, crate, self, super
		path := ctx.Text(arg)
		return path, []ImportTarget{{Name: path}}
	}
}

// collectRustUseTargets flattens a braced use list, joining nested group
// prefixes back onto their leaves.
func collectRustUseTargets(ctx *ExtractionContext, list *sitter.Node, prefix string) []ImportTarget {
	if list == nil {
		return nil
	}
	var targets []ImportTarget
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		switch child.Kind() {
		case "identifier", "scoped_identifier", "self", "crate", "super":
			targets = append(targets, ImportTarget{Name: joinRustPath(prefix, ctx.Text(child))})
		case "use_as_clause":
			targets = append(targets, ImportTarget{
				Name:  joinRustPath(prefix, ctx.FieldText(child, "path")),
				Alias: ctx.FieldText(child, "alias"),
			})
		case "use_wildcard":
			targets = append(targets, ImportTarget{Name: "*", Wildcard: true})
		case "scoped_use_list":
			sub := joinRustPath(prefix, ctx.FieldText(child, "path"))
			targets = append(targets, collectRustUseTargets(ctx, child.ChildByFieldName("list"), sub)...)
		}
	}
	return targets
}

func joinRustPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "::" + name
}

// rustRelativeDepth reads the path head: self anchors at the current module
// (depth zero) and each leading super hops one module up. crate-rooted
// paths are absolute.
func rustRelativeDepth(module string) (depth int, relative bool) {
	segments := strings.Split(module, "::")
	if len(segments) == 0 {
		return 0, false
	}
	if segments[0] == "self" {
		return 0, true
	}
	for _, seg := range segments {
		if seg != "super" {
			break
		}
		depth++
	}
	return depth, depth > 0
}

// rustAttributes collects the attribute block directly above an item,
// outermost first. Doc comments may interleave with attributes.
func rustAttributes(ctx *ExtractionContext, node *sitter.Node) []string {
	var out []string
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if commentNodeKinds[prev.Kind()] {
			continue
		}
		if prev.Kind() != "attribute_item" {
			break
		}
		text := strings.TrimSpace(ctx.Text(prev))
		text = strings.TrimPrefix(text, "#[")
		text = strings.TrimSuffix(text, "]")
		if text != "" {
			out = append([]string{text}, out...)
		}
	}
	return out
}

// rustCfgGuarded reports whether the item sits under conditional
// compilation.
func rustCfgGuarded(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, attr := range rustAttributes(ctx, node) {
		if strings.HasPrefix(attr, "cfg(") || strings.HasPrefix(attr, "cfg_attr(") {
			return true
		}
	}
	return false
}

// rustDoc reads the outer doc comment block above an item, skipping over
// attributes that sit between the docs and the declaration.
func rustDoc(ctx *ExtractionContext, node *sitter.Node) string {
	var parts []string
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		kind := prev.Kind()
		if kind == "attribute_item" {
			continue
		}
		if !commentNodeKinds[kind] {
			break
		}
		text := ctx.Text(prev)
		if !strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "/**") {
			break
		}
		parts = append([]string{text}, parts...)
	}
	if len(parts) == 0 {
		return ""
	}
	return cleanCommentDoc(strings.Join(parts, "\n"))
}
