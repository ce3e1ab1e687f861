// # internal/engine/parser/engine.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific extractor.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state/helpers used by all extractors.
// Scope tracking is a stack of symbol ids; handlers that open a scope walk
// their own children between PushScope and PopScope.
type ExtractionContext struct {
	Source            []byte
	File              *FileMap
	ProcessedChildren bool // If true, the walker will skip this node's children

	// TypeScopes maps in-file type names to the class record id their
	// declaration produces. Languages whose methods attach to a receiver
	// type rather than nesting inside the class body (Go receivers, Rust
	// impl blocks) fill this in a pre-pass, since a method may precede its
	// type in the file.
	TypeScopes map[string]string

	scopes []string
}

func (c *ExtractionContext) ResetProcessedChildren() {
	c.ProcessedChildren = false
}

func (c *ExtractionContext) PushScope(id string) {
	c.scopes = append(c.scopes, id)
}

func (c *ExtractionContext) PopScope() {
	if len(c.scopes) > 0 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// CurrentScope returns the id of the innermost enclosing symbol, or "" at
// file level.
func (c *ExtractionContext) CurrentScope() string {
	if len(c.scopes) == 0 {
		return ""
	}
	return c.scopes[len(c.scopes)-1]
}

// CurrentClass returns the innermost enclosing Class symbol, or nil.
func (c *ExtractionContext) CurrentClass() *Symbol {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym := c.File.SymbolByID(c.scopes[i]); sym != nil && sym.Kind == KindClass {
			return sym
		}
	}
	return nil
}

// InClassBody reports whether the innermost enclosing symbol is a class,
// which is what member classification keys on. Scopes pushed from a type
// pre-pass may name a class record that is emitted later in the walk, so
// the id prefix is checked when the record is not yet present.
func (c *ExtractionContext) InClassBody() bool {
	scope := c.CurrentScope()
	if scope == "" {
		return false
	}
	if sym := c.File.SymbolByID(scope); sym != nil {
		return sym.Kind == KindClass
	}
	return strings.HasPrefix(scope, symbolKindNames[KindClass]+"@")
}

// Emit appends a symbol record, stamping the current scope. It returns the
// stored record so handlers can push its id for nested walks.
func (c *ExtractionContext) Emit(sym Symbol) *Symbol {
	sym.ScopeID = c.CurrentScope()
	c.File.Symbols = append(c.File.Symbols, sym)
	return &c.File.Symbols[len(c.File.Symbols)-1]
}

// EmitImport appends an import record, stamping the current scope.
func (c *ExtractionContext) EmitImport(imp Import) {
	imp.ScopeID = c.CurrentScope()
	c.File.Imports = append(c.File.Imports, imp)
}

// Anomaly records a declaration-level diagnostic without aborting the walk.
func (c *ExtractionContext) Anomaly(node *sitter.Node, message string) {
	c.File.Diagnostics = append(c.File.Diagnostics, Diagnostic{
		Kind:    DiagDeclarationAnomaly,
		Message: message,
		Span:    c.Span(node),
	})
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.ResetProcessedChildren()
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		e.WalkChildren(ctx, node)
	}
}

// WalkChildren walks each child of node. Handlers that open a scope call
// this directly so Push/PopScope bracket the descent.
func (e *ExtractorEngine) WalkChildren(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Span(node *sitter.Node) Span {
	return nodeSpan(node)
}

// nodeSpan converts tree-sitter's zero-based positions to 1-based lines and
// columns.
func nodeSpan(node *sitter.Node) Span {
	if node == nil {
		return Span{}
	}
	start := node.StartPosition()
	end := node.EndPosition()
	return Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

func (c *ExtractionContext) ChildText(node *sitter.Node, kind string) string {
	if node == nil {
		return ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return c.Text(child)
		}
	}
	return ""
}

// FieldText returns the text of a named field child, or "".
func (c *ExtractionContext) FieldText(node *sitter.Node, field string) string {
	if node == nil {
		return ""
	}
	return c.Text(node.ChildByFieldName(field))
}

// HasDescendant reports whether any node of one of the given kinds occurs in
// the subtree, without descending into nested function-like scopes listed in
// barriers. Used for suspension-point (generator) detection.
func HasDescendant(node *sitter.Node, kinds map[string]bool, barriers map[string]bool) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if kinds[child.Kind()] {
			return true
		}
		if barriers[child.Kind()] {
			continue
		}
		if HasDescendant(child, kinds, barriers) {
			return true
		}
	}
	return false
}

// AncestorOfKind walks parents until it finds one of the given kinds, or nil.
func AncestorOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		for _, kind := range kinds {
			if parent.Kind() == kind {
				return parent
			}
		}
	}
	return nil
}
