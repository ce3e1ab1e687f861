// # internal/engine/parser/types.go
package parser

import (
	"encoding/json"
	"fmt"
	"time"
)

// SymbolKind is the normalized classification shared across languages.
type SymbolKind int

const (
	KindFunction SymbolKind = iota
	KindMethod
	KindClassMethod
	KindStaticMethod
	KindLambda
	KindClass
	KindConstructor
)

var symbolKindNames = [...]string{
	KindFunction:     "Function",
	KindMethod:       "Method",
	KindClassMethod:  "ClassMethod",
	KindStaticMethod: "StaticMethod",
	KindLambda:       "Lambda",
	KindClass:        "Class",
	KindConstructor:  "Constructor",
}

func (k SymbolKind) String() string {
	if k < 0 || int(k) >= len(symbolKindNames) {
		return fmt.Sprintf("SymbolKind(%d)", int(k))
	}
	return symbolKindNames[k]
}

func (k SymbolKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Modifier is an orthogonal flag set; any combination may co-occur on one
// symbol (an async generator method carries both ModAsync and ModGenerator).
type Modifier uint8

const (
	ModAsync Modifier = 1 << iota
	ModGenerator
	ModDecorated
	ModStatic
	ModClassBound
)

var modifierNames = []struct {
	flag Modifier
	name string
}{
	{ModAsync, "Async"},
	{ModGenerator, "Generator"},
	{ModDecorated, "Decorated"},
	{ModStatic, "Static"},
	{ModClassBound, "ClassBound"},
}

func (m Modifier) Has(flag Modifier) bool { return m&flag != 0 }

func (m Modifier) Names() []string {
	out := make([]string, 0, len(modifierNames))
	for _, entry := range modifierNames {
		if m.Has(entry.flag) {
			out = append(out, entry.name)
		}
	}
	return out
}

func (m Modifier) String() string {
	names := m.Names()
	if len(names) == 0 {
		return "none"
	}
	joined := names[0]
	for _, name := range names[1:] {
		joined += "|" + name
	}
	return joined
}

func (m Modifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Names())
}

// Span locates a record in its source file. Lines and columns are 1-based.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

// Symbol is one extracted declaration. Records live arena-style in the
// owning FileMap's flat slice; ScopeID references the enclosing record by id,
// never by ownership, so nested scopes cannot form ownership cycles.
type Symbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	Modifiers  Modifier   `json:"modifiers"`
	ScopeID    string     `json:"scope_id,omitempty"`
	Decorators []string   `json:"decorators,omitempty"`
	Doc        string     `json:"doc,omitempty"`
	Span       Span       `json:"span"`
}

// ID derives symbol identity from (kind, position). Two records in one file
// never share a span, so this is unique within a FileMap.
func (s *Symbol) ID() string {
	return fmt.Sprintf("%s@%d:%d", s.Kind, s.Span.StartLine, s.Span.StartCol)
}

// ImportKind is the normalized statement-shape classification. When shapes
// overlap, precedence is Dynamic > Conditional > Relative > Wildcard >
// SelectiveMultiple > Aliased > Direct.
type ImportKind int

const (
	ImportDirect ImportKind = iota
	ImportAliased
	ImportRelative
	ImportWildcard
	ImportConditional
	ImportDynamic
	ImportSelectiveMultiple
)

var importKindNames = [...]string{
	ImportDirect:            "Direct",
	ImportAliased:           "Aliased",
	ImportRelative:          "Relative",
	ImportWildcard:          "Wildcard",
	ImportConditional:       "Conditional",
	ImportDynamic:           "Dynamic",
	ImportSelectiveMultiple: "SelectiveMultiple",
}

func (k ImportKind) String() string {
	if k < 0 || int(k) >= len(importKindNames) {
		return fmt.Sprintf("ImportKind(%d)", int(k))
	}
	return importKindNames[k]
}

func (k ImportKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Unresolved marks an import whose target cannot be determined statically
// (computed module names, runtime loaders). It is an outcome, not an error.
const Unresolved = "<unresolved>"

// ImportTarget is one imported name. Grouped statements expand to multiple
// targets under a single Import record.
type ImportTarget struct {
	Name     string `json:"name"`
	Alias    string `json:"alias,omitempty"`
	Wildcard bool   `json:"wildcard,omitempty"`
}

type Import struct {
	Raw           string         `json:"raw"`
	Kind          ImportKind     `json:"kind"`
	Module        string         `json:"module"`
	Resolved      string         `json:"resolved"`
	Targets       []ImportTarget `json:"targets,omitempty"`
	RelativeDepth int            `json:"relative_depth,omitempty"`
	ScopeID       string         `json:"scope_id,omitempty"`
	Guarded       bool           `json:"guarded,omitempty"`
	Span          Span           `json:"span"`
}

type DiagnosticKind int

const (
	DiagUnparseableFile DiagnosticKind = iota
	DiagDeclarationAnomaly
)

var diagnosticKindNames = [...]string{
	DiagUnparseableFile:    "UnparseableFile",
	DiagDeclarationAnomaly: "DeclarationAnomaly",
}

func (k DiagnosticKind) String() string {
	if k < 0 || int(k) >= len(diagnosticKindNames) {
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
	return diagnosticKindNames[k]
}

func (k DiagnosticKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Diagnostic records a non-fatal anomaly encountered while analyzing a file.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Span    Span           `json:"span"`
}

// FileMap is the complete analysis result for one source file. It is owned
// by the pass that produced it until handed to the project graph.
type FileMap struct {
	Path        string       `json:"path"`
	Language    string       `json:"language"`
	Symbols     []Symbol     `json:"symbols"`
	Imports     []Import     `json:"imports"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	AnalyzedAt  time.Time    `json:"-"`
}

// SymbolByID resolves a scope reference within this file, or nil.
func (f *FileMap) SymbolByID(id string) *Symbol {
	if id == "" {
		return nil
	}
	for i := range f.Symbols {
		if f.Symbols[i].ID() == id {
			return &f.Symbols[i]
		}
	}
	return nil
}

// EnclosingClass resolves a member symbol's scope chain to its class record,
// or nil when the symbol is not class-bound.
func (f *FileMap) EnclosingClass(sym *Symbol) *Symbol {
	scope := f.SymbolByID(sym.ScopeID)
	for scope != nil {
		if scope.Kind == KindClass {
			return scope
		}
		scope = f.SymbolByID(scope.ScopeID)
	}
	return nil
}
