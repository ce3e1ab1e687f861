// # internal/engine/parser/adapter.go
package parser

import (
	"fmt"
	"sort"
	"strings"

	"codemap/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Extractor is the per-language grammar adapter. Extract walks a parsed tree
// and returns the file's symbol and import records; it never fails on
// malformed declarations, only on contract violations (nil root).
type Extractor interface {
	Language() string
	Capabilities() Capabilities
	Extract(root *sitter.Node, source []byte, path string) (*FileMap, error)
}

// Capabilities declares how an adapter maps its grammar onto the normalized
// vocabulary. Marker decorators classify members position-independently by
// normalized name; the core never hard-codes per-language names.
type Capabilities struct {
	ClassMethodMarkers  []string
	StaticMethodMarkers []string
	ConstructorNames    []string
}

// classifierTable resolves a normalized marker name to the member kind it
// selects. Built once at adapter construction.
type classifierTable map[string]SymbolKind

// buildClassifierTable validates and indexes marker decorators. A name
// claimed by both the classmethod and staticmethod sets is a configuration
// error, surfaced at registration rather than resolved by precedence.
func buildClassifierTable(caps Capabilities) (classifierTable, error) {
	table := make(classifierTable, len(caps.ClassMethodMarkers)+len(caps.StaticMethodMarkers))
	for _, marker := range caps.ClassMethodMarkers {
		name := NormalizeMarker(marker)
		if name == "" {
			continue
		}
		table[name] = KindClassMethod
	}
	for _, marker := range caps.StaticMethodMarkers {
		name := NormalizeMarker(marker)
		if name == "" {
			continue
		}
		if existing, ok := table[name]; ok && existing != KindStaticMethod {
			return nil, errors.New(errors.CodeValidationError,
				fmt.Sprintf("marker %q claimed by both ClassMethod and StaticMethod", name))
		}
		table[name] = KindStaticMethod
	}
	return table, nil
}

// classify returns the member kind selected by the decorator list, checking
// every slot, plus whether any non-classifying decorator remains. Marker
// recognition is order-independent.
func (t classifierTable) classify(decorators []string) (kind SymbolKind, classified bool, plain bool) {
	kind = KindMethod
	for _, dec := range decorators {
		if selected, ok := t[NormalizeMarker(dec)]; ok {
			kind = selected
			classified = true
		} else {
			plain = true
		}
	}
	return kind, classified, plain
}

// NormalizeMarker reduces a decorator expression to its comparable name:
// sigils, call arguments, and qualifier prefixes are stripped, so
// "@functools.lru_cache(maxsize=2)" normalizes to "lru_cache".
func NormalizeMarker(decorator string) string {
	name := strings.TrimSpace(decorator)
	name = strings.TrimPrefix(name, "@")
	if idx := strings.IndexAny(name, "(\n"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(name)
}

// constructorSet indexes constructor-equivalent member names.
func constructorSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[name] = true
	}
	return set
}

// Registry holds the registered grammar adapters for one analyzer instance.
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register validates an adapter's capability table and adds it. Registering
// the same language twice is a conflict.
func (r *Registry) Register(ext Extractor) error {
	lang := strings.TrimSpace(ext.Language())
	if lang == "" {
		return errors.New(errors.CodeValidationError, "adapter has no language id")
	}
	if _, exists := r.extractors[lang]; exists {
		return errors.New(errors.CodeConflict,
			fmt.Sprintf("adapter for language %q already registered", lang))
	}
	if _, err := buildClassifierTable(ext.Capabilities()); err != nil {
		return errors.AddContext(err, errors.CtxLanguage, lang)
	}
	r.extractors[lang] = ext
	return nil
}

func (r *Registry) Get(language string) (Extractor, bool) {
	ext, ok := r.extractors[language]
	return ext, ok
}

func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.extractors))
	for lang := range r.extractors {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
