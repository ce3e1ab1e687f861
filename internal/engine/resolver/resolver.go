// # internal/engine/resolver/resolver.go
package resolver

import (
	"path/filepath"

	"codemap/internal/engine/parser"
)

// Resolver maps import records to project files. All lookups run against
// an Index of scanned paths, so resolution is deterministic and watch-mode
// re-links see the same world the scanner produced. A miss is an outcome,
// not an error: the graph draws an edge to its unknown node instead.
type Resolver struct {
	index    *Index
	goModule string
}

func New(index *Index) *Resolver {
	return &Resolver{
		index:    index,
		goModule: readGoModule(filepath.Join(index.Root(), "go.mod")),
	}
}

// GoModule reports the module path read from the project's go.mod, or ""
// when the scan root is not a Go module.
func (r *Resolver) GoModule() string {
	return r.goModule
}

// Resolve maps one import from the given file to a project file path. The
// second return is false when the target lives outside the scanned set:
// standard library, third party, URLs, and every dynamic form.
func (r *Resolver) Resolve(fromPath, language string, imp parser.Import) (string, bool) {
	if imp.Kind == parser.ImportDynamic || imp.Resolved == parser.Unresolved {
		return "", false
	}
	from := r.index.Normalize(fromPath)
	switch language {
	case "python":
		return r.resolvePython(from, imp)
	case "javascript", "typescript", "css", "html":
		return r.resolveScript(from, language, imp)
	case "go":
		return r.resolveGo(imp)
	case "rust":
		return r.resolveRust(from, imp)
	case "java":
		return r.resolveJava(imp)
	}
	return "", false
}

// NormalizeModule rewrites the best-effort module path recorded on an
// import, anchoring relative forms to the importing file's package so
// downstream consumers can compare module identities without re-deriving
// filesystem context. Non-relative forms pass through as written.
func (r *Resolver) NormalizeModule(fromPath, language string, imp parser.Import) string {
	if imp.Kind == parser.ImportDynamic || imp.Resolved == parser.Unresolved {
		return parser.Unresolved
	}
	from := r.index.Normalize(fromPath)
	switch language {
	case "python":
		return r.pythonNormalize(from, imp)
	case "javascript", "typescript", "css", "html":
		return scriptNormalize(from, imp)
	case "rust":
		return r.rustNormalize(from, imp)
	}
	return imp.Module
}
