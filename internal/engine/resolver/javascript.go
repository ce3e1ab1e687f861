// # internal/engine/resolver/javascript.go
package resolver

import (
	"path"
	"strings"

	"codemap/internal/engine/parser"
)

var (
	scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
	styleExtensions  = []string{".css"}
	markupExtensions = []string{".css", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
)

// scriptRelative reports whether a specifier addresses the filesystem
// rather than a package or runtime builtin.
func scriptRelative(module string) bool {
	return module == "." || module == ".." ||
		strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../")
}

// externalSpecifier matches URLs and runtime-scheme specifiers that can
// never name a project file.
func externalSpecifier(module string) bool {
	return strings.Contains(module, "://") ||
		strings.HasPrefix(module, "//") ||
		strings.HasPrefix(module, "data:") ||
		strings.HasPrefix(module, "node:")
}

func (r *Resolver) resolveScript(from, language string, imp parser.Import) (string, bool) {
	module := imp.Module
	if module == "" || externalSpecifier(module) {
		return "", false
	}
	if i := strings.IndexAny(module, "?#"); i >= 0 {
		module = module[:i]
	}
	markup := language == "css" || language == "html"
	switch {
	case scriptRelative(module):
		return r.probeScript(path.Join(path.Dir(from), module), language)
	case strings.HasPrefix(module, "/"):
		// document-root reference; only meaningful in markup
		if markup {
			return r.probeScript(strings.TrimPrefix(module, "/"), language)
		}
	case markup:
		// plain src="app.js" resolves against the document like ./app.js
		return r.probeScript(path.Join(path.Dir(from), module), language)
	}
	return "", false
}

// probeScript tries the specifier as written, then with the standard
// extensions for the language, then as a directory with an index file.
// TypeScript emits .js specifiers for .ts sources, so a .js/.jsx miss
// retries the .ts/.tsx spelling.
func (r *Resolver) probeScript(target, language string) (string, bool) {
	if r.index.Has(target) {
		return target, true
	}
	if ext := path.Ext(target); ext == ".js" || ext == ".jsx" {
		stem := strings.TrimSuffix(target, ext)
		for _, alt := range []string{".ts", ".tsx"} {
			if r.index.Has(stem + alt) {
				return stem + alt, true
			}
		}
	}
	exts := scriptExtensions
	switch language {
	case "css":
		exts = styleExtensions
	case "html":
		exts = markupExtensions
	}
	for _, ext := range exts {
		if r.index.Has(target + ext) {
			return target + ext, true
		}
	}
	for _, ext := range exts {
		if p := path.Join(target, "index"+ext); r.index.Has(p) {
			return p, true
		}
	}
	return "", false
}

// scriptNormalize rewrites relative specifiers to root-relative paths;
// bare specifiers and URLs pass through.
func scriptNormalize(from string, imp parser.Import) string {
	if !scriptRelative(imp.Module) {
		return imp.Module
	}
	return path.Join(path.Dir(from), imp.Module)
}
