// # internal/engine/resolver/python.go
package resolver

import (
	"path"
	"strings"

	"codemap/internal/engine/parser"
)

// pythonModuleName derives the dotted module path of a file. Directory
// prefixes without an __init__.py are not packages and drop out, so
// src/pkg/mod.py with a plain src/ directory becomes pkg.mod.
func (r *Resolver) pythonModuleName(from string) string {
	parts := strings.Split(from, "/")
	start := 0
	for i := 0; i < len(parts)-1; i++ {
		if r.index.Has(path.Join(path.Join(parts[:i+1]...), "__init__.py")) {
			break
		}
		start = i + 1
	}
	parts = parts[start:]
	last := strings.TrimSuffix(parts[len(parts)-1], ".py")
	if last == "__init__" {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = last
	}
	return strings.Join(parts, ".")
}

// pythonPackageRoot returns the directory holding the topmost package the
// file belongs to, or "." when the file sits outside any package.
func (r *Resolver) pythonPackageRoot(from string) string {
	parts := strings.Split(from, "/")
	start := 0
	for i := 0; i < len(parts)-1; i++ {
		if r.index.Has(path.Join(path.Join(parts[:i+1]...), "__init__.py")) {
			break
		}
		start = i + 1
	}
	if start == 0 {
		return "."
	}
	return path.Join(parts[:start]...)
}

func (r *Resolver) resolvePython(from string, imp parser.Import) (string, bool) {
	if imp.RelativeDepth > 0 {
		// level semantics: one dot is the containing package, each
		// further dot one parent up
		base := path.Dir(from)
		for hop := 1; hop < imp.RelativeDepth; hop++ {
			if base == "." || base == "/" {
				return "", false
			}
			base = path.Dir(base)
		}
		return r.probePythonModule(base, imp)
	}
	if imp.Module == "" {
		return "", false
	}
	for _, base := range r.pythonBases(from) {
		if p, ok := r.probePythonModule(base, imp); ok {
			return p, ok
		}
	}
	return "", false
}

// pythonBases lists candidate anchor directories for an absolute dotted
// path, nearest first: the importing file's package root, its own
// directory, then the project root.
func (r *Resolver) pythonBases(from string) []string {
	bases := []string{r.pythonPackageRoot(from)}
	for _, dir := range []string{path.Dir(from), "."} {
		seen := false
		for _, b := range bases {
			if b == dir {
				seen = true
				break
			}
		}
		if !seen {
			bases = append(bases, dir)
		}
	}
	return bases
}

// probePythonModule maps a dotted module under base to a file. Packages
// shadow same-named modules, and a lone imported name is tried as a
// submodule first so "from pkg import mod" lands on the module file
// rather than the package marker.
func (r *Resolver) probePythonModule(base string, imp parser.Import) (string, bool) {
	rel := strings.ReplaceAll(imp.Module, ".", "/")
	single := len(imp.Targets) == 1
	if single {
		if p, ok := r.probePythonTargets(base, rel, imp); ok {
			return p, ok
		}
	}
	if imp.Module != "" {
		if p := path.Join(base, rel, "__init__.py"); r.index.Has(p) {
			return p, true
		}
		if p := path.Join(base, rel+".py"); r.index.Has(p) {
			return p, true
		}
	}
	if !single {
		if p, ok := r.probePythonTargets(base, rel, imp); ok {
			return p, ok
		}
	}
	if imp.Module == "" {
		if p := path.Join(base, "__init__.py"); r.index.Has(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) probePythonTargets(base, rel string, imp parser.Import) (string, bool) {
	for _, t := range imp.Targets {
		if t.Wildcard || t.Name == "" || t.Name == imp.Module || strings.Contains(t.Name, ".") {
			continue
		}
		if p := path.Join(base, rel, t.Name, "__init__.py"); r.index.Has(p) {
			return p, true
		}
		if p := path.Join(base, rel, t.Name+".py"); r.index.Has(p) {
			return p, true
		}
	}
	return "", false
}

// pythonNormalize anchors a relative import to the importing file's
// package and returns the absolute dotted path. Hops past the top of the
// tree leave the module as written.
func (r *Resolver) pythonNormalize(from string, imp parser.Import) string {
	if imp.RelativeDepth == 0 {
		return imp.Module
	}
	dir := path.Dir(from)
	for hop := 1; hop < imp.RelativeDepth; hop++ {
		if dir == "." || dir == "/" {
			return imp.Module
		}
		dir = path.Dir(dir)
	}
	base := r.pythonModuleName(path.Join(dir, "__init__.py"))
	if base == "" {
		return imp.Module
	}
	if imp.Module == "" {
		return base
	}
	return base + "." + imp.Module
}
