// # internal/engine/resolver/rust.go
package resolver

import (
	"path"
	"strings"

	"codemap/internal/engine/parser"
)

func (r *Resolver) resolveRust(from string, imp parser.Import) (string, bool) {
	module := strings.TrimSpace(imp.Module)
	if module == "" {
		return "", false
	}
	segs := strings.Split(module, "::")
	switch segs[0] {
	case "crate":
		return r.probeRustPath(r.rustCrateRoot(from), segs[1:], imp)
	case "self":
		return r.probeRustPath(rustModuleDir(from), segs[1:], imp)
	case "super":
		base := rustModuleDir(from)
		for len(segs) > 0 && segs[0] == "super" {
			if base == "." || base == "/" {
				return "", false
			}
			base = path.Dir(base)
			segs = segs[1:]
		}
		return r.probeRustPath(base, segs, imp)
	}
	// a plain path names a child of the current module (mod declarations,
	// 2018 submodule uses) or a crate-root item in pre-2018 style
	if p, ok := r.probeRustPath(rustModuleDir(from), segs, imp); ok {
		return p, ok
	}
	return r.probeRustPath(r.rustCrateRoot(from), segs, imp)
}

// rustModuleDir returns the directory holding the children of the module
// a file defines. Entry points and mod.rs own their directory; any other
// file owns the directory named after it.
func rustModuleDir(from string) string {
	dir := path.Dir(from)
	base := path.Base(from)
	switch base {
	case "lib.rs", "main.rs", "mod.rs":
		return dir
	}
	return path.Join(dir, strings.TrimSuffix(base, ".rs"))
}

// rustCrateRoot walks up from the file to the nearest directory holding a
// crate entry point, falling back to the file's own directory.
func (r *Resolver) rustCrateRoot(from string) string {
	dir := path.Dir(from)
	for {
		if r.index.Has(path.Join(dir, "lib.rs")) || r.index.Has(path.Join(dir, "main.rs")) {
			return dir
		}
		if dir == "." || dir == "/" {
			return path.Dir(from)
		}
		dir = path.Dir(dir)
	}
}

// probeRustPath walks path segments under base, accepting both the file
// module layout (a/b.rs) and the directory layout (a/b/mod.rs). Trailing
// segments may name items rather than modules, so the probe retries
// progressively shorter prefixes. A lone braced target is tried as a
// submodule first so "use a::{b}" lands on a/b.rs when it exists.
func (r *Resolver) probeRustPath(base string, segs []string, imp parser.Import) (string, bool) {
	single := len(imp.Targets) == 1
	if single {
		if p, ok := r.probeRustTargets(base, segs, imp); ok {
			return p, ok
		}
	}
	for end := len(segs); end >= 1; end-- {
		rel := path.Join(append([]string{base}, segs[:end]...)...)
		if p := rel + ".rs"; r.index.Has(p) {
			return p, true
		}
		if p := path.Join(rel, "mod.rs"); r.index.Has(p) {
			return p, true
		}
	}
	if !single {
		if p, ok := r.probeRustTargets(base, segs, imp); ok {
			return p, ok
		}
	}
	if len(segs) == 0 {
		// the path was all keywords: anchor on the module backing base
		if base != "." && base != "/" {
			if p := base + ".rs"; r.index.Has(p) {
				return p, true
			}
		}
		if p := path.Join(base, "mod.rs"); r.index.Has(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) probeRustTargets(base string, segs []string, imp parser.Import) (string, bool) {
	for _, t := range imp.Targets {
		if t.Wildcard || t.Name == "" || t.Name == "self" || t.Name == imp.Module {
			continue
		}
		parts := append(append([]string{base}, segs...), strings.Split(t.Name, "::")...)
		rel := path.Join(parts...)
		if p := rel + ".rs"; r.index.Has(p) {
			return p, true
		}
		if p := path.Join(rel, "mod.rs"); r.index.Has(p) {
			return p, true
		}
	}
	return "", false
}

// rustNormalize rewrites self/super paths as crate-rooted ones. Absolute
// and external paths pass through.
func (r *Resolver) rustNormalize(from string, imp parser.Import) string {
	module := strings.TrimSpace(imp.Module)
	segs := strings.Split(module, "::")
	if len(segs) == 0 || (segs[0] != "self" && segs[0] != "super") {
		return imp.Module
	}
	base := rustModuleDir(from)
	if segs[0] == "self" {
		segs = segs[1:]
	} else {
		for len(segs) > 0 && segs[0] == "super" {
			if base == "." || base == "/" {
				return imp.Module
			}
			base = path.Dir(base)
			segs = segs[1:]
		}
	}
	root := r.rustCrateRoot(from)
	var rel string
	switch {
	case base == root:
		rel = ""
	case root == "." || root == "":
		rel = base
	default:
		var ok bool
		rel, ok = strings.CutPrefix(base, root+"/")
		if !ok {
			return imp.Module
		}
	}
	parts := []string{"crate"}
	if rel != "" {
		parts = append(parts, strings.Split(rel, "/")...)
	}
	parts = append(parts, segs...)
	return strings.Join(parts, "::")
}
