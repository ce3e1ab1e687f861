// # internal/engine/resolver/java.go
package resolver

import (
	"path"
	"strings"

	"codemap/internal/engine/parser"
)

// resolveJava locates a fully qualified class by matching its package
// path against the tail of indexed file paths. Trailing segments are
// dropped one at a time so static member imports land on the declaring
// class file. Wildcard imports anchor on the package's package-info.java
// when present.
func (r *Resolver) resolveJava(imp parser.Import) (string, bool) {
	module := strings.TrimSuffix(strings.TrimSpace(imp.Module), ".*")
	if module == "" {
		return "", false
	}
	segs := strings.Split(module, ".")
	if wildcardImport(imp) {
		suffix := path.Join(append(segs, "package-info.java")...)
		if matches := r.index.FilesWithSuffix(suffix); len(matches) > 0 {
			return matches[0], true
		}
		return "", false
	}
	for end := len(segs); end >= 1; end-- {
		suffix := path.Join(segs[:end]...) + ".java"
		if matches := r.index.FilesWithSuffix(suffix); len(matches) > 0 {
			return matches[0], true
		}
	}
	return "", false
}

func wildcardImport(imp parser.Import) bool {
	for _, t := range imp.Targets {
		if t.Wildcard {
			return true
		}
	}
	return false
}
