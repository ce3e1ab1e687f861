// # internal/engine/resolver/golang.go
package resolver

import (
	"os"
	"path"
	"regexp"
	"strings"

	"codemap/internal/engine/parser"
)

var goModuleDirective = regexp.MustCompile(`(?m)^module\s+(\S+)`)

// readGoModule extracts the module path from a go.mod, or "" when the
// file is absent or carries no module directive.
func readGoModule(modPath string) string {
	data, err := os.ReadFile(modPath)
	if err != nil {
		return ""
	}
	m := goModuleDirective.FindSubmatch(data)
	if len(m) < 2 {
		return ""
	}
	return string(m[1])
}

// resolveGo maps a same-module import path to its package directory and
// anchors the edge on one file of that package: the file named after the
// directory, then doc.go, then main.go, then the first source file in
// sort order. Paths outside the module are external.
func (r *Resolver) resolveGo(imp parser.Import) (string, bool) {
	if r.goModule == "" {
		return "", false
	}
	var dir string
	switch {
	case imp.Module == r.goModule:
		dir = "."
	case strings.HasPrefix(imp.Module, r.goModule+"/"):
		dir = strings.TrimPrefix(imp.Module, r.goModule+"/")
	default:
		return "", false
	}
	return r.goPackageFile(dir)
}

func (r *Resolver) goPackageFile(dir string) (string, bool) {
	names := r.index.DirFiles(dir)
	set := make(map[string]bool, len(names))
	var sources []string
	for _, n := range names {
		if strings.HasSuffix(n, ".go") && !strings.HasSuffix(n, "_test.go") {
			set[n] = true
			sources = append(sources, n)
		}
	}
	if len(sources) == 0 {
		return "", false
	}
	for _, name := range []string{path.Base(dir) + ".go", "doc.go", "main.go"} {
		if set[name] {
			return path.Join(dir, name), true
		}
	}
	return path.Join(dir, sources[0]), true
}
