// # internal/engine/resolver/resolver_test.go
package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"codemap/internal/engine/parser"
)

func testResolver(t *testing.T, files ...string) *Resolver {
	t.Helper()
	ix := NewIndex(t.TempDir())
	for _, f := range files {
		ix.Add(f)
	}
	return New(ix)
}

func TestPythonModuleName(t *testing.T) {
	r := testResolver(t,
		"src/auth/__init__.py",
		"src/auth/utils.py",
		"src/app.py",
		"tool.py",
	)

	tests := []struct {
		path     string
		expected string
	}{
		{"src/auth/utils.py", "auth.utils"},
		{"src/auth/__init__.py", "auth"},
		{"src/app.py", "app"},
		{"tool.py", "tool"},
	}
	for _, tt := range tests {
		if got := r.pythonModuleName(tt.path); got != tt.expected {
			t.Errorf("pythonModuleName(%s) = %s, expected %s", tt.path, got, tt.expected)
		}
	}
}

func TestResolvePythonRelative(t *testing.T) {
	r := testResolver(t,
		"pkg/__init__.py",
		"pkg/api.py",
		"pkg/sub/__init__.py",
		"pkg/sub/worker.py",
		"pkg/sub/util.py",
	)

	tests := []struct {
		name     string
		from     string
		imp      parser.Import
		expected string
		found    bool
	}{
		{
			name:     "same package sibling",
			from:     "pkg/sub/worker.py",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "util", RelativeDepth: 1, Targets: []parser.ImportTarget{{Name: "helper"}}},
			expected: "pkg/sub/util.py",
			found:    true,
		},
		{
			name:     "parent package",
			from:     "pkg/sub/worker.py",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "api", RelativeDepth: 2, Targets: []parser.ImportTarget{{Name: "serve"}}},
			expected: "pkg/api.py",
			found:    true,
		},
		{
			name:     "bare relative names a submodule",
			from:     "pkg/api.py",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "", RelativeDepth: 1, Targets: []parser.ImportTarget{{Name: "sub"}}},
			expected: "pkg/sub/__init__.py",
			found:    true,
		},
		{
			name:  "hop past the tree top",
			from:  "pkg/api.py",
			imp:   parser.Import{Kind: parser.ImportRelative, Module: "elsewhere", RelativeDepth: 3},
			found: false,
		},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.from, "python", tt.imp)
		if ok != tt.found {
			t.Errorf("%s: found = %v, expected %v", tt.name, ok, tt.found)
			continue
		}
		if ok && got != tt.expected {
			t.Errorf("%s: resolved to %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestResolvePythonAbsolute(t *testing.T) {
	r := testResolver(t,
		"src/pkg/__init__.py",
		"src/pkg/models.py",
		"src/pkg/db/__init__.py",
		"src/pkg/db/session.py",
		"scripts/gen.py",
	)

	tests := []struct {
		name     string
		from     string
		imp      parser.Import
		expected string
		found    bool
	}{
		{
			name:     "dotted path from package root",
			from:     "src/pkg/models.py",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "pkg.db.session", Targets: []parser.ImportTarget{{Name: "pkg.db.session"}}},
			expected: "src/pkg/db/session.py",
			found:    true,
		},
		{
			name:     "from pkg import submodule",
			from:     "src/pkg/models.py",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "pkg", Targets: []parser.ImportTarget{{Name: "db"}}},
			expected: "src/pkg/db/__init__.py",
			found:    true,
		},
		{
			name:     "package marker when several names are pulled",
			from:     "src/pkg/db/session.py",
			imp: parser.Import{Kind: parser.ImportSelectiveMultiple, Module: "pkg", Targets: []parser.ImportTarget{
				{Name: "a"}, {Name: "b"},
			}},
			expected: "src/pkg/__init__.py",
			found:    true,
		},
		{
			name:  "stdlib stays external",
			from:  "src/pkg/models.py",
			imp:   parser.Import{Kind: parser.ImportDirect, Module: "os.path", Targets: []parser.ImportTarget{{Name: "os.path"}}},
			found: false,
		},
		{
			name:  "script outside any package cannot see the package root",
			from:  "scripts/gen.py",
			imp:   parser.Import{Kind: parser.ImportDirect, Module: "does.not.exist"},
			found: false,
		},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.from, "python", tt.imp)
		if ok != tt.found {
			t.Errorf("%s: found = %v, expected %v", tt.name, ok, tt.found)
			continue
		}
		if ok && got != tt.expected {
			t.Errorf("%s: resolved to %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestResolveScript(t *testing.T) {
	r := testResolver(t,
		"web/src/app.ts",
		"web/src/lib/store.ts",
		"web/src/lib/index.ts",
		"web/src/util.js",
		"web/assets/site.css",
		"web/index.html",
	)

	tests := []struct {
		name     string
		from     string
		language string
		imp      parser.Import
		expected string
		found    bool
	}{
		{
			name:     "extension probing",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "./lib/store"},
			expected: "web/src/lib/store.ts",
			found:    true,
		},
		{
			name:     "directory index",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "./lib"},
			expected: "web/src/lib/index.ts",
			found:    true,
		},
		{
			name:     "js specifier for a ts source",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "./lib/store.js"},
			expected: "web/src/lib/store.ts",
			found:    true,
		},
		{
			name:     "parent hop",
			from:     "web/src/lib/store.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "../util"},
			expected: "web/src/util.js",
			found:    true,
		},
		{
			name:     "bare specifier is external",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "react"},
			found:    false,
		},
		{
			name:     "runtime scheme is external",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "node:fs"},
			found:    false,
		},
		{
			name:     "markup sibling reference",
			from:     "web/index.html",
			language: "html",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "assets/site.css"},
			expected: "web/assets/site.css",
			found:    true,
		},
		{
			name:     "markup url is external",
			from:     "web/index.html",
			language: "html",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "https://cdn.example.com/lib.js"},
			found:    false,
		},
		{
			name:     "query string is stripped",
			from:     "web/index.html",
			language: "html",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "assets/site.css?v=3"},
			expected: "web/assets/site.css",
			found:    true,
		},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.from, tt.language, tt.imp)
		if ok != tt.found {
			t.Errorf("%s: found = %v, expected %v", tt.name, ok, tt.found)
			continue
		}
		if ok && got != tt.expected {
			t.Errorf("%s: resolved to %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestResolveGo(t *testing.T) {
	root := t.TempDir()
	mod := []byte("module example.com/acme\n\ngo 1.24\n")
	if err := os.WriteFile(filepath.Join(root, "go.mod"), mod, 0o644); err != nil {
		t.Fatal(err)
	}

	ix := NewIndex(root)
	for _, f := range []string{
		"cmd/acme/main.go",
		"internal/graph/graph.go",
		"internal/graph/metrics.go",
		"internal/store/doc.go",
		"internal/store/sqlite.go",
		"internal/util/zz.go",
		"internal/util/aa.go",
	} {
		ix.Add(f)
	}
	r := New(ix)

	if r.GoModule() != "example.com/acme" {
		t.Fatalf("GoModule() = %q, expected example.com/acme", r.GoModule())
	}

	tests := []struct {
		name     string
		module   string
		expected string
		found    bool
	}{
		{"package named after directory", "example.com/acme/internal/graph", "internal/graph/graph.go", true},
		{"doc.go anchor", "example.com/acme/internal/store", "internal/store/doc.go", true},
		{"main.go anchor", "example.com/acme/cmd/acme", "cmd/acme/main.go", true},
		{"first source in sort order", "example.com/acme/internal/util", "internal/util/aa.go", true},
		{"third party stays external", "github.com/prometheus/client_golang/prometheus", "", false},
		{"missing package", "example.com/acme/internal/nothing", "", false},
	}
	for _, tt := range tests {
		imp := parser.Import{Kind: parser.ImportDirect, Module: tt.module, Resolved: tt.module}
		got, ok := r.Resolve("cmd/acme/main.go", "go", imp)
		if ok != tt.found {
			t.Errorf("%s: found = %v, expected %v", tt.name, ok, tt.found)
			continue
		}
		if ok && got != tt.expected {
			t.Errorf("%s: resolved to %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestResolveRust(t *testing.T) {
	r := testResolver(t,
		"src/main.rs",
		"src/graph.rs",
		"src/graph/node.rs",
		"src/store/mod.rs",
		"src/store/sqlite.rs",
	)

	tests := []struct {
		name     string
		from     string
		imp      parser.Import
		expected string
		found    bool
	}{
		{
			name:     "mod declaration to sibling file",
			from:     "src/main.rs",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "graph", Targets: []parser.ImportTarget{{Name: "graph"}}},
			expected: "src/graph.rs",
			found:    true,
		},
		{
			name:     "crate path drops the item segment",
			from:     "src/store/sqlite.rs",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "crate::graph::Graph", Targets: []parser.ImportTarget{{Name: "crate::graph::Graph"}}},
			expected: "src/graph.rs",
			found:    true,
		},
		{
			name:     "directory module layout",
			from:     "src/main.rs",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "crate::store", Targets: []parser.ImportTarget{{Name: "crate::store"}}},
			expected: "src/store/mod.rs",
			found:    true,
		},
		{
			name:     "self path reaches a child module",
			from:     "src/graph.rs",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "self::node", Targets: []parser.ImportTarget{{Name: "self::node"}}},
			expected: "src/graph/node.rs",
			found:    true,
		},
		{
			name:     "super from a directory module reaches its sibling",
			from:     "src/store/mod.rs",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "super::graph", RelativeDepth: 1, Targets: []parser.ImportTarget{{Name: "super::graph"}}},
			expected: "src/graph.rs",
			found:    true,
		},
		{
			name:     "double super climbs out of a nested file module",
			from:     "src/store/sqlite.rs",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "super::super::graph", RelativeDepth: 2, Targets: []parser.ImportTarget{{Name: "super::super::graph"}}},
			expected: "src/graph.rs",
			found:    true,
		},
		{
			name: "braced single target lands on the submodule",
			from: "src/main.rs",
			imp: parser.Import{Kind: parser.ImportDirect, Module: "crate::graph", Targets: []parser.ImportTarget{
				{Name: "node"},
			}},
			expected: "src/graph/node.rs",
			found:    true,
		},
		{
			name:  "external crate",
			from:  "src/main.rs",
			imp:   parser.Import{Kind: parser.ImportDirect, Module: "serde::Deserialize", Targets: []parser.ImportTarget{{Name: "serde::Deserialize"}}},
			found: false,
		},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.from, "rust", tt.imp)
		if ok != tt.found {
			t.Errorf("%s: found = %v, expected %v", tt.name, ok, tt.found)
			continue
		}
		if ok && got != tt.expected {
			t.Errorf("%s: resolved to %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestResolveJava(t *testing.T) {
	r := testResolver(t,
		"src/main/java/com/acme/app/Main.java",
		"src/main/java/com/acme/model/User.java",
		"src/main/java/com/acme/model/package-info.java",
	)

	tests := []struct {
		name     string
		imp      parser.Import
		expected string
		found    bool
	}{
		{
			name:     "fully qualified class",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "com.acme.model.User", Targets: []parser.ImportTarget{{Name: "com.acme.model.User"}}},
			expected: "src/main/java/com/acme/model/User.java",
			found:    true,
		},
		{
			name:     "static member drops the trailing segment",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "com.acme.model.User.of", Targets: []parser.ImportTarget{{Name: "com.acme.model.User.of"}}},
			expected: "src/main/java/com/acme/model/User.java",
			found:    true,
		},
		{
			name:     "wildcard anchors on package-info",
			imp:      parser.Import{Kind: parser.ImportWildcard, Module: "com.acme.model", Targets: []parser.ImportTarget{{Name: "*", Wildcard: true}}},
			expected: "src/main/java/com/acme/model/package-info.java",
			found:    true,
		},
		{
			name:  "jdk import stays external",
			imp:   parser.Import{Kind: parser.ImportDirect, Module: "java.util.List", Targets: []parser.ImportTarget{{Name: "java.util.List"}}},
			found: false,
		},
	}
	for _, tt := range tests {
		got, ok := r.Resolve("src/main/java/com/acme/app/Main.java", "java", tt.imp)
		if ok != tt.found {
			t.Errorf("%s: found = %v, expected %v", tt.name, ok, tt.found)
			continue
		}
		if ok && got != tt.expected {
			t.Errorf("%s: resolved to %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestDynamicImportNeverResolves(t *testing.T) {
	r := testResolver(t, "pkg/__init__.py", "pkg/plugin.py")

	imp := parser.Import{Kind: parser.ImportDynamic, Module: "", Resolved: parser.Unresolved}
	if _, ok := r.Resolve("pkg/plugin.py", "python", imp); ok {
		t.Error("dynamic import resolved to a file, expected unknown")
	}
	if got := r.NormalizeModule("pkg/plugin.py", "python", imp); got != parser.Unresolved {
		t.Errorf("NormalizeModule = %q, expected the unresolved sentinel", got)
	}
}

func TestNormalizeModule(t *testing.T) {
	r := testResolver(t,
		"pkg/__init__.py",
		"pkg/sub/__init__.py",
		"pkg/sub/worker.py",
		"web/src/app.ts",
		"web/src/lib/store.ts",
		"src/main.rs",
		"src/store/mod.rs",
		"src/store/sqlite.rs",
	)

	tests := []struct {
		name     string
		from     string
		language string
		imp      parser.Import
		expected string
	}{
		{
			name:     "python relative anchors to the package",
			from:     "pkg/sub/worker.py",
			language: "python",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "util", RelativeDepth: 1},
			expected: "pkg.sub.util",
		},
		{
			name:     "python parent hop",
			from:     "pkg/sub/worker.py",
			language: "python",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "api", RelativeDepth: 2},
			expected: "pkg.api",
		},
		{
			name:     "python absolute passes through",
			from:     "pkg/sub/worker.py",
			language: "python",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "os.path"},
			expected: "os.path",
		},
		{
			name:     "script relative becomes root relative",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "./lib/store"},
			expected: "web/src/lib/store",
		},
		{
			name:     "bare specifier passes through",
			from:     "web/src/app.ts",
			language: "typescript",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "react"},
			expected: "react",
		},
		{
			name:     "rust super becomes crate rooted",
			from:     "src/store/mod.rs",
			language: "rust",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "super::graph", RelativeDepth: 1},
			expected: "crate::graph",
		},
		{
			name:     "rust self becomes crate rooted",
			from:     "src/store/mod.rs",
			language: "rust",
			imp:      parser.Import{Kind: parser.ImportRelative, Module: "self::sqlite"},
			expected: "crate::store::sqlite",
		},
		{
			name:     "go path passes through",
			from:     "main.go",
			language: "go",
			imp:      parser.Import{Kind: parser.ImportDirect, Module: "example.com/acme/internal/graph"},
			expected: "example.com/acme/internal/graph",
		},
	}
	for _, tt := range tests {
		if got := r.NormalizeModule(tt.from, tt.language, tt.imp); got != tt.expected {
			t.Errorf("%s: NormalizeModule = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestIndexAddRemove(t *testing.T) {
	ix := NewIndex(t.TempDir())
	ix.Add("a/b.py")
	ix.Add("a/c.py")
	if !ix.Has("a/b.py") || !ix.Has("a/c.py") {
		t.Fatal("added files missing from the index")
	}
	if got := ix.Len(); got != 2 {
		t.Fatalf("Len() = %d, expected 2", got)
	}

	ix.Remove("a/b.py")
	if ix.Has("a/b.py") {
		t.Error("removed file still present")
	}
	if names := ix.DirFiles("a"); len(names) != 1 || names[0] != "c.py" {
		t.Errorf("DirFiles(a) = %v, expected [c.py]", names)
	}

	ix.Remove("a/c.py")
	if names := ix.DirFiles("a"); len(names) != 0 {
		t.Errorf("DirFiles(a) after removals = %v, expected none", names)
	}
}
