package app

import (
	"os"
	"path/filepath"
	"testing"

	"codemap/internal/core/config"
	"codemap/internal/engine/graph"
)

func writeTestFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestApp(t *testing.T, files map[string]string) *App {
	t.Helper()
	root := t.TempDir()
	writeTestFiles(t, root, files)

	cfg := config.Default()
	cfg.Project = "demo"
	cfg.ScanRoots = []string{root}
	cfg.Paths.ProjectRoot = root
	paths, err := config.ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}

	a, err := New(cfg, paths)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func analyzeAll(t *testing.T, a *App) []string {
	t.Helper()
	files, err := a.ScanDirectories(a.Paths.ScanRoots, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := a.AnalyzeFile(f); err != nil {
			t.Fatalf("analyze %s: %v", f, err)
		}
	}
	a.Relink()
	return files
}

func TestScanDirectoriesSkipsExcludedAndTestFiles(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py":                    "import b\n",
		"b.py":                    "def helper():\n    pass\n",
		"b_test.py":               "def test_helper():\n    pass\n",
		"node_modules/dep.py":     "def dep():\n    pass\n",
		"notes.txt":               "not source\n",
		"docs/codemap/codemap.md": "# generated artifact\n",
	})

	files, err := a.ScanDirectories(a.Paths.ScanRoots, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	for _, f := range files {
		base := filepath.Base(f)
		if base != "a.py" && base != "b.py" {
			t.Errorf("unexpected file scanned: %s", f)
		}
	}
}

func TestAnalyzeFileBuildsGraphEdges(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py": "import b\n\ndef run():\n    pass\n",
		"b.py": "def helper():\n    pass\n",
	})
	analyzeAll(t, a)

	paths := a.Graph.Files()
	if len(paths) != 2 || paths[0] != "a.py" || paths[1] != "b.py" {
		t.Fatalf("unexpected graph files: %v", paths)
	}

	found := false
	for _, edge := range a.Graph.Edges() {
		if edge.From == "a.py" && edge.To == "b.py" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected edge a.py -> b.py, got %v", a.Graph.Edges())
	}
}

func TestRemoveFileTurnsEdgesUnknown(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "def helper():\n    pass\n",
	})
	analyzeAll(t, a)

	a.RemoveFile("b.py")
	a.Relink()

	if got := a.Graph.FileCount(); got != 1 {
		t.Fatalf("expected 1 file after removal, got %d", got)
	}
	edges := a.Graph.Edges()
	if len(edges) != 1 || edges[0].To != graph.Unknown {
		t.Fatalf("expected a.py edge to become unknown, got %v", edges)
	}
}

func TestParseCacheSkipsUnchangedContent(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py": "def one():\n    pass\n",
	})
	abs := filepath.Join(a.Paths.ProjectRoot, "a.py")

	if err := a.AnalyzeFile(abs); err != nil {
		t.Fatal(err)
	}
	first, ok := a.parseCache.Get("a.py")
	if !ok {
		t.Fatal("expected parse cache entry after analysis")
	}

	if err := a.AnalyzeFile(abs); err != nil {
		t.Fatal(err)
	}
	second, _ := a.parseCache.Get("a.py")
	if first.file != second.file {
		t.Fatal("expected unchanged content to reuse the cached parse")
	}

	if err := os.WriteFile(abs, []byte("def one():\n    pass\n\ndef two():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.AnalyzeFile(abs); err != nil {
		t.Fatal(err)
	}
	third, _ := a.parseCache.Get("a.py")
	if third.file == first.file {
		t.Fatal("expected changed content to be re-parsed")
	}
	fm, ok := a.Graph.FileMap("a.py")
	if !ok || len(fm.Symbols) != 2 {
		t.Fatalf("expected 2 symbols after re-analysis, got %+v", fm)
	}
}

func TestParseCacheRestoresRemovedFile(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py": "def one():\n    pass\n",
	})
	abs := filepath.Join(a.Paths.ProjectRoot, "a.py")
	if err := a.AnalyzeFile(abs); err != nil {
		t.Fatal(err)
	}

	a.RemoveFile("a.py")
	if a.Graph.FileCount() != 0 {
		t.Fatal("expected empty graph after removal")
	}

	// Same content re-added: the entry was evicted with the file, so the
	// graph must be repopulated either way.
	if err := a.AnalyzeFile(abs); err != nil {
		t.Fatal(err)
	}
	if a.Graph.FileCount() != 1 {
		t.Fatal("expected file back in graph after re-analysis")
	}
}

func TestHandleChangesAppliesBatch(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "def helper():\n    pass\n",
	})
	analyzeAll(t, a)

	var got Update
	a.SetUpdateHandler(func(u Update) { got = u })

	absB := filepath.Join(a.Paths.ProjectRoot, "b.py")
	if err := os.Remove(absB); err != nil {
		t.Fatal(err)
	}
	a.HandleChanges([]string{absB})

	if got.Files != 1 {
		t.Fatalf("expected update with 1 file, got %d", got.Files)
	}
	if got.Unresolved != 1 {
		t.Fatalf("expected 1 unresolved edge after removal, got %d", got.Unresolved)
	}
	if len(got.Changed) != 1 || got.Changed[0] != "b.py" {
		t.Fatalf("expected changed [b.py], got %v", got.Changed)
	}
	if got.At.IsZero() {
		t.Fatal("expected update timestamp")
	}
}

func TestGenerateOutputsWritesConfiguredFormats(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "def helper():\n    pass\n",
	})
	a.Config.Output.Mermaid = "codemap.mmd"
	a.Config.Output.JSON = "codemap.json"
	analyzeAll(t, a)

	written, err := a.GenerateOutputs()
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 outputs (markdown, mermaid, json), got %v", written)
	}
	for _, path := range written {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected output %s on disk: %v", path, err)
		}
	}
}

func TestRegisterConfiguredExtractorsAcceptsMarkers(t *testing.T) {
	root := t.TempDir()
	writeTestFiles(t, root, map[string]string{
		"svc.py": "class Service:\n    @injected\n    def build(cls):\n        pass\n",
	})

	cfg := config.Default()
	cfg.ScanRoots = []string{root}
	cfg.Paths.ProjectRoot = root
	cfg.Languages = map[string]config.Language{
		"python": {ClassMethodMarkers: []string{"injected"}},
	}
	paths, err := config.ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(cfg, paths)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.AnalyzeFile(filepath.Join(root, "svc.py")); err != nil {
		t.Fatal(err)
	}
	fm, ok := a.Graph.FileMap("svc.py")
	if !ok {
		t.Fatal("expected svc.py in graph")
	}
	for _, sym := range fm.Symbols {
		if sym.Name == "build" {
			if sym.Kind.String() != "ClassMethod" {
				t.Fatalf("expected build classified as ClassMethod via configured marker, got %s", sym.Kind)
			}
			return
		}
	}
	t.Fatal("build symbol not found")
}
