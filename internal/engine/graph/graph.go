// # internal/engine/graph/graph.go
package graph

import (
	"sort"
	"sync"

	"codemap/internal/engine/parser"
	"codemap/internal/shared/observability"
)

// Unknown is the sentinel node for imports whose target is not part of
// the scanned project: standard library, third party, URLs, and every
// dynamically computed module. Edges to it are kept, never dropped.
const Unknown = "<unknown>"

// Linker resolves one import record to a project file, so the graph
// stays agnostic of per-language filesystem rules.
type Linker interface {
	Resolve(fromPath, language string, imp parser.Import) (string, bool)
	NormalizeModule(fromPath, language string, imp parser.Import) string
}

// Edge is one dependency induced by an import record. The import is a
// copy taken at link time, after module normalization.
type Edge struct {
	From   string        `json:"from"`
	To     string        `json:"to"`
	Import parser.Import `json:"import"`
}

// Graph holds the cross-file state of an analysis run: every FileMap
// plus the resolved dependency edges between them. All access goes
// through the lock, and FileMaps are cloned on the way in and out so
// callers never alias internal state.
type Graph struct {
	mu         sync.RWMutex
	files      map[string]*parser.FileMap
	edges      map[string][]Edge
	importedBy map[string]map[string]bool
}

func NewGraph() *Graph {
	return &Graph{
		files:      make(map[string]*parser.FileMap),
		edges:      make(map[string][]Edge),
		importedBy: make(map[string]map[string]bool),
	}
}

// AddFileMap installs or replaces a file's analysis result. Replacement
// removes every prior contribution first, so re-analysis of a changed
// file never leaves stale records behind.
func (g *Graph) AddFileMap(fm *parser.FileMap) {
	if fm == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.files[fm.Path]; exists {
		g.removeFileLocked(fm.Path)
	}
	g.files[fm.Path] = cloneFileMap(fm)
	g.updateGaugesLocked()
}

func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeFileLocked(path)
	g.updateGaugesLocked()
}

func (g *Graph) removeFileLocked(path string) {
	delete(g.files, path)
	for _, e := range g.edges[path] {
		g.dropReverseLocked(e.To, path)
	}
	delete(g.edges, path)
}

func (g *Graph) dropReverseLocked(to, from string) {
	peers := g.importedBy[to]
	if peers == nil {
		return
	}
	delete(peers, from)
	if len(peers) == 0 {
		delete(g.importedBy, to)
	}
}

// LinkFile recomputes the outgoing edges of one file against the current
// file set. Watch mode uses it for incremental re-links.
func (g *Graph) LinkFile(linker Linker, path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.linkFileLocked(linker, path)
	g.updateGaugesLocked()
}

// LinkAll recomputes every edge. It runs once the initial scan settles
// and after watch-mode batches, so edges always reflect the full set of
// scanned files.
func (g *Graph) LinkAll(linker Linker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for path := range g.files {
		g.linkFileLocked(linker, path)
	}
	g.updateGaugesLocked()
}

func (g *Graph) linkFileLocked(linker Linker, path string) {
	fm, ok := g.files[path]
	if !ok {
		return
	}
	for _, e := range g.edges[path] {
		g.dropReverseLocked(e.To, path)
	}

	edges := make([]Edge, 0, len(fm.Imports))
	for i := range fm.Imports {
		imp := &fm.Imports[i]
		imp.Resolved = linker.NormalizeModule(path, fm.Language, *imp)
		to, found := linker.Resolve(path, fm.Language, *imp)
		if !found {
			to = Unknown
		}
		edges = append(edges, Edge{From: path, To: to, Import: *imp})
		if g.importedBy[to] == nil {
			g.importedBy[to] = make(map[string]bool)
		}
		g.importedBy[to][path] = true
	}
	g.edges[path] = edges
}

func (g *Graph) FileCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.files)
}

// Files returns the sorted paths of every file in the graph.
func (g *Graph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (g *Graph) FileMap(path string) (*parser.FileMap, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fm, ok := g.files[path]
	if !ok {
		return nil, false
	}
	return cloneFileMap(fm), true
}

// AllFileMaps returns clones of every FileMap, sorted by path.
func (g *Graph) AllFileMaps() []*parser.FileMap {
	g.mu.RLock()
	defer g.mu.RUnlock()
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*parser.FileMap, 0, len(paths))
	for _, p := range paths {
		out = append(out, cloneFileMap(g.files[p]))
	}
	return out
}

// Edges returns every edge, ordered by importing file and then by the
// import's position in that file.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked(false)
}

// UnknownEdges returns the edges pointing at the unknown node, in the
// same order Edges uses.
func (g *Graph) UnknownEdges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked(true)
}

func (g *Graph) edgesLocked(unknownOnly bool) []Edge {
	froms := make([]string, 0, len(g.edges))
	for from := range g.edges {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	var out []Edge
	for _, from := range froms {
		for _, e := range g.edges[from] {
			if unknownOnly && e.To != Unknown {
				continue
			}
			out = append(out, e)
		}
	}
	return out
}

// Importers returns the files importing path directly, sorted.
func (g *Graph) Importers(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.importedBy[path]))
	for from := range g.importedBy[path] {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) updateGaugesLocked() {
	symbols := 0
	for _, fm := range g.files {
		symbols += len(fm.Symbols)
	}
	edgeCount, unknown := 0, 0
	for _, list := range g.edges {
		edgeCount += len(list)
		for _, e := range list {
			if e.To == Unknown {
				unknown++
			}
		}
	}
	observability.GraphNodes.Set(float64(len(g.files)))
	observability.GraphEdges.Set(float64(edgeCount))
	observability.SymbolsTotal.Set(float64(symbols))
	observability.UnresolvedImports.Set(float64(unknown))
}

func cloneFileMap(fm *parser.FileMap) *parser.FileMap {
	if fm == nil {
		return nil
	}
	c := *fm
	c.Symbols = append([]parser.Symbol(nil), fm.Symbols...)
	for i := range c.Symbols {
		if len(c.Symbols[i].Decorators) > 0 {
			c.Symbols[i].Decorators = append([]string(nil), c.Symbols[i].Decorators...)
		}
	}
	c.Imports = append([]parser.Import(nil), fm.Imports...)
	for i := range c.Imports {
		if len(c.Imports[i].Targets) > 0 {
			c.Imports[i].Targets = append([]parser.ImportTarget(nil), c.Imports[i].Targets...)
		}
	}
	c.Diagnostics = append([]parser.Diagnostic(nil), fm.Diagnostics...)
	return &c
}
