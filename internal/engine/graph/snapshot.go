// # internal/engine/graph/snapshot.go
package graph

import (
	"sort"
	"time"

	"codemap/internal/engine/parser"
)

// Snapshot is the serializable projection of the graph handed to the
// JSON output and the HTTP API. Files and edges are sorted, so identical
// analysis input produces identical sequences.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Files       []parser.FileMap `json:"files"`
	Edges       []Edge           `json:"edges"`
	Cycles      [][]string       `json:"cycles,omitempty"`
}

func (g *Graph) Snapshot() Snapshot {
	cycles := g.DetectCycles()

	g.mu.RLock()
	defer g.mu.RUnlock()

	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make([]parser.FileMap, 0, len(paths))
	for _, p := range paths {
		files = append(files, *cloneFileMap(g.files[p]))
	}

	return Snapshot{
		GeneratedAt: time.Now().UTC(),
		Files:       files,
		Edges:       g.edgesLocked(false),
		Cycles:      cycles,
	}
}
