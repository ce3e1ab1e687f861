// # internal/engine/graph/metrics.go
package graph

// FileMetrics are the per-file aggregates reports and dashboards read.
// Depth is the longest chain of project-file imports reachable from the
// file, measured over the cycle-collapsed graph so cycles cannot make it
// unbounded.
type FileMetrics struct {
	FanIn        int `json:"fan_in"`
	FanOut       int `json:"fan_out"`
	Depth        int `json:"depth"`
	Symbols      int `json:"symbols"`
	Imports      int `json:"imports"`
	UnknownEdges int `json:"unknown_edges"`
	Diagnostics  int `json:"diagnostics"`
}

// Metrics is a point-in-time aggregate over the whole graph.
type Metrics struct {
	Files        int                    `json:"files"`
	Symbols      int                    `json:"symbols"`
	Imports      int                    `json:"imports"`
	Edges        int                    `json:"edges"`
	UnknownEdges int                    `json:"unknown_edges"`
	Diagnostics  int                    `json:"diagnostics"`
	PerFile      map[string]FileMetrics `json:"per_file"`
}

func (g *Graph) Metrics() Metrics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes, adjacency := g.adjacencyLocked()

	fanIn := make(map[string]int, len(nodes))
	fanOut := make(map[string]int, len(nodes))
	for _, from := range nodes {
		fanOut[from] = len(adjacency[from])
		for _, to := range adjacency[from] {
			fanIn[to]++
		}
	}

	componentOf, components := stronglyConnectedComponents(nodes, adjacency)
	componentEdges := make(map[int]map[int]bool, len(components))
	for _, from := range nodes {
		fromComp := componentOf[from]
		for _, to := range adjacency[from] {
			toComp := componentOf[to]
			if fromComp == toComp {
				continue
			}
			if componentEdges[fromComp] == nil {
				componentEdges[fromComp] = make(map[int]bool)
			}
			componentEdges[fromComp][toComp] = true
		}
	}

	depthByComp := make(map[int]int, len(components))
	var computeDepth func(int) int
	computeDepth = func(comp int) int {
		if depth, ok := depthByComp[comp]; ok {
			return depth
		}
		maxDepth := 0
		for next := range componentEdges[comp] {
			candidate := 1 + computeDepth(next)
			if candidate > maxDepth {
				maxDepth = candidate
			}
		}
		depthByComp[comp] = maxDepth
		return maxDepth
	}
	for comp := range components {
		computeDepth(comp)
	}

	m := Metrics{PerFile: make(map[string]FileMetrics, len(nodes))}
	for _, path := range nodes {
		fm := g.files[path]
		unknown := 0
		for _, e := range g.edges[path] {
			if e.To == Unknown {
				unknown++
			}
		}
		m.PerFile[path] = FileMetrics{
			FanIn:        fanIn[path],
			FanOut:       fanOut[path],
			Depth:        depthByComp[componentOf[path]],
			Symbols:      len(fm.Symbols),
			Imports:      len(fm.Imports),
			UnknownEdges: unknown,
			Diagnostics:  len(fm.Diagnostics),
		}
		m.Files++
		m.Symbols += len(fm.Symbols)
		m.Imports += len(fm.Imports)
		m.Edges += len(g.edges[path])
		m.UnknownEdges += unknown
		m.Diagnostics += len(fm.Diagnostics)
	}
	return m
}
