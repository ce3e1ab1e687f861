// # internal/engine/graph/detect.go
package graph

import "sort"

// DetectCycles returns every strongly connected component holding more
// than one file, plus lone files that import themselves. Components and
// the outer list are sorted so repeated runs report cycles identically.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes, adjacency := g.adjacencyLocked()
	_, components := stronglyConnectedComponents(nodes, adjacency)

	var cycles [][]string
	for _, comp := range components {
		if len(comp) > 1 {
			cycles = append(cycles, comp)
			continue
		}
		for _, to := range adjacency[comp[0]] {
			if to == comp[0] {
				cycles = append(cycles, comp)
				break
			}
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// Dependents returns every file that reaches path through import edges,
// directly or transitively, sorted. The file itself is excluded.
func (g *Graph) Dependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := map[string]bool{path: true}
	queue := []string{path}
	var out []string
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		importers := make([]string, 0, len(g.importedBy[curr]))
		for from := range g.importedBy[curr] {
			importers = append(importers, from)
		}
		sort.Strings(importers)

		for _, from := range importers {
			if seen[from] {
				continue
			}
			seen[from] = true
			out = append(out, from)
			queue = append(queue, from)
		}
	}
	sort.Strings(out)
	return out
}

// adjacencyLocked projects the edge set onto project files, dropping
// unknown-node edges and deduplicating targets. Node and target order is
// deterministic.
func (g *Graph) adjacencyLocked() ([]string, map[string][]string) {
	nodes := make([]string, 0, len(g.files))
	for path := range g.files {
		nodes = append(nodes, path)
	}
	sort.Strings(nodes)

	adjacency := make(map[string][]string, len(nodes))
	for _, from := range nodes {
		seen := make(map[string]bool)
		for _, e := range g.edges[from] {
			if e.To == Unknown {
				continue
			}
			if _, ok := g.files[e.To]; !ok {
				continue
			}
			seen[e.To] = true
		}
		targets := make([]string, 0, len(seen))
		for to := range seen {
			targets = append(targets, to)
		}
		sort.Strings(targets)
		adjacency[from] = targets
	}
	return nodes, adjacency
}

func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indexByNode := make(map[string]int, len(nodes))
	lowLink := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	components := make([][]string, 0)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indexByNode[v] = index
		lowLink[v] = index
		index++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexByNode[w]; !seen {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && indexByNode[w] < lowLink[v] {
				lowLink[v] = indexByNode[w]
			}
		}

		if lowLink[v] != indexByNode[v] {
			return
		}

		component := make([]string, 0)
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		compID := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = compID
		}
	}

	for _, node := range nodes {
		if _, seen := indexByNode[node]; !seen {
			strongConnect(node)
		}
	}

	return componentOf, components
}
