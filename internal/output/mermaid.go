package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"codemap/internal/engine/graph"
)

// externalAggregationThreshold caps how many distinct external modules get
// individual nodes before they collapse into one aggregate node.
const externalAggregationThreshold = 10

// MermaidGenerator renders the dependency graph as a Mermaid flowchart.
// Project files and external modules get separate node styles, cycle
// members and cycle edges are highlighted.
type MermaidGenerator struct{}

func NewMermaidGenerator() *MermaidGenerator {
	return &MermaidGenerator{}
}

type mermaidNode struct {
	key   string
	label string
}

func (g *MermaidGenerator) Generate(snap graph.Snapshot) (string, error) {
	filePaths := make([]string, 0, len(snap.Files))
	for i := range snap.Files {
		filePaths = append(filePaths, snap.Files[i].Path)
	}
	externals := externalModules(snap.Edges)
	aggregated := len(externals) > externalAggregationThreshold

	nodes := make([]mermaidNode, 0, len(filePaths)+len(externals)+4)
	for _, path := range filePaths {
		nodes = append(nodes, mermaidNode{key: fileKey(path), label: path})
	}
	if aggregated {
		nodes = append(nodes, mermaidNode{key: aggregateKey, label: "external modules"})
	} else {
		for _, module := range externals {
			nodes = append(nodes, mermaidNode{key: externalKey(module), label: module})
		}
	}
	nodes = append(nodes,
		mermaidNode{key: "legend:project", label: "project file"},
		mermaidNode{key: "legend:external", label: "external module"},
		mermaidNode{key: "legend:cycle", label: "cycle member"},
	)
	ids := makeNodeIDs(nodes)

	inCycle := cycleMembers(snap.Cycles)
	sameCycle := cycleEdgeFunc(snap.Cycles)

	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 50, 'rankSpacing': 80, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	for _, path := range filePaths {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", ids[fileKey(path)], escapeMermaidLabel(path))
	}
	if aggregated {
		fmt.Fprintf(&b, "  %s([\"%d external modules\"])\n", ids[aggregateKey], len(externals))
	} else {
		for _, module := range externals {
			fmt.Fprintf(&b, "  %s([\"%s\"])\n", ids[externalKey(module)], escapeMermaidLabel(module))
		}
	}

	var cycleLinks []int
	link := 0
	seen := make(map[[2]string]bool, len(snap.Edges))
	for _, edge := range snap.Edges {
		if edge.To == graph.Unknown {
			targetKey := externalKey(edge.Import.Module)
			if aggregated {
				targetKey = aggregateKey
			}
			pair := [2]string{fileKey(edge.From), targetKey}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			fmt.Fprintf(&b, "  %s -.-> %s\n", ids[fileKey(edge.From)], ids[targetKey])
			link++
			continue
		}
		pair := [2]string{fileKey(edge.From), fileKey(edge.To)}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		if sameCycle(edge.From, edge.To) {
			fmt.Fprintf(&b, "  %s -->|CYCLE| %s\n", ids[fileKey(edge.From)], ids[fileKey(edge.To)])
			cycleLinks = append(cycleLinks, link)
		} else {
			fmt.Fprintf(&b, "  %s --> %s\n", ids[fileKey(edge.From)], ids[fileKey(edge.To)])
		}
		link++
	}

	b.WriteString("  subgraph legend[\"Legend\"]\n")
	b.WriteString("    direction LR\n")
	fmt.Fprintf(&b, "    %s[\"project file\"]\n", ids["legend:project"])
	fmt.Fprintf(&b, "    %s([\"external module\"])\n", ids["legend:external"])
	fmt.Fprintf(&b, "    %s[\"cycle member\"]\n", ids["legend:cycle"])
	b.WriteString("  end\n")

	projectIDs := []string{}
	cycleIDs := []string{}
	for _, path := range filePaths {
		if inCycle[path] {
			cycleIDs = append(cycleIDs, ids[fileKey(path)])
		} else {
			projectIDs = append(projectIDs, ids[fileKey(path)])
		}
	}
	projectIDs = append(projectIDs, ids["legend:project"])
	cycleIDs = append(cycleIDs, ids["legend:cycle"])
	externalIDs := []string{ids["legend:external"]}
	if aggregated {
		externalIDs = append(externalIDs, ids[aggregateKey])
	} else {
		for _, module := range externals {
			externalIDs = append(externalIDs, ids[externalKey(module)])
		}
	}

	b.WriteString("  classDef projectNode fill:#e8f0fe,stroke:#3b5bdb,color:#1b1f23\n")
	b.WriteString("  classDef externalNode fill:#f1f3f5,stroke:#868e96,color:#495057,stroke-dasharray: 3 3\n")
	b.WriteString("  classDef cycleNode fill:#ffe3e3,stroke:#c92a2a,color:#1b1f23\n")
	fmt.Fprintf(&b, "  class %s projectNode\n", strings.Join(projectIDs, ","))
	fmt.Fprintf(&b, "  class %s externalNode\n", strings.Join(externalIDs, ","))
	fmt.Fprintf(&b, "  class %s cycleNode\n", strings.Join(cycleIDs, ","))
	if len(cycleLinks) > 0 {
		fmt.Fprintf(&b, "  linkStyle %s stroke:#c92a2a,stroke-width:3px\n", joinInts(cycleLinks))
	}

	return b.String(), nil
}

const aggregateKey = "ext:<aggregate>"

func fileKey(path string) string     { return "file:" + path }
func externalKey(name string) string { return "ext:" + name }

// externalModules returns the sorted distinct module names behind
// unresolved edges.
func externalModules(edges []graph.Edge) []string {
	set := make(map[string]bool)
	for _, edge := range edges {
		if edge.To == graph.Unknown {
			set[edge.Import.Module] = true
		}
	}
	modules := make([]string, 0, len(set))
	for module := range set {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

func cycleMembers(cycles [][]string) map[string]bool {
	members := make(map[string]bool)
	for _, cycle := range cycles {
		for _, path := range cycle {
			members[path] = true
		}
	}
	return members
}

// cycleEdgeFunc reports whether two files belong to the same cycle
// component. Every edge inside a component lies on at least one cycle.
func cycleEdgeFunc(cycles [][]string) func(from, to string) bool {
	component := make(map[string]int)
	for i, cycle := range cycles {
		for _, path := range cycle {
			component[path] = i + 1
		}
	}
	return func(from, to string) bool {
		c := component[from]
		return c != 0 && c == component[to]
	}
}

// makeNodeIDs assigns a unique diagram id to every node, derived from its
// label. Assignment order is the node order, so ids are stable for a
// given snapshot.
func makeNodeIDs(nodes []mermaidNode) map[string]string {
	ids := make(map[string]string, len(nodes))
	used := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		id := sanitizeNodeID(n.label)
		base := id
		for i := 2; used[id]; i++ {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		used[id] = true
		ids[n.key] = id
	}
	return ids
}

func sanitizeNodeID(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	id := strings.Trim(sb.String(), "_")
	if id == "" {
		id = "n"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "m_" + id
	}
	return id
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}
