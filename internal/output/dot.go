package output

import (
	"fmt"
	"strings"

	"codemap/internal/engine/graph"
)

// DOTGenerator renders the dependency graph in Graphviz DOT form. Project
// files sit in one cluster, external modules float outside it, and cycle
// members get the red treatment.
type DOTGenerator struct{}

func NewDOTGenerator() *DOTGenerator {
	return &DOTGenerator{}
}

func (g *DOTGenerator) Generate(snap graph.Snapshot) (string, error) {
	inCycle := cycleMembers(snap.Cycles)
	sameCycle := cycleEdgeFunc(snap.Cycles)
	externals := externalModules(snap.Edges)

	var b strings.Builder
	b.WriteString("digraph codemap {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=11];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=9, color=gray40];\n\n")

	b.WriteString("  subgraph cluster_project {\n")
	b.WriteString("    label=\"Project\";\n")
	b.WriteString("    style=filled;\n")
	b.WriteString("    color=whitesmoke;\n")
	for i := range snap.Files {
		file := &snap.Files[i]
		label := fmt.Sprintf("%s\\n%d symbols", escapeDOT(file.Path), len(file.Symbols))
		if inCycle[file.Path] {
			fmt.Fprintf(&b, "    %q [label=\"%s\", fillcolor=mistyrose, color=red, penwidth=2.0];\n", file.Path, label)
		} else {
			fmt.Fprintf(&b, "    %q [label=\"%s\", fillcolor=aliceblue];\n", file.Path, label)
		}
	}
	b.WriteString("  }\n\n")

	for _, module := range externals {
		fmt.Fprintf(&b, "  %q [label=%q, fillcolor=gainsboro, style=\"rounded,filled,dashed\"];\n",
			"ext:"+module, module)
	}
	if len(externals) > 0 {
		b.WriteString("\n")
	}

	seen := make(map[[2]string]bool, len(snap.Edges))
	for _, edge := range snap.Edges {
		if edge.To == graph.Unknown {
			target := "ext:" + edge.Import.Module
			pair := [2]string{edge.From, target}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			fmt.Fprintf(&b, "  %q -> %q [style=dashed, color=gray60];\n", edge.From, target)
			continue
		}
		pair := [2]string{edge.From, edge.To}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		if sameCycle(edge.From, edge.To) {
			fmt.Fprintf(&b, "  %q -> %q [color=red, penwidth=3.0, label=\"CYCLE\", fontcolor=red];\n", edge.From, edge.To)
		} else {
			fmt.Fprintf(&b, "  %q -> %q;\n", edge.From, edge.To)
		}
	}

	b.WriteString("\n  subgraph cluster_legend {\n")
	b.WriteString("    label=\"Legend\";\n")
	b.WriteString("    fontsize=10;\n")
	b.WriteString("    \"legend_project\" [label=\"project file\", fillcolor=aliceblue];\n")
	b.WriteString("    \"legend_cycle\" [label=\"cycle member\", fillcolor=mistyrose, color=red, penwidth=2.0];\n")
	b.WriteString("    \"legend_external\" [label=\"external module\", fillcolor=gainsboro, style=\"rounded,filled,dashed\"];\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String(), nil
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
