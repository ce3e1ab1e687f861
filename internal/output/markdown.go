package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"codemap/internal/engine/graph"
	"codemap/internal/engine/parser"
)

// MarkdownOptions carries report metadata that lives outside the snapshot.
type MarkdownOptions struct {
	ProjectName string
	Version     string
	GeneratedAt time.Time
}

// MarkdownGenerator renders the code map document: run overview, import
// cycles, the per-file symbol and import inventory, and the dependency
// edge tables. Output is deterministic for a given snapshot.
type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(snap graph.Snapshot, metrics graph.Metrics, opts MarkdownOptions) (string, error) {
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Code Map\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + generatedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")
	b.WriteString("# Code Map\n\n")

	m.writeOverview(&b, snap, metrics)
	m.writeCycles(&b, snap.Cycles)
	m.writeFiles(&b, snap.Files)
	m.writeDependencies(&b, snap.Edges)
	m.writeCoupling(&b, metrics)

	return b.String(), nil
}

func (m *MarkdownGenerator) writeOverview(b *strings.Builder, snap graph.Snapshot, metrics graph.Metrics) {
	b.WriteString("## Overview\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(b, "| Files | %d |\n", metrics.Files)
	fmt.Fprintf(b, "| Symbols | %d |\n", metrics.Symbols)
	fmt.Fprintf(b, "| Imports | %d |\n", metrics.Imports)
	fmt.Fprintf(b, "| Project edges | %d |\n", metrics.Edges-metrics.UnknownEdges)
	fmt.Fprintf(b, "| External imports | %d |\n", metrics.UnknownEdges)
	fmt.Fprintf(b, "| Parse diagnostics | %d |\n", metrics.Diagnostics)
	fmt.Fprintf(b, "| Import cycles | %d |\n\n", len(snap.Cycles))
}

func (m *MarkdownGenerator) writeCycles(b *strings.Builder, cycles [][]string) {
	b.WriteString("## Import Cycles\n\n")
	if len(cycles) == 0 {
		b.WriteString("No import cycles detected.\n\n")
		return
	}
	for i, cycle := range cycles {
		fmt.Fprintf(b, "%d. `%s`\n", i+1, strings.Join(cycle, " -> "))
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeFiles(b *strings.Builder, files []parser.FileMap) {
	b.WriteString("## Files\n\n")
	if len(files) == 0 {
		b.WriteString("No files analyzed.\n\n")
		return
	}
	for i := range files {
		m.writeFile(b, &files[i])
	}
}

func (m *MarkdownGenerator) writeFile(b *strings.Builder, file *parser.FileMap) {
	fmt.Fprintf(b, "### `%s`\n\n", file.Path)
	fmt.Fprintf(b, "Language: %s\n\n", file.Language)

	if len(file.Symbols) > 0 {
		b.WriteString("| Symbol | Kind | Modifiers | Decorators | Scope | Span |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for i := range file.Symbols {
			sym := &file.Symbols[i]
			fmt.Fprintf(b, "| `%s` | %s | %s | %s | %s | `%s` |\n",
				sym.Name, sym.Kind, modifierCell(sym.Modifiers),
				decoratorCell(sym.Decorators), scopeCell(file, sym), sym.Span)
		}
		b.WriteString("\n")
	}

	if len(file.Imports) > 0 {
		b.WriteString("| Import | Kind | Module | Resolved | Targets | Span |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for i := range file.Imports {
			imp := &file.Imports[i]
			fmt.Fprintf(b, "| `%s` | %s | `%s` | %s | %s | `%s` |\n",
				escapeCell(imp.Raw), importKindCell(imp), imp.Module,
				resolvedCell(imp.Resolved), targetsCell(imp.Targets), imp.Span)
		}
		b.WriteString("\n")
	}

	if len(file.Diagnostics) > 0 {
		b.WriteString("| Diagnostic | Message | Span |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, diag := range file.Diagnostics {
			fmt.Fprintf(b, "| %s | %s | `%s` |\n", diag.Kind, escapeCell(diag.Message), diag.Span)
		}
		b.WriteString("\n")
	}
}

func (m *MarkdownGenerator) writeDependencies(b *strings.Builder, edges []graph.Edge) {
	b.WriteString("## Dependencies\n\n")

	var project, external []graph.Edge
	for _, edge := range edges {
		if edge.To == graph.Unknown {
			external = append(external, edge)
		} else {
			project = append(project, edge)
		}
	}

	b.WriteString("### Project edges\n\n")
	if len(project) == 0 {
		b.WriteString("No project-internal dependencies detected.\n\n")
	} else {
		b.WriteString("| From | To | Import | Line |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, edge := range project {
			fmt.Fprintf(b, "| `%s` | `%s` | `%s` | %d |\n",
				edge.From, edge.To, edge.Import.Module, edge.Import.Span.StartLine)
		}
		b.WriteString("\n")
	}

	b.WriteString("### External imports\n\n")
	if len(external) == 0 {
		b.WriteString("No external imports detected.\n\n")
		return
	}
	b.WriteString("| From | Module | Kind | Line |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, edge := range external {
		fmt.Fprintf(b, "| `%s` | `%s` | %s | %d |\n",
			edge.From, edge.Import.Module, importKindCell(&edge.Import), edge.Import.Span.StartLine)
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeCoupling(b *strings.Builder, metrics graph.Metrics) {
	if len(metrics.PerFile) == 0 {
		return
	}
	fanIn := metricLeaders(metrics.PerFile, func(fm graph.FileMetrics) int { return fm.FanIn }, 3)
	fanOut := metricLeaders(metrics.PerFile, func(fm graph.FileMetrics) int { return fm.FanOut }, 3)
	depth := metricLeaders(metrics.PerFile, func(fm graph.FileMetrics) int { return fm.Depth }, 3)
	if len(fanIn) == 0 && len(fanOut) == 0 && len(depth) == 0 {
		return
	}

	b.WriteString("## Coupling\n\n")
	if len(fanIn) > 0 {
		b.WriteString("- Highest fan-in: " + strings.Join(fanIn, ", ") + "\n")
	}
	if len(fanOut) > 0 {
		b.WriteString("- Highest fan-out: " + strings.Join(fanOut, ", ") + "\n")
	}
	if len(depth) > 0 {
		b.WriteString("- Deepest dependency chains: " + strings.Join(depth, ", ") + "\n")
	}
	b.WriteString("\n")
}

// metricLeaders returns up to limit "`path` (value)" entries sorted by
// value descending, path ascending. Zero values are skipped.
func metricLeaders(perFile map[string]graph.FileMetrics, value func(graph.FileMetrics) int, limit int) []string {
	type entry struct {
		path  string
		value int
	}
	entries := make([]entry, 0, len(perFile))
	for path, fm := range perFile {
		if v := value(fm); v > 0 {
			entries = append(entries, entry{path: path, value: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value > entries[j].value
		}
		return entries[i].path < entries[j].path
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	leaders := make([]string, 0, len(entries))
	for _, e := range entries {
		leaders = append(leaders, fmt.Sprintf("`%s` (%d)", e.path, e.value))
	}
	return leaders
}

func modifierCell(mods parser.Modifier) string {
	names := mods.Names()
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func decoratorCell(decorators []string) string {
	if len(decorators) == 0 {
		return "-"
	}
	cells := make([]string, 0, len(decorators))
	for _, dec := range decorators {
		cells = append(cells, "`@"+escapeCell(dec)+"`")
	}
	return strings.Join(cells, ", ")
}

func scopeCell(file *parser.FileMap, sym *parser.Symbol) string {
	if sym.ScopeID == "" {
		return "-"
	}
	if parent := file.SymbolByID(sym.ScopeID); parent != nil {
		return "`" + parent.Name + "`"
	}
	return "-"
}

func importKindCell(imp *parser.Import) string {
	if imp.Guarded {
		return imp.Kind.String() + " (guarded)"
	}
	return imp.Kind.String()
}

func resolvedCell(resolved string) string {
	if resolved == "" {
		return "-"
	}
	return "`" + resolved + "`"
}

func targetsCell(targets []parser.ImportTarget) string {
	if len(targets) == 0 {
		return "-"
	}
	cells := make([]string, 0, len(targets))
	for _, t := range targets {
		switch {
		case t.Wildcard:
			cells = append(cells, "`*`")
		case t.Alias != "":
			cells = append(cells, fmt.Sprintf("`%s` as `%s`", t.Name, t.Alias))
		default:
			cells = append(cells, "`"+t.Name+"`")
		}
	}
	return strings.Join(cells, ", ")
}

// escapeCell keeps raw source text from breaking markdown table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
