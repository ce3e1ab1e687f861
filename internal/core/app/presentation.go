package app

import (
	"fmt"
	"sort"
	"strings"

	"codemap/internal/core/ports"
	"codemap/internal/engine/graph"
)

// maxSummaryLines caps per-section detail lines in the terminal summary.
const maxSummaryLines = 10

// PrintSummary renders the one-shot terminal summary after a scan or a
// watch batch.
func (a *App) PrintSummary(req ports.SummaryPrintRequest) {
	snap := req.Snapshot
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Analyzed %d files (%d symbols, %d imports) in %v\n", snap.Files, snap.Symbols, snap.Imports, req.Duration)

	if len(snap.Cycles) > 0 {
		fmt.Printf("⚠️  FOUND %d IMPORT CYCLES:\n", len(snap.Cycles))
		for _, c := range snap.Cycles {
			fmt.Printf("   %s\n", strings.Join(c, " -> "))
		}
	} else {
		fmt.Println("✅ No import cycles found.")
	}

	if len(snap.Diagnostics) > 0 {
		fmt.Printf("⚠️  FOUND %d PARSE DIAGNOSTICS:\n", len(snap.Diagnostics))
		for i, d := range snap.Diagnostics {
			if i == maxSummaryLines {
				fmt.Printf("   ... and %d more\n", len(snap.Diagnostics)-maxSummaryLines)
				break
			}
			fmt.Printf("   %s %s:%d %s\n", d.Diagnostic.Kind, d.Path, d.Diagnostic.Span.StartLine, d.Diagnostic.Message)
		}
	} else {
		fmt.Println("✅ No parse diagnostics.")
	}

	if modules := externalImportModules(snap.Unresolved); len(modules) > 0 {
		fmt.Printf("📦 %d imports resolve outside the project: %s\n", len(snap.Unresolved), joinLimited(modules, 8))
	}

	metrics := a.Graph.Metrics()
	if len(metrics.PerFile) > 0 {
		topDepth := metricLeaders(metrics.PerFile, func(m graph.FileMetrics) int { return m.Depth }, 3, 1)
		topFanIn := metricLeaders(metrics.PerFile, func(m graph.FileMetrics) int { return m.FanIn }, 3, 1)
		topFanOut := metricLeaders(metrics.PerFile, func(m graph.FileMetrics) int { return m.FanOut }, 3, 1)

		if len(topDepth)+len(topFanIn)+len(topFanOut) > 0 {
			fmt.Println("📊 Dependency Metrics:")
			if len(topDepth) > 0 {
				fmt.Printf("   Deepest files: %s\n", strings.Join(topDepth, ", "))
			}
			if len(topFanIn) > 0 {
				fmt.Printf("   Highest fan-in: %s\n", strings.Join(topFanIn, ", "))
			}
			if len(topFanOut) > 0 {
				fmt.Printf("   Highest fan-out: %s\n", strings.Join(topFanOut, ", "))
			}
		}
	}
	fmt.Println(strings.Repeat("-", 40))
}

func externalImportModules(unresolved []ports.UnresolvedImport) []string {
	seen := make(map[string]bool, len(unresolved))
	modules := make([]string, 0, len(unresolved))
	for _, u := range unresolved {
		module := u.Import.Module
		if module == "" || seen[module] {
			continue
		}
		seen[module] = true
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

func joinLimited(values []string, limit int) string {
	if limit <= 0 || len(values) <= limit {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(values[:limit], ", "), len(values)-limit)
}

func metricLeaders(perFile map[string]graph.FileMetrics, value func(graph.FileMetrics) int, limit, minScore int) []string {
	type entry struct {
		name  string
		score int
	}
	entries := make([]entry, 0, len(perFile))
	for name, m := range perFile {
		score := value(m)
		if score < minScore {
			continue
		}
		entries = append(entries, entry{name: name, score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].name < entries[j].name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s(%d)", e.name, e.score))
	}
	return out
}
