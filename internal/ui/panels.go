package ui

import (
	"fmt"
	"strings"

	"codemap/internal/data/history"
)

func renderHelp(m model) string {
	keys := "Keys: tab panel | / filter | enter details | esc back | t trend overlay | j/k import cursor | o open source | q quit"
	if m.mode == panelIssues {
		keys = "Keys: tab panel | / filter | t trend overlay | q quit"
	}
	return statusStyle.Render(keys)
}

func renderFilePanel(m model) string {
	summary := m.fileList.View()
	details := renderFileSummary(m)
	if m.hasDetail {
		details = renderFileDetail(m)
	}
	return summary + "\n\n" + details
}

func renderFileSummary(m model) string {
	if len(m.files) == 0 {
		return statusStyle.Render("No files analyzed yet.")
	}
	idx := m.fileList.Index()
	if idx < 0 || idx >= len(m.files) {
		idx = 0
	}
	selected := m.files[idx]
	return strings.Join([]string{
		"Selected File",
		fmt.Sprintf("  Path: %s", selected.path),
		fmt.Sprintf("  Symbols: %d", selected.symbols),
		fmt.Sprintf("  Imports: %d", selected.imports),
		fmt.Sprintf("  Imported by: %d", selected.fanIn),
		fmt.Sprintf("  Depends on: %d", selected.fanOut),
		"  Press enter for symbol/import drill-down.",
	}, "\n")
}

func renderFileDetail(m model) string {
	if m.detailErr != "" {
		return cycleStyle.Render("File details error: " + m.detailErr)
	}
	d := m.detail
	lines := []string{
		fmt.Sprintf("File Detail: %s (%s)", d.file.Path, d.file.Language),
		fmt.Sprintf("  Symbols (%d):", len(d.file.Symbols)),
	}
	for _, sym := range d.file.Symbols {
		lines = append(lines, fmt.Sprintf("    %s %s line %d", sym.Kind, sym.Name, sym.Span.StartLine))
	}
	if len(d.file.Symbols) == 0 {
		lines = append(lines, "    none")
	}
	lines = append(lines, fmt.Sprintf("  Imports (%d):", len(d.file.Imports)))
	for i, imp := range d.file.Imports {
		prefix := "   "
		if i == m.selectedImport {
			prefix = " ->"
		}
		lines = append(lines, fmt.Sprintf("%s %s -> %s (line %d)", prefix, imp.Module, imp.Resolved, imp.Span.StartLine))
	}
	if len(d.file.Imports) == 0 {
		lines = append(lines, "    none")
	}
	lines = append(lines,
		fmt.Sprintf("  Imported by (%d): %s", len(d.importers), joinOrNone(d.importers)),
		fmt.Sprintf("  Reached from (%d): %s", len(d.dependents), joinOrNone(d.dependents)),
		"  Press esc to exit details, o to open the highlighted import.",
	)
	return strings.Join(lines, "\n")
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func renderTrendOverlay(report *history.TrendReport) string {
	if report == nil || len(report.Points) == 0 {
		return statusStyle.Render("Trend overlay unavailable (enable the database to capture runs).")
	}
	last := report.Points[len(report.Points)-1]
	return strings.Join([]string{
		"Trend Overlay",
		fmt.Sprintf("  Window: %s | Runs: %d", report.Window, report.RunCount),
		fmt.Sprintf("  File growth: %+d (%.2f%%)", last.DeltaFiles, last.FileGrowthPct),
		fmt.Sprintf("  Symbols delta: %+d | Imports delta: %+d", last.DeltaSymbols, last.DeltaImports),
		fmt.Sprintf("  Cycles delta: %+d (avg %.2f) | Unresolved delta: %+d (avg %.2f)",
			last.DeltaCycles, last.AvgCycles, last.DeltaUnresolved, last.AvgUnresolved),
	}, "\n")
}
