package history

import (
	"fmt"
	"math"
	"time"
)

// ComputeTrend derives per-run deltas and moving averages from runs
// ordered oldest first, as returned by Store.Trend.
func ComputeTrend(project string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs available for project %q", project)
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			Timestamp:   current.StartedAt,
			RunID:       current.ID,
			Files:       current.Files,
			Symbols:     current.Symbols,
			Imports:     current.Imports,
			Edges:       current.Edges,
			Unresolved:  current.Unresolved,
			Diagnostics: current.Diagnostics,
			Cycles:      current.Cycles,
		}

		if i > 0 {
			prev := runs[i-1]
			point.DeltaFiles = current.Files - prev.Files
			point.DeltaSymbols = current.Symbols - prev.Symbols
			point.DeltaImports = current.Imports - prev.Imports
			point.DeltaUnresolved = current.Unresolved - prev.Unresolved
			point.DeltaCycles = current.Cycles - prev.Cycles
			if prev.Files > 0 {
				point.FileGrowthPct = (float64(point.DeltaFiles) / float64(prev.Files)) * 100
			}
		}

		avgUnresolved, avgCycles := movingAverages(runs, i, window)
		point.AvgUnresolved = round2(avgUnresolved)
		point.AvgCycles = round2(avgCycles)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Project:       project,
		Since:         runs[0].StartedAt,
		Until:         runs[len(runs)-1].StartedAt,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverages(runs []Run, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(runs[index].Unresolved), float64(runs[index].Cycles)
	}

	cutoff := runs[index].StartedAt.Add(-window)
	var unresolvedTotal int
	var cyclesTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].StartedAt.Before(cutoff) {
			break
		}
		unresolvedTotal += runs[i].Unresolved
		cyclesTotal += runs[i].Cycles
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(unresolvedTotal) / float64(count), float64(cyclesTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
