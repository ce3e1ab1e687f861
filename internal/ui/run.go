package ui

import (
	"context"

	"codemap/internal/core/ports"
	"codemap/internal/data/history"
	"codemap/internal/shared/util"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives the dashboard until the user quits. The watch service must
// already be started; updates arrive through its subscription.
func Run(ctx context.Context, svc ports.AnalysisService, trend *history.TrendReport) error {
	m := initialModel(svc, trend)
	p := tea.NewProgram(m, tea.WithAltScreen())

	sendUpdate := func() {
		summary, err := svc.SummarySnapshot(ctx)
		if err != nil {
			return
		}
		p.Send(updateMsg{summary: summary, files: buildFileRows(ctx, svc)})
	}

	if err := svc.WatchService().Subscribe(ctx, func(ports.WatchUpdate) {
		sendUpdate()
	}); err != nil {
		return err
	}

	go sendUpdate()

	_, err := p.Run()
	return err
}

func buildFileRows(ctx context.Context, svc ports.AnalysisService) []fileRow {
	metrics, err := svc.GraphMetrics(ctx)
	if err != nil {
		return nil
	}
	rows := make([]fileRow, 0, len(metrics.PerFile))
	for _, path := range util.SortedStringKeys(metrics.PerFile) {
		fm := metrics.PerFile[path]
		rows = append(rows, fileRow{
			path:    path,
			symbols: fm.Symbols,
			imports: fm.Imports,
			fanIn:   fm.FanIn,
			fanOut:  fm.FanOut,
		})
	}
	return rows
}
