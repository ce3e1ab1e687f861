// # internal/ui/ui.go

// Package ui is the live watch dashboard: an issue list fed by the watch
// service, a file explorer with per-file drill-down, and a trend overlay.
package ui

import (
	"fmt"
	"strings"
	"time"

	"codemap/internal/core/ports"
	"codemap/internal/data/history"
	"codemap/internal/engine/parser"
	"codemap/internal/shared/util"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	unresolvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelIssues panelMode = iota
	panelFiles
)

// fileRow is one explorer entry derived from the per-file graph metrics.
type fileRow struct {
	path    string
	symbols int
	imports int
	fanIn   int
	fanOut  int
}

type fileDetail struct {
	file       parser.FileMap
	importers  []string
	dependents []string
}

type model struct {
	issueList list.Model
	fileList  list.Model
	mode      panelMode
	svc       ports.AnalysisService
	trend     *history.TrendReport
	showTrend bool

	summary    ports.SummarySnapshot
	files      []fileRow
	lastUpdate time.Time

	detail           fileDetail
	hasDetail        bool
	detailErr        string
	selectedImport   int
	sourceJumpStatus string
}

type updateMsg struct {
	summary ports.SummarySnapshot
	files   []fileRow
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.issueList.SetSize(width, height)
		m.fileList.SetSize(width, height)
	case updateMsg:
		m.summary = msg.summary
		m.files = msg.files
		m.lastUpdate = time.Now()
		m.detailErr = ""

		items := []list.Item{}
		for _, c := range m.summary.Cycles {
			items = append(items, item{
				title: "Import Cycle",
				desc:  strings.Join(c, " -> "),
			})
		}
		for _, u := range m.summary.Unresolved {
			items = append(items, item{
				title: "Unresolved Import",
				desc:  fmt.Sprintf("%s in %s:%d", u.Import.Module, u.Path, u.Import.Span.StartLine),
			})
		}
		for _, d := range m.summary.Diagnostics {
			items = append(items, item{
				title: "Parse Diagnostic",
				desc:  fmt.Sprintf("%s %s:%d %s", d.Diagnostic.Kind, d.Path, d.Diagnostic.Span.StartLine, d.Diagnostic.Message),
			})
		}
		m.issueList.SetItems(items)

		fileItems := make([]list.Item, 0, len(m.files))
		for _, f := range m.files {
			fileItems = append(fileItems, item{
				title: f.path,
				desc: fmt.Sprintf("symbols=%d imports=%d fan_in=%d fan_out=%d",
					f.symbols, f.imports, f.fanIn, f.fanOut),
			})
		}
		m.fileList.SetItems(fileItems)
		if m.hasDetail {
			m, _ = refreshFileDetail(m)
		}
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
	}

	var cmd tea.Cmd
	if m.mode == panelIssues {
		m.issueList, cmd = m.issueList.Update(msg)
	} else {
		m.fileList, cmd = m.fileList.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d edges | heap %dMB",
		m.lastUpdate.Format("15:04:05"), m.summary.Files, m.summary.Edges, util.GetHeapAllocMB()))

	var health string
	if len(m.summary.Cycles) == 0 && len(m.summary.Unresolved) == 0 && len(m.summary.Diagnostics) == 0 {
		health = successStyle.Render("Graph Clean")
	} else {
		health = fmt.Sprintf("%s | %s | %s",
			cycleStyle.Render(fmt.Sprintf("%d cycles", len(m.summary.Cycles))),
			unresolvedStyle.Render(fmt.Sprintf("%d unresolved", len(m.summary.Unresolved))),
			unresolvedStyle.Render(fmt.Sprintf("%d diagnostics", len(m.summary.Diagnostics))))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Code Map Monitor"), status, health)
	help := renderHelp(m)

	body := m.issueList.View()
	if m.mode == panelFiles {
		body = renderFilePanel(m)
	}
	if m.showTrend {
		body += "\n\n" + renderTrendOverlay(m.trend)
	}
	if m.sourceJumpStatus != "" {
		body += "\n\n" + m.sourceJumpStatus
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func initialModel(svc ports.AnalysisService, trend *history.TrendReport) model {
	issueList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	issueList.Title = "Detected Issues"
	issueList.SetShowStatusBar(false)
	issueList.SetFilteringEnabled(true)

	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "File Explorer"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(true)

	return model{
		issueList:  issueList,
		fileList:   fileList,
		mode:       panelIssues,
		svc:        svc,
		trend:      trend,
		lastUpdate: time.Now(),
	}
}
