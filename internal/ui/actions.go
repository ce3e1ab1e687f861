package ui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelIssues {
			m.mode = panelFiles
		} else {
			m.mode = panelIssues
		}
		return m, nil
	case "t":
		m.showTrend = !m.showTrend
		return m, nil
	}

	if m.mode != panelFiles {
		var cmd tea.Cmd
		m.issueList, cmd = m.issueList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter":
		return refreshFileDetail(m)
	case "esc", "backspace":
		m.hasDetail = false
		m.detailErr = ""
		m.selectedImport = 0
		return m, nil
	case "j":
		if m.hasDetail && len(m.detail.file.Imports) > 0 {
			if m.selectedImport < len(m.detail.file.Imports)-1 {
				m.selectedImport++
			}
			return m, nil
		}
	case "k":
		if m.hasDetail && len(m.detail.file.Imports) > 0 {
			if m.selectedImport > 0 {
				m.selectedImport--
			}
			return m, nil
		}
	case "o":
		if !m.hasDetail {
			return m, nil
		}
		target, ok := selectedSourceTarget(m)
		if !ok {
			m.sourceJumpStatus = statusStyle.Render("No source target available.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

func refreshFileDetail(m model) (model, tea.Cmd) {
	if m.svc == nil || len(m.files) == 0 {
		return m, nil
	}
	idx := m.fileList.Index()
	if idx < 0 || idx >= len(m.files) {
		idx = 0
	}
	path := m.files[idx].path

	ctx := context.Background()
	file, err := m.svc.FileMap(ctx, path)
	if err != nil {
		m.detailErr = err.Error()
		m.hasDetail = false
		return m, nil
	}
	importers, err := m.svc.Importers(ctx, path)
	if err != nil {
		importers = nil
	}
	dependents, err := m.svc.Dependents(ctx, path)
	if err != nil {
		dependents = nil
	}

	m.detail = fileDetail{file: *file, importers: importers, dependents: dependents}
	m.detailErr = ""
	m.hasDetail = true
	m.selectedImport = 0
	return m, nil
}

type sourceTarget struct {
	file string
	line int
}

func selectedSourceTarget(m model) (sourceTarget, bool) {
	if m.detail.file.Path == "" {
		return sourceTarget{}, false
	}
	if len(m.detail.file.Imports) > 0 {
		idx := m.selectedImport
		if idx < 0 {
			idx = 0
		}
		if idx >= len(m.detail.file.Imports) {
			idx = len(m.detail.file.Imports) - 1
		}
		imp := m.detail.file.Imports[idx]
		return sourceTarget{file: m.detail.file.Path, line: imp.Span.StartLine}, true
	}
	return sourceTarget{file: m.detail.file.Path, line: 1}, true
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	switch filepath.Base(editor) {
	case "vi", "vim", "nvim":
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	}
	cmd := exec.Command(editor, args...)
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
