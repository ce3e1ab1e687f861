package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"codemap/internal/output"
	"codemap/internal/shared/util"
	"codemap/internal/shared/version"
)

// outputTargets holds the resolved file path per output format. An empty
// path disables the format.
type outputTargets struct {
	Markdown string
	Mermaid  string
	DOT      string
	TSV      string
	JSON     string
}

func (a *App) resolveOutputTargets() outputTargets {
	return outputTargets{
		Markdown: resolveOutputPath(a.Config.Output.Markdown, a.Paths.OutputDir),
		Mermaid:  resolveOutputPath(a.Config.Output.Mermaid, a.Paths.OutputDir),
		DOT:      resolveOutputPath(a.Config.Output.DOT, a.Paths.OutputDir),
		TSV:      resolveOutputPath(a.Config.Output.TSV, a.Paths.OutputDir),
		JSON:     resolveOutputPath(a.Config.Output.JSON, a.Paths.OutputDir),
	}
}

func resolveOutputPath(name, dir string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, name)
}

// GenerateOutputs renders every configured output format from a single
// graph snapshot and returns the paths written.
func (a *App) GenerateOutputs() ([]string, error) {
	return a.generateOutputsTo(a.resolveOutputTargets())
}

func (a *App) generateOutputsTo(targets outputTargets) ([]string, error) {
	snap := a.Graph.Snapshot()
	metrics := a.Graph.Metrics()

	written := make([]string, 0, 5)
	if targets.Markdown != "" {
		md, err := output.NewMarkdownGenerator().Generate(snap, metrics, output.MarkdownOptions{
			ProjectName: a.Paths.ProjectName,
			Version:     version.Version,
			GeneratedAt: snap.GeneratedAt,
		})
		if err != nil {
			return written, fmt.Errorf("generate markdown output: %w", err)
		}
		if err := util.WriteStringWithDirs(targets.Markdown, md, 0o644); err != nil {
			return written, fmt.Errorf("write markdown output %q: %w", targets.Markdown, err)
		}
		written = append(written, targets.Markdown)
	}

	if targets.Mermaid != "" {
		diagram, err := output.NewMermaidGenerator().Generate(snap)
		if err != nil {
			return written, fmt.Errorf("generate mermaid output: %w", err)
		}
		if err := util.WriteStringWithDirs(targets.Mermaid, diagram, 0o644); err != nil {
			return written, fmt.Errorf("write mermaid output %q: %w", targets.Mermaid, err)
		}
		written = append(written, targets.Mermaid)
	}

	if targets.DOT != "" {
		dot, err := output.NewDOTGenerator().Generate(snap)
		if err != nil {
			return written, fmt.Errorf("generate dot output: %w", err)
		}
		if err := util.WriteStringWithDirs(targets.DOT, dot, 0o644); err != nil {
			return written, fmt.Errorf("write dot output %q: %w", targets.DOT, err)
		}
		written = append(written, targets.DOT)
	}

	if targets.TSV != "" {
		tsv, err := output.NewTSVGenerator().Generate(snap)
		if err != nil {
			return written, fmt.Errorf("generate tsv output: %w", err)
		}
		if err := util.WriteStringWithDirs(targets.TSV, tsv, 0o644); err != nil {
			return written, fmt.Errorf("write tsv output %q: %w", targets.TSV, err)
		}
		written = append(written, targets.TSV)
	}

	if targets.JSON != "" {
		doc, err := output.NewJSONGenerator().Generate(snap)
		if err != nil {
			return written, fmt.Errorf("generate json output: %w", err)
		}
		if err := util.WriteStringWithDirs(targets.JSON, doc, 0o644); err != nil {
			return written, fmt.Errorf("write json output %q: %w", targets.JSON, err)
		}
		written = append(written, targets.JSON)
	}

	return written, nil
}

// GenerateMarkdown renders the markdown code map without writing it.
func (a *App) GenerateMarkdown() (string, error) {
	snap := a.Graph.Snapshot()
	md, err := output.NewMarkdownGenerator().Generate(snap, a.Graph.Metrics(), output.MarkdownOptions{
		ProjectName: a.Paths.ProjectName,
		Version:     version.Version,
		GeneratedAt: snap.GeneratedAt,
	})
	if err != nil {
		return "", fmt.Errorf("generate markdown report: %w", err)
	}
	return md, nil
}
