// # internal/core/app/service.go
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"codemap/internal/core/errors"
	"codemap/internal/core/ports"
	"codemap/internal/data/history"
	"codemap/internal/engine/graph"
	"codemap/internal/engine/parser"
	"codemap/internal/shared/observability"
	"codemap/internal/shared/util"
)

type analysisService struct {
	app *App
}

var (
	_ ports.AnalysisService = (*analysisService)(nil)
	_ ports.FileAnalyzer    = (*parser.Parser)(nil)
)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (s *analysisService) Unwrap() *App {
	return s.app
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func (s *analysisService) RunScan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.RunScan")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.ScanResult{}, err
	}
	if s.app == nil {
		return ports.ScanResult{}, fmt.Errorf("app is required")
	}
	if s.app.Config == nil {
		return ports.ScanResult{}, fmt.Errorf("config is required")
	}

	start := time.Now()
	runID := uuid.NewString()
	roots := req.Roots
	if len(roots) == 0 {
		roots = s.app.Paths.ScanRoots
	}
	files, err := s.app.ScanDirectories(roots, s.app.Config.Exclude.Dirs, s.app.Config.Exclude.Files)
	if err != nil {
		return ports.ScanResult{}, errors.AddContext(err, errors.CtxOperation, "scan_directories")
	}

	var warnMu sync.Mutex
	warnings := make([]string, 0)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, filePath := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.app.AnalyzeFile(filePath); err != nil {
				warnMu.Lock()
				warnings = append(warnings, fmt.Sprintf("analyze %s: %v", filePath, err))
				warnMu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return ports.ScanResult{}, err
	}

	s.app.Relink()
	cycles := s.app.Graph.DetectCycles()
	metrics := s.app.Graph.Metrics()
	took := time.Since(start)
	observability.AnalysisDuration.WithLabelValues("scan").Observe(took.Seconds())
	s.app.recordRun(runID, start.UTC(), took)

	return ports.ScanResult{
		RunID:      runID,
		Files:      metrics.Files,
		Symbols:    metrics.Symbols,
		Imports:    metrics.Imports,
		Edges:      metrics.Edges,
		Unresolved: metrics.UnknownEdges,
		Cycles:     len(cycles),
		Duration:   took,
		Warnings:   warnings,
	}, nil
}

func (s *analysisService) AnalyzeFile(ctx context.Context, path string) error {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.AnalyzeFile")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	if err := s.app.AnalyzeFile(path); err != nil {
		return errors.AddContext(err, errors.CtxPath, path)
	}
	return nil
}

func (s *analysisService) RemoveFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	s.app.RemoveFile(path)
	return nil
}

func (s *analysisService) Relink(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.LinkEdges")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	s.app.Relink()
	return nil
}

func (s *analysisService) ListFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil {
		return nil, fmt.Errorf("app is required")
	}
	return s.app.Graph.Files(), nil
}

func (s *analysisService) FileMap(ctx context.Context, path string) (*parser.FileMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil {
		return nil, fmt.Errorf("app is required")
	}
	fm, ok := s.app.Graph.FileMap(s.app.Index.Normalize(path))
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "file not analyzed"), errors.CtxPath, path)
	}
	return fm, nil
}

func (s *analysisService) Importers(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil {
		return nil, fmt.Errorf("app is required")
	}
	rel := s.app.Index.Normalize(path)
	if _, ok := s.app.Graph.FileMap(rel); !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "file not analyzed"), errors.CtxPath, path)
	}
	return s.app.Graph.Importers(rel), nil
}

func (s *analysisService) Dependents(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil {
		return nil, fmt.Errorf("app is required")
	}
	rel := s.app.Index.Normalize(path)
	if _, ok := s.app.Graph.FileMap(rel); !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "file not analyzed"), errors.CtxPath, path)
	}
	return s.app.Graph.Dependents(rel), nil
}

func (s *analysisService) DetectCycles(ctx context.Context, limit int) ([][]string, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s.app == nil {
		return nil, 0, fmt.Errorf("app is required")
	}
	cycles := s.app.Graph.DetectCycles()
	count := len(cycles)
	if limit > 0 && len(cycles) > limit {
		cycles = cycles[:limit]
	}
	out := make([][]string, 0, len(cycles))
	for _, cycle := range cycles {
		out = append(out, append([]string(nil), cycle...))
	}
	return out, count, nil
}

func (s *analysisService) GraphSnapshot(ctx context.Context) (graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return graph.Snapshot{}, err
	}
	if s.app == nil {
		return graph.Snapshot{}, fmt.Errorf("app is required")
	}
	return s.app.Graph.Snapshot(), nil
}

func (s *analysisService) GraphMetrics(ctx context.Context) (graph.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return graph.Metrics{}, err
	}
	if s.app == nil {
		return graph.Metrics{}, fmt.Errorf("app is required")
	}
	return s.app.Graph.Metrics(), nil
}

func (s *analysisService) SummarySnapshot(ctx context.Context) (ports.SummarySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return ports.SummarySnapshot{}, err
	}
	if s.app == nil {
		return ports.SummarySnapshot{}, fmt.Errorf("app is required")
	}

	snap := s.app.Graph.Snapshot()
	metrics := s.app.Graph.Metrics()

	unresolved := make([]ports.UnresolvedImport, 0)
	for _, edge := range snap.Edges {
		if edge.To == graph.Unknown {
			unresolved = append(unresolved, ports.UnresolvedImport{Path: edge.From, Import: edge.Import})
		}
	}
	diagnostics := make([]ports.FileDiagnostic, 0)
	for _, file := range snap.Files {
		for _, d := range file.Diagnostics {
			diagnostics = append(diagnostics, ports.FileDiagnostic{Path: file.Path, Diagnostic: d})
		}
	}

	return ports.SummarySnapshot{
		Project:     s.app.Paths.ProjectName,
		Files:       metrics.Files,
		Symbols:     metrics.Symbols,
		Imports:     metrics.Imports,
		Edges:       metrics.Edges,
		Unresolved:  unresolved,
		Diagnostics: diagnostics,
		Cycles:      snap.Cycles,
		GeneratedAt: snap.GeneratedAt,
	}, nil
}

func (s *analysisService) SyncOutputs(ctx context.Context, req ports.SyncOutputsRequest) (ports.SyncOutputsResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.SyncOutputsResult{}, err
	}
	if s.app == nil {
		return ports.SyncOutputsResult{}, fmt.Errorf("app is required")
	}
	if s.app.Config == nil {
		return ports.SyncOutputsResult{}, fmt.Errorf("config is required")
	}

	set, err := formatSet(req.Formats)
	if err != nil {
		return ports.SyncOutputsResult{}, err
	}
	targets := s.app.resolveOutputTargets()
	if set != nil {
		outputDir := s.app.Paths.OutputDir
		targets.Markdown = requestedTarget(set["markdown"], targets.Markdown, "codemap.md", outputDir)
		targets.Mermaid = requestedTarget(set["mermaid"], targets.Mermaid, "codemap.mmd", outputDir)
		targets.DOT = requestedTarget(set["dot"], targets.DOT, "codemap.dot", outputDir)
		targets.TSV = requestedTarget(set["tsv"], targets.TSV, "codemap.tsv", outputDir)
		targets.JSON = requestedTarget(set["json"], targets.JSON, "codemap.json", outputDir)
	}

	written, err := s.app.generateOutputsTo(targets)
	if err != nil {
		return ports.SyncOutputsResult{}, err
	}
	return ports.SyncOutputsResult{Written: written}, nil
}

func (s *analysisService) GenerateMarkdownReport(ctx context.Context, req ports.MarkdownReportRequest) (ports.MarkdownReportResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.MarkdownReportResult{}, err
	}
	if s.app == nil {
		return ports.MarkdownReportResult{}, fmt.Errorf("app is required")
	}

	md, err := s.app.GenerateMarkdown()
	if err != nil {
		return ports.MarkdownReportResult{}, err
	}

	outPath := strings.TrimSpace(req.Path)
	writeFile := req.WriteFile || outPath != ""
	if outPath == "" {
		outPath = s.app.resolveOutputTargets().Markdown
	}
	if outPath != "" && !filepath.IsAbs(outPath) {
		outPath = filepath.Join(s.app.Paths.ProjectRoot, outPath)
	}

	result := ports.MarkdownReportResult{Markdown: md, Path: outPath}
	if writeFile {
		if outPath == "" {
			return ports.MarkdownReportResult{}, errors.New(errors.CodeValidationError, "output path is required to write the markdown report")
		}
		if err := util.WriteStringWithDirs(outPath, md, 0o644); err != nil {
			return ports.MarkdownReportResult{}, fmt.Errorf("write markdown report %q: %w", outPath, err)
		}
		result.Written = true
	}
	return result, nil
}

func (s *analysisService) CaptureHistory(ctx context.Context, store ports.HistoryStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	if store == nil {
		return fmt.Errorf("history store is required")
	}

	metrics := s.app.Graph.Metrics()
	cycles := s.app.Graph.DetectCycles()
	runID, startedAt, took := s.app.lastRun()
	if runID == "" {
		runID = uuid.NewString()
		startedAt = time.Now().UTC()
	}

	run := history.Run{
		ID:          runID,
		Project:     s.app.Paths.ProjectName,
		StartedAt:   startedAt,
		Duration:    took,
		Files:       metrics.Files,
		Symbols:     metrics.Symbols,
		Imports:     metrics.Imports,
		Edges:       metrics.Edges,
		Unresolved:  metrics.UnknownEdges,
		Diagnostics: metrics.Diagnostics,
		Cycles:      len(cycles),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save history run: %w", err)
	}
	return nil
}

func (s *analysisService) PrintSummary(ctx context.Context, req ports.SummaryPrintRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	s.app.PrintSummary(req)
	return nil
}

func (s *analysisService) WatchService() ports.WatchService {
	return &watchService{app: s.app}
}

type watchService struct {
	app *App
}

var _ ports.WatchService = (*watchService)(nil)

func (s *watchService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	return s.app.StartWatcher(ctx)
}

func (s *watchService) CurrentUpdate(ctx context.Context) (ports.WatchUpdate, error) {
	if err := ctx.Err(); err != nil {
		return ports.WatchUpdate{}, err
	}
	if s.app == nil {
		return ports.WatchUpdate{}, fmt.Errorf("app is required")
	}
	return toWatchUpdate(s.app.CurrentUpdate()), nil
}

func (s *watchService) Subscribe(ctx context.Context, handler func(ports.WatchUpdate)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	s.app.SetUpdateHandler(func(update Update) {
		if ctx.Err() != nil {
			return
		}
		handler(toWatchUpdate(update))
	})
	return nil
}

func toWatchUpdate(update Update) ports.WatchUpdate {
	return ports.WatchUpdate{
		Files:       update.Files,
		Edges:       update.Edges,
		Unresolved:  update.Unresolved,
		Diagnostics: update.Diagnostics,
		Cycles:      append([][]string(nil), update.Cycles...),
		Changed:     append([]string(nil), update.Changed...),
		At:          update.At,
	}
}

func formatSet(formats []string) (map[string]bool, error) {
	if len(formats) == 0 {
		return nil, nil
	}
	known := map[string]bool{"markdown": true, "mermaid": true, "dot": true, "tsv": true, "json": true}
	out := make(map[string]bool, len(formats))
	for _, format := range formats {
		trimmed := strings.ToLower(strings.TrimSpace(format))
		if trimmed == "" {
			continue
		}
		if !known[trimmed] {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown output format %q", format))
		}
		out[trimmed] = true
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// requestedTarget keeps the configured path for a requested format,
// falling back to a default file name so an explicit request always
// produces output.
func requestedTarget(requested bool, configured, defaultName, dir string) string {
	if !requested {
		return ""
	}
	if configured != "" {
		return configured
	}
	return filepath.Join(dir, defaultName)
}
