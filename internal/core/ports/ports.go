package ports

import (
	"context"
	"time"

	"codemap/internal/data/history"
	"codemap/internal/engine/graph"
	"codemap/internal/engine/parser"
)

// FileAnalyzer abstracts source parsing and language-file support checks.
type FileAnalyzer interface {
	ParseFile(path string, content []byte) (*parser.FileMap, error)
	GetLanguage(path string) string
	IsSupportedPath(path string) bool
	IsTestFile(path string) bool
	SupportedExtensions() []string
	SupportedFilenames() []string
}

// HistoryStore abstracts run persistence for trend workflows.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) error
	Trend(ctx context.Context, project string, since time.Time) ([]history.Run, error)
	Close() error
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Roots []string
}

// ScanResult summarizes a completed scan operation.
type ScanResult struct {
	RunID      string
	Files      int
	Symbols    int
	Imports    int
	Edges      int
	Unresolved int
	Cycles     int
	Duration   time.Duration
	Warnings   []string
}

// SyncOutputsRequest defines output synchronization input for driving adapters.
// Empty Formats means every format configured with a file name.
type SyncOutputsRequest struct {
	Formats []string
}

// SyncOutputsResult contains generated output paths.
type SyncOutputsResult struct {
	Written []string
}

// MarkdownReportRequest defines markdown code-map generation input.
type MarkdownReportRequest struct {
	Path      string
	WriteFile bool
}

// MarkdownReportResult contains the rendered code map and write outcome.
type MarkdownReportResult struct {
	Markdown string
	Path     string
	Written  bool
}

// UnresolvedImport pairs an import record that did not resolve to a
// project file with the file it came from.
type UnresolvedImport struct {
	Path   string
	Import parser.Import
}

// FileDiagnostic pairs a parse diagnostic with its file.
type FileDiagnostic struct {
	Path       string
	Diagnostic parser.Diagnostic
}

// SummarySnapshot captures current graph state for driving adapters.
type SummarySnapshot struct {
	Project     string
	Files       int
	Symbols     int
	Imports     int
	Edges       int
	Unresolved  []UnresolvedImport
	Diagnostics []FileDiagnostic
	Cycles      [][]string
	GeneratedAt time.Time
}

// SummaryPrintRequest captures terminal-summary rendering inputs.
type SummaryPrintRequest struct {
	Duration time.Duration
	Snapshot SummarySnapshot
}

// WatchUpdate contains state emitted to driving adapters after each
// watch-mode batch.
type WatchUpdate struct {
	Files       int
	Edges       int
	Unresolved  int
	Diagnostics int
	Cycles      [][]string
	Changed     []string
	At          time.Time
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	CurrentUpdate(ctx context.Context) (WatchUpdate, error)
	Subscribe(ctx context.Context, handler func(WatchUpdate)) error
}

// AnalysisService is the driving-port surface over scan, query and
// output use cases.
type AnalysisService interface {
	RunScan(ctx context.Context, req ScanRequest) (ScanResult, error)
	AnalyzeFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) error
	Relink(ctx context.Context) error

	ListFiles(ctx context.Context) ([]string, error)
	FileMap(ctx context.Context, path string) (*parser.FileMap, error)
	Importers(ctx context.Context, path string) ([]string, error)
	Dependents(ctx context.Context, path string) ([]string, error)
	DetectCycles(ctx context.Context, limit int) ([][]string, int, error)
	GraphSnapshot(ctx context.Context) (graph.Snapshot, error)
	GraphMetrics(ctx context.Context) (graph.Metrics, error)
	SummarySnapshot(ctx context.Context) (SummarySnapshot, error)

	SyncOutputs(ctx context.Context, req SyncOutputsRequest) (SyncOutputsResult, error)
	GenerateMarkdownReport(ctx context.Context, req MarkdownReportRequest) (MarkdownReportResult, error)
	CaptureHistory(ctx context.Context, store HistoryStore) error
	PrintSummary(ctx context.Context, req SummaryPrintRequest) error
	WatchService() WatchService
}
