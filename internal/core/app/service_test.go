package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codemap/internal/core/errors"
	"codemap/internal/core/ports"
	"codemap/internal/data/history"
)

func newTestService(t *testing.T, files map[string]string) (ports.AnalysisService, *App) {
	t.Helper()
	a := newTestApp(t, files)
	return NewAnalysisService(a), a
}

func packageFixture() map[string]string {
	return map[string]string{
		"pkg/__init__.py": "",
		"pkg/core.py":     "from . import util\n\ndef run():\n    pass\n",
		"pkg/util.py":     "import os\n\ndef helper():\n    pass\n",
	}
}

func cycleFixture() map[string]string {
	return map[string]string{
		"a.py": "import b\n",
		"b.py": "import a\n",
		"c.py": "import d\n",
		"d.py": "import c\n",
	}
}

func TestRunScanCountsGraphState(t *testing.T) {
	svc, _ := newTestService(t, packageFixture())

	result, err := svc.RunScan(context.Background(), ports.ScanRequest{})
	if err != nil {
		t.Fatal(err)
	}

	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if result.Files != 3 {
		t.Errorf("expected 3 files, got %d", result.Files)
	}
	if result.Symbols != 2 {
		t.Errorf("expected 2 symbols, got %d", result.Symbols)
	}
	if result.Imports != 2 {
		t.Errorf("expected 2 imports, got %d", result.Imports)
	}
	if result.Edges != 2 {
		t.Errorf("expected 2 edges, got %d", result.Edges)
	}
	if result.Unresolved != 1 {
		t.Errorf("expected 1 unresolved import (os), got %d", result.Unresolved)
	}
	if result.Cycles != 0 {
		t.Errorf("expected no cycles, got %d", result.Cycles)
	}
	if result.Duration <= 0 {
		t.Error("expected a positive duration")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestRunScanHonorsCancelledContext(t *testing.T) {
	svc, _ := newTestService(t, packageFixture())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestDetectCyclesAppliesLimit(t *testing.T) {
	svc, _ := newTestService(t, cycleFixture())
	if _, err := svc.RunScan(context.Background(), ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	cycles, total, err := svc.DetectCycles(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("expected 2 cycles total, got %d", total)
	}
	if len(cycles) != 1 {
		t.Errorf("expected 1 cycle returned under limit, got %d", len(cycles))
	}
}

func TestFileMapAndImporters(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "def helper():\n    pass\n",
	})
	ctx := context.Background()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	fm, err := svc.FileMap(ctx, "b.py")
	if err != nil {
		t.Fatal(err)
	}
	if fm.Path != "b.py" || len(fm.Symbols) != 1 {
		t.Fatalf("unexpected file map: %+v", fm)
	}

	if _, err := svc.FileMap(ctx, "missing.py"); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for missing file, got %v", err)
	}

	importers, err := svc.Importers(ctx, "b.py")
	if err != nil {
		t.Fatal(err)
	}
	if len(importers) != 1 || importers[0] != "a.py" {
		t.Fatalf("expected importers [a.py], got %v", importers)
	}
}

func TestSummarySnapshotCollectsIssues(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"a.py": "import b\nimport numpy\n",
		"b.py": "import a\n",
	})
	ctx := context.Background()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.SummarySnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Project != "demo" {
		t.Errorf("expected project demo, got %q", snap.Project)
	}
	if snap.Files != 2 {
		t.Errorf("expected 2 files, got %d", snap.Files)
	}
	if len(snap.Cycles) != 1 {
		t.Errorf("expected 1 cycle, got %v", snap.Cycles)
	}
	if len(snap.Unresolved) != 1 || snap.Unresolved[0].Import.Module != "numpy" {
		t.Errorf("expected numpy as the unresolved import, got %+v", snap.Unresolved)
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("expected a snapshot timestamp")
	}
}

func TestSyncOutputsSelectsRequestedFormats(t *testing.T) {
	svc, a := newTestService(t, packageFixture())
	ctx := context.Background()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.SyncOutputs(ctx, ports.SyncOutputsRequest{Formats: []string{"json", "tsv"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Written) != 2 {
		t.Fatalf("expected 2 written outputs, got %v", result.Written)
	}
	for _, path := range result.Written {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s on disk: %v", path, err)
		}
	}

	markdown := filepath.Join(a.Paths.OutputDir, "codemap.md")
	if _, err := os.Stat(markdown); !os.IsNotExist(err) {
		t.Errorf("markdown must not be written when not requested, stat err: %v", err)
	}
}

func TestSyncOutputsRejectsUnknownFormat(t *testing.T) {
	svc, _ := newTestService(t, packageFixture())
	_, err := svc.SyncOutputs(context.Background(), ports.SyncOutputsRequest{Formats: []string{"svg"}})
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR for unknown format, got %v", err)
	}
}

func TestGenerateMarkdownReport(t *testing.T) {
	svc, a := newTestService(t, packageFixture())
	ctx := context.Background()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.GenerateMarkdownReport(ctx, ports.MarkdownReportRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Written {
		t.Error("report must not be written without WriteFile or a path")
	}
	if !strings.Contains(result.Markdown, "# Code Map") {
		t.Error("expected markdown title in report")
	}
	if !strings.Contains(result.Markdown, "`pkg/core.py`") {
		t.Error("expected analyzed file in report")
	}

	out := filepath.Join("report", "map.md")
	written, err := svc.GenerateMarkdownReport(ctx, ports.MarkdownReportRequest{Path: out})
	if err != nil {
		t.Fatal(err)
	}
	if !written.Written {
		t.Fatal("expected report to be written")
	}
	if _, err := os.Stat(filepath.Join(a.Paths.ProjectRoot, out)); err != nil {
		t.Fatalf("expected report file on disk: %v", err)
	}
}

func TestCaptureHistoryPersistsRun(t *testing.T) {
	svc, _ := newTestService(t, packageFixture())
	ctx := context.Background()

	result, err := svc.RunScan(ctx, ports.ScanRequest{})
	if err != nil {
		t.Fatal(err)
	}

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := svc.CaptureHistory(ctx, store); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Trend(ctx, "demo", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 persisted run, got %d", len(runs))
	}
	if runs[0].ID != result.RunID {
		t.Errorf("expected persisted run id %s, got %s", result.RunID, runs[0].ID)
	}
	if runs[0].Files != result.Files {
		t.Errorf("expected persisted file count %d, got %d", result.Files, runs[0].Files)
	}
}

func TestCaptureHistoryRequiresStore(t *testing.T) {
	svc, _ := newTestService(t, packageFixture())
	if err := svc.CaptureHistory(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestWatchServiceSubscribeAndCurrentUpdate(t *testing.T) {
	svc, a := newTestService(t, packageFixture())
	ctx := context.Background()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	ws := svc.WatchService()
	update, err := ws.CurrentUpdate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if update.Files != 3 {
		t.Errorf("expected 3 files in current update, got %d", update.Files)
	}

	if err := ws.Subscribe(ctx, nil); err == nil {
		t.Fatal("expected error for nil handler")
	}

	received := make(chan ports.WatchUpdate, 1)
	if err := ws.Subscribe(ctx, func(u ports.WatchUpdate) { received <- u }); err != nil {
		t.Fatal(err)
	}
	a.emitUpdate(a.buildUpdate([]string{"pkg/core.py"}))

	select {
	case u := <-received:
		if len(u.Changed) != 1 || u.Changed[0] != "pkg/core.py" {
			t.Fatalf("expected changed [pkg/core.py], got %v", u.Changed)
		}
	default:
		t.Fatal("expected subscriber to receive the update")
	}
}

func TestPrintSummaryRuns(t *testing.T) {
	svc, _ := newTestService(t, cycleFixture())
	ctx := context.Background()
	if _, err := svc.RunScan(ctx, ports.ScanRequest{}); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.SummarySnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.PrintSummary(ctx, ports.SummaryPrintRequest{Duration: time.Second, Snapshot: snap}); err != nil {
		t.Fatal(err)
	}
}
