package app

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"codemap/internal/shared/observability"
)

// absPath maps a scanner or API path onto the filesystem. Relative paths
// are taken as project-root relative, matching the graph's node keys.
func (a *App) absPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(a.Paths.ProjectRoot, filepath.FromSlash(path))
}

// AnalyzeFile reads, parses and registers one source file. Files whose
// content hash matches the cached parse are not parsed again.
func (a *App) AnalyzeFile(path string) error {
	content, err := os.ReadFile(a.absPath(path))
	if err != nil {
		return err
	}

	rel := a.Index.Normalize(path)
	sum := sha256.Sum256(content)
	if entry, ok := a.parseCache.Get(rel); ok && entry.sum == sum {
		if a.Index.Has(rel) {
			return nil
		}
		a.Graph.AddFileMap(entry.file)
		a.Index.Add(rel)
		return nil
	}

	start := time.Now()
	file, err := a.Parser.ParseFile(rel, content)
	if err != nil {
		return err
	}
	observability.ParsingDuration.WithLabelValues(file.Language).Observe(time.Since(start).Seconds())
	observability.FilesAnalyzed.WithLabelValues(file.Language).Inc()

	a.parseCache.Put(rel, parseEntry{sum: sum, file: file})
	a.Graph.AddFileMap(file)
	a.Index.Add(rel)
	return nil
}

// RemoveFile drops a file from the index and the graph. Edges into the
// removed file resolve to unknown on the next relink.
func (a *App) RemoveFile(path string) {
	rel := a.Index.Normalize(path)
	a.parseCache.Evict(rel)
	a.Index.Remove(rel)
	a.Graph.RemoveFile(rel)
}

// Relink recomputes every edge against the current file index.
func (a *App) Relink() {
	start := time.Now()
	a.Graph.LinkAll(a.Resolver)
	observability.AnalysisDuration.WithLabelValues("link").Observe(time.Since(start).Seconds())
}

// HandleChanges applies one watcher batch: vanished files are removed,
// the rest re-analyzed, then the whole graph is relinked and outputs
// regenerated before subscribers hear about it.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()

	changed := make([]string, 0, len(paths))
	for _, path := range paths {
		rel := a.Index.Normalize(path)
		if _, err := os.Stat(a.absPath(path)); os.IsNotExist(err) {
			a.RemoveFile(path)
			changed = append(changed, rel)
			continue
		}
		if err := a.AnalyzeFile(path); err != nil {
			slog.Warn("failed to re-analyze file", "path", path, "error", err)
			continue
		}
		changed = append(changed, rel)
	}
	a.Relink()

	if _, err := a.GenerateOutputs(); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	took := time.Since(start)
	observability.AnalysisDuration.WithLabelValues("watch_batch").Observe(took.Seconds())
	slog.Info("change batch applied", "files", len(changed), "duration", took)
	a.emitUpdate(a.buildUpdate(changed))
}
