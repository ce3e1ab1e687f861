package app

import (
	"context"
	"fmt"

	"codemap/internal/core/config"
	"codemap/internal/watcher"
)

// RestartWatcher replaces the running filesystem watcher so reloaded
// watch and exclude settings take effect. Other config sections keep
// their running values until the process restarts.
func (a *App) RestartWatcher(ctx context.Context, next *config.Config) error {
	if next != nil {
		a.Config.Watch = next.Watch
		a.Config.Exclude = next.Exclude
	}
	if err := a.Close(); err != nil {
		return err
	}
	return a.StartWatcher(ctx)
}

// StartWatcher begins filesystem watching over the scan roots. Change
// batches flow through HandleChanges; the watcher stops when ctx is
// cancelled or the app is closed.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.New(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Rate:         a.Config.Watch.Rate,
		Burst:        a.Config.Watch.Burst,
	}, a.HandleChanges)
	if err != nil {
		return err
	}
	w.SetLanguageFilters(
		a.Parser.SupportedExtensions(),
		a.Parser.SupportedFilenames(),
		a.Parser.SupportedTestFileSuffixes(),
	)

	a.watcherMu.Lock()
	if a.activeWatcher != nil {
		a.watcherMu.Unlock()
		_ = w.Close()
		return fmt.Errorf("watcher already running")
	}
	a.activeWatcher = w
	a.watcherMu.Unlock()

	if err := w.Watch(a.Paths.ScanRoots); err != nil {
		a.watcherMu.Lock()
		a.activeWatcher = nil
		a.watcherMu.Unlock()
		_ = w.Close()
		return err
	}

	go func() {
		<-ctx.Done()
		_ = a.Close()
	}()
	return nil
}
