// # internal/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_RejectsNilCallback(t *testing.T) {
	w, err := New(Options{Debounce: 100 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNew_RejectsBadGlob(t *testing.T) {
	_, err := New(Options{ExcludeDirs: []string{"["}}, func([]string) {})
	if err == nil {
		t.Fatal("expected error for malformed exclude pattern")
	}
}

func TestWatcherBatchesChanges(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := New(Options{
		Debounce:     100 * time.Millisecond,
		ExcludeDirs:  []string{"exclude_dir"},
		ExcludeFiles: []string{"*.exclude"},
	}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "test.go")
	if err := os.WriteFile(testFile, []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for file change event")
	}

	excludeFile := filepath.Join(tmpDir, "test.exclude")
	if err := os.WriteFile(excludeFile, []byte("exclude me"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if filepath.Base(p) == "test.exclude" {
				t.Error("excluded file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected: nothing flushed for the excluded file.
	}

	// A directory created after Watch must be picked up recursively.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.go")
	if err := os.WriteFile(subFile, []byte("package nested"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					return
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcherRenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := New(Options{Debounce: 100 * time.Millisecond}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.go")
	newPath := filepath.Join(tmpDir, "new.go")
	if err := os.WriteFile(oldPath, []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcherLanguageFilters(t *testing.T) {
	w, err := New(Options{Debounce: 10 * time.Millisecond}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// No filters installed: everything passes except explicit excludes.
	if w.shouldExcludeFile("anything.xyz") {
		t.Fatal("expected unfiltered watcher to accept any file")
	}

	w.SetLanguageFilters([]string{".go"}, []string{"go.mod"}, []string{"_test.go"})

	if !w.shouldExcludeFile("main.py") {
		t.Fatal("expected .py to be excluded when .go is the only enabled extension")
	}
	if w.shouldExcludeFile("go.mod") {
		t.Fatal("expected go.mod to be included via filename filter")
	}
	if !w.shouldExcludeFile("main_test.go") {
		t.Fatal("expected _test.go files to be excluded")
	}
	if w.shouldExcludeFile("main.go") {
		t.Fatal("expected .go files to be included")
	}
}

func TestWatcherRateLimitDefersBatches(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := New(Options{
		Debounce: 20 * time.Millisecond,
		Rate:     5,
		Burst:    1,
	}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	first := filepath.Join(tmpDir, "first.go")
	if err := os.WriteFile(first, []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changedFiles:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first batch")
	}

	// The second batch exceeds the rate budget: it must defer, not drop.
	second := filepath.Join(tmpDir, "second.go")
	if err := os.WriteFile(second, []byte("package b"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == second {
					return
				}
			}
		case <-timeout:
			t.Fatal("rate-limited batch was dropped instead of deferred")
		}
	}
}
