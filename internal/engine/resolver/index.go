// # internal/engine/resolver/index.go
package resolver

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Index is the set of project files a resolution pass may target. Paths
// are stored slash-separated and relative to the project root, matching
// the keys the graph uses for its nodes. Lookups never touch the
// filesystem, so linking sees exactly the files the scanner accepted.
type Index struct {
	mu    sync.RWMutex
	root  string
	files map[string]bool
	dirs  map[string][]string
}

func NewIndex(root string) *Index {
	if root == "" {
		root = "."
	}
	return &Index{
		root:  filepath.ToSlash(filepath.Clean(root)),
		files: make(map[string]bool),
		dirs:  make(map[string][]string),
	}
}

func (ix *Index) Root() string {
	return ix.root
}

// Normalize converts a scanner path to the index's canonical form:
// slash-separated, cleaned, relative to the root when it lies below it.
func (ix *Index) Normalize(p string) string {
	p = filepath.ToSlash(p)
	if ix.root != "" && ix.root != "." {
		if rel, ok := strings.CutPrefix(p, ix.root+"/"); ok {
			p = rel
		}
	}
	return path.Clean(p)
}

func (ix *Index) Add(p string) {
	p = ix.Normalize(p)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.files[p] {
		return
	}
	ix.files[p] = true
	dir := path.Dir(p)
	names := append(ix.dirs[dir], path.Base(p))
	sort.Strings(names)
	ix.dirs[dir] = names
}

func (ix *Index) Remove(p string) {
	p = ix.Normalize(p)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.files[p] {
		return
	}
	delete(ix.files, p)
	dir, base := path.Dir(p), path.Base(p)
	old := ix.dirs[dir]
	names := old[:0]
	for _, n := range old {
		if n != base {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		delete(ix.dirs, dir)
	} else {
		ix.dirs[dir] = names
	}
}

func (ix *Index) Has(p string) bool {
	p = ix.Normalize(p)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.files[p]
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.files)
}

// DirFiles returns the sorted base names of indexed files directly in dir.
func (ix *Index) DirFiles(dir string) []string {
	dir = path.Clean(dir)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := ix.dirs[dir]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// FilesWithSuffix returns every indexed path that equals suffix or ends
// with "/"+suffix, shortest path first, ties broken lexicographically.
func (ix *Index) FilesWithSuffix(suffix string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []string
	for p := range ix.files {
		if p == suffix || strings.HasSuffix(p, "/"+suffix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
