package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths carries every location the runtime needs as absolute,
// cleaned paths, anchored once so the rest of the code never joins
// config values itself.
type ResolvedPaths struct {
	ProjectRoot string
	ProjectName string
	ScanRoots   []string
	StateDir    string
	DatabaseDir string
	DBPath      string
	OutputDir   string
}

func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	scanRoots := make([]string, 0, len(cfg.ScanRoots))
	for _, root := range cfg.ScanRoots {
		scanRoots = append(scanRoots, ResolveRelative(cwd, root))
	}

	projectRoot := cfg.Paths.ProjectRoot
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot(append(append([]string(nil), scanRoots...), cwd))
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	if len(scanRoots) == 0 {
		scanRoots = []string{projectRoot}
	}

	stateDir := ResolveRelative(projectRoot, cfg.Paths.StateDir)
	databaseDir := ResolveRelative(projectRoot, cfg.Paths.DatabaseDir)

	dbPath := cfg.DB.Path
	if filepath.IsAbs(dbPath) {
		dbPath = filepath.Clean(dbPath)
	} else {
		dbPath = filepath.Join(databaseDir, dbPath)
	}

	outputDir := ResolveRelative(projectRoot, cfg.Output.Dir)

	projectName := cfg.Project
	if projectName == "" {
		projectName = filepath.Base(projectRoot)
	}

	return ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		ProjectName: projectName,
		ScanRoots:   scanRoots,
		StateDir:    filepath.Clean(stateDir),
		DatabaseDir: filepath.Clean(databaseDir),
		DBPath:      filepath.Clean(dbPath),
		OutputDir:   filepath.Clean(outputDir),
	}, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks upward from each candidate until a root marker
// is found; the first hit wins. Falls back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"go.mod",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
