package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codemap/internal/core/config"
)

func TestApplyModeOptions_RejectsOnceWithContinuousModes(t *testing.T) {
	tests := []struct {
		name string
		opts cliOptions
	}{
		{name: "watch", opts: cliOptions{once: true, watch: true}},
		{name: "ui", opts: cliOptions{once: true, ui: true}},
		{name: "serve", opts: cliOptions{once: true, serve: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if err := applyModeOptions(&opts, config.Default()); err == nil {
				t.Fatal("expected mode conflict error")
			}
		})
	}
}

func TestApplyModeOptions_OverridesScanRootsWithPositionalArgs(t *testing.T) {
	opts := cliOptions{args: []string{"./src", "./lib"}}
	cfg := config.Default()
	cfg.ScanRoots = []string{"./original"}

	if err := applyModeOptions(&opts, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.ScanRoots) != 2 || cfg.ScanRoots[0] != "./src" || cfg.ScanRoots[1] != "./lib" {
		t.Fatalf("unexpected scan roots: %v", cfg.ScanRoots)
	}
}

func TestApplyModeOptions_OutOverridesOutputDir(t *testing.T) {
	opts := cliOptions{out: "reports"}
	cfg := config.Default()

	if err := applyModeOptions(&opts, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Dir != "reports" {
		t.Fatalf("unexpected output dir: %q", cfg.Output.Dir)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      int
		wantError bool
	}{
		{name: "empty", input: "", want: 0},
		{name: "single", input: "markdown", want: 1},
		{name: "list with spaces", input: " tsv, json ,dot", want: 3},
		{name: "trailing comma", input: "mermaid,", want: 1},
		{name: "unknown", input: "yaml", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFormats(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d formats, got %v", tt.want, got)
			}
		})
	}
}

func TestParseOptions_UnknownFlag(t *testing.T) {
	if _, err := parseOptions([]string{"-bogus"}); err == nil {
		t.Fatal("expected flag parse error")
	}
}

func TestLoadConfig_DefaultDiscoveryOrder(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "data", "config", config.DefaultFile)
	if err := os.MkdirAll(filepath.Dir(nested), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(nested, []byte("project = \"nested\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, cfgPath, err := loadConfig(defaultConfigPath, tmpDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Project != "nested" {
		t.Fatalf("unexpected config payload: %+v", cfg)
	}
	if cfgPath != nested {
		t.Fatalf("unexpected config path: %q", cfgPath)
	}

	// A root-level file takes priority over the nested candidate.
	rootFile := filepath.Join(tmpDir, config.DefaultFile)
	if err := os.WriteFile(rootFile, []byte("project = \"root\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, cfgPath, err = loadConfig(defaultConfigPath, tmpDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Project != "root" || cfgPath != rootFile {
		t.Fatalf("expected root config to win, got %q from %q", cfg.Project, cfgPath)
	}
}

func TestLoadConfig_MissingDefaultUsesBuiltins(t *testing.T) {
	cfg, cfgPath, err := loadConfig(defaultConfigPath, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfgPath != "" {
		t.Fatalf("expected empty config path, got %q", cfgPath)
	}
	if cfg.Output.Markdown != "codemap.md" {
		t.Fatalf("expected built-in defaults, got %+v", cfg.Output)
	}
}

func TestLoadConfig_CustomPathNoFallback(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "custom.toml")

	_, _, err := loadConfig(custom, t.TempDir())
	if err == nil {
		t.Fatal("expected missing custom config error")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOpenHistoryStore_DBDisabled(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectRoot = tmpDir
	paths, err := config.ResolvePaths(cfg, tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	store, err := openHistoryStoreIfEnabled(cfg, paths)
	if err != nil {
		t.Fatal(err)
	}
	if store != nil {
		t.Fatal("expected nil store when db disabled")
	}
}

func TestOpenHistoryStore_UsesConfiguredDBPath(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectRoot = tmpDir
	cfg.DB.Enabled = true
	cfg.DB.Path = "nested/history.db"
	paths, err := config.ResolvePaths(cfg, tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	store, err := openHistoryStoreIfEnabled(cfg, paths)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if store.Path() != filepath.Join(tmpDir, "data", "state", "nested", "history.db") {
		t.Fatalf("unexpected history path: %q", store.Path())
	}
}

func TestLoadTrendReport_NilStore(t *testing.T) {
	if report := loadTrendReport(context.Background(), nil, "demo"); report != nil {
		t.Fatalf("expected nil report without a store, got %+v", report)
	}
}

func TestResolveLogPath_XDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", filepath.Join(t.TempDir(), "state"))

	got := resolveLogPath()
	if filepath.Base(got) != "codemap.log" {
		t.Fatalf("unexpected log file name: %q", got)
	}
	if filepath.Base(filepath.Dir(got)) != "codemap" {
		t.Fatalf("expected codemap state dir, got %q", got)
	}
}

func TestParseOptions_Formats(t *testing.T) {
	opts, err := parseOptions([]string{"-format", "markdown,tsv", "-once", "./src"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.once || opts.format != "markdown,tsv" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts.args) != 1 || opts.args[0] != "./src" {
		t.Fatalf("unexpected positional args: %v", opts.args)
	}

	if err := applyModeOptions(&opts, config.Default()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.formats) != 2 {
		t.Fatalf("expected 2 parsed formats, got %v", opts.formats)
	}
}

func TestOpenHistoryStore_RespectsBusyTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectRoot = tmpDir
	cfg.DB.Enabled = true
	cfg.DB.BusyTimeout = 250 * time.Millisecond
	paths, err := config.ResolvePaths(cfg, tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	store, err := openHistoryStoreIfEnabled(cfg, paths)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("expected store file on disk: %v", err)
	}
}
