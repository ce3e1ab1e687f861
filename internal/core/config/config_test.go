// # internal/core/config/config_test.go
package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	content := `
project = "acme"
scan_roots = ["./src", "./lib"]

[exclude]
dirs = [".git", "node_modules"]
files = ["*.min.js"]

[languages.python]
extensions = [".py"]
classmethod_markers = ["classmethod"]
staticmethod_markers = ["staticmethod", "abc.abstractstaticmethod"]

[watch]
debounce = "1s"
rate = 25.0
burst = 50

[output]
dir = "docs/map"
markdown = "map.md"
mermaid = "map.mmd"
dot = "deps.dot"
tsv = "edges.tsv"
json = "map.json"

[db]
enabled = true
path = "runs.db"

[http]
enabled = true
addr = "127.0.0.1:9000"

[telemetry]
enabled = true
otlp_endpoint = "collector:4317"
sample_ratio = 0.25
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Project != "acme" {
		t.Errorf("Expected project acme, got %s", cfg.Project)
	}
	if len(cfg.ScanRoots) != 2 || cfg.ScanRoots[0] != "./src" {
		t.Errorf("Unexpected ScanRoots: %v", cfg.ScanRoots)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.Rate != 25.0 || cfg.Watch.Burst != 50 {
		t.Errorf("Unexpected watch limits: rate=%v burst=%d", cfg.Watch.Rate, cfg.Watch.Burst)
	}
	if cfg.Output.Dir != "docs/map" {
		t.Errorf("Expected output dir docs/map, got %s", cfg.Output.Dir)
	}
	if cfg.Output.Mermaid != "map.mmd" {
		t.Errorf("Expected Mermaid map.mmd, got %s", cfg.Output.Mermaid)
	}
	if cfg.Output.JSON != "map.json" {
		t.Errorf("Expected JSON map.json, got %s", cfg.Output.JSON)
	}
	if !cfg.DB.Enabled || cfg.DB.Path != "runs.db" {
		t.Errorf("Unexpected db settings: enabled=%v path=%s", cfg.DB.Enabled, cfg.DB.Path)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("Expected http addr 127.0.0.1:9000, got %s", cfg.HTTP.Addr)
	}
	if cfg.Telemetry.OTLPEndpoint != "collector:4317" {
		t.Errorf("Expected otlp endpoint collector:4317, got %s", cfg.Telemetry.OTLPEndpoint)
	}
	if cfg.Telemetry.SampleRatio != 0.25 {
		t.Errorf("Expected sample ratio 0.25, got %v", cfg.Telemetry.SampleRatio)
	}

	python := cfg.Languages["python"]
	if len(python.StaticMethodMarkers) != 2 {
		t.Fatalf("Expected 2 staticmethod markers, got %d", len(python.StaticMethodMarkers))
	}
	if python.StaticMethodMarkers[1] != "abc.abstractstaticmethod" {
		t.Errorf("Unexpected marker: %s", python.StaticMethodMarkers[1])
	}
	if !python.IsEnabled() {
		t.Error("Expected python to default to enabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `project = "p"`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Output.Markdown != "codemap.md" {
		t.Errorf("Expected default markdown codemap.md, got %s", cfg.Output.Markdown)
	}
	if cfg.Output.Dir != "docs/codemap" {
		t.Errorf("Expected default output dir docs/codemap, got %s", cfg.Output.Dir)
	}
	if cfg.DB.BusyTimeout != 5*time.Second {
		t.Errorf("Expected default busy timeout 5s, got %v", cfg.DB.BusyTimeout)
	}
	if cfg.Telemetry.SampleRatio != 1.0 {
		t.Errorf("Expected default sample ratio 1.0, got %v", cfg.Telemetry.SampleRatio)
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("Expected default exclude dirs")
	}
}

func TestLoadExplicitEmptyExcludes(t *testing.T) {
	content := `
[exclude]
dirs = []
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Exclude.Dirs) != 0 {
		t.Errorf("Expected explicit empty exclude dirs to stay empty, got %v", cfg.Exclude.Dirs)
	}
}

func TestLoadError(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	if _, err := Load(writeConfig(t, "bad = toml = format")); err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unsupported version",
			content: `version = 9`,
			want:    "unsupported config version",
		},
		{
			name: "bad exclude pattern",
			content: `
[exclude]
dirs = ["[unclosed"]
`,
			want: "invalid pattern",
		},
		{
			name: "extension without dot",
			content: `
[languages.python]
extensions = ["py"]
`,
			want: "must start with a dot",
		},
		{
			name: "negative rate",
			content: `
[watch]
rate = -1.0
`,
			want: "watch.rate",
		},
		{
			name: "http without port",
			content: `
[http]
enabled = true
addr = "localhost"
`,
			want: "host:port",
		},
		{
			name: "sample ratio out of range",
			content: `
[telemetry]
sample_ratio = 1.5
`,
			want: "sample_ratio",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got %q", tc.want, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CODEMAP_PROJECT", "from-env")
	t.Setenv("CODEMAP_WATCH_DEBOUNCE", "2s")
	t.Setenv("CODEMAP_HTTP_ENABLED", "true")
	t.Setenv("CODEMAP_TELEMETRY_SAMPLE_RATIO", "0.5")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Project != "from-env" {
		t.Errorf("Expected project from-env, got %s", cfg.Project)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Expected debounce 2s, got %v", cfg.Watch.Debounce)
	}
	if !cfg.HTTP.Enabled {
		t.Error("Expected http enabled override")
	}
	if cfg.Telemetry.SampleRatio != 0.5 {
		t.Errorf("Expected sample ratio 0.5, got %v", cfg.Telemetry.SampleRatio)
	}
}

func TestLanguageKeysLowercased(t *testing.T) {
	content := `
[languages.Python]
extensions = [".py"]
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := cfg.Languages["python"]; !ok {
		t.Errorf("Expected lowercased language key, got %v", cfg.Languages)
	}
}
