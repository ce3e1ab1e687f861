package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file name looked up in the project root when
// no -config flag is given.
const DefaultFile = "codemap.toml"

type Config struct {
	Version   int                 `toml:"version"`
	Project   string              `toml:"project"`
	ScanRoots []string            `toml:"scan_roots"`
	Paths     Paths               `toml:"paths"`
	Exclude   Exclude             `toml:"exclude"`
	Languages map[string]Language `toml:"languages"`
	Watch     Watch               `toml:"watch"`
	Output    Output              `toml:"output"`
	DB        Database            `toml:"db"`
	HTTP      HTTP                `toml:"http"`
	Telemetry Telemetry           `toml:"telemetry"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
	DatabaseDir string `toml:"database_dir"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Language struct {
	Enabled             *bool    `toml:"enabled"`
	Extensions          []string `toml:"extensions"`
	Filenames           []string `toml:"filenames"`
	ClassMethodMarkers  []string `toml:"classmethod_markers"`
	StaticMethodMarkers []string `toml:"staticmethod_markers"`
}

func (l Language) IsEnabled() bool {
	if l.Enabled == nil {
		return true
	}
	return *l.Enabled
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// Rate caps re-analysis at this many events per second; zero means
	// uncapped. Burst is the limiter bucket size.
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

// Output names the report files written after a run. A format is enabled
// when its file name is set; all files land in Dir.
type Output struct {
	Dir      string `toml:"dir"`
	Markdown string `toml:"markdown"`
	Mermaid  string `toml:"mermaid"`
	DOT      string `toml:"dot"`
	TSV      string `toml:"tsv"`
	JSON     string `toml:"json"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type HTTP struct {
	Enabled         bool          `toml:"enabled"`
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	// RequestsPerMinute caps API requests per client IP; zero disables
	// the limiter. Burst is the per-client bucket size.
	RequestsPerMinute int `toml:"requests_per_minute"`
	Burst             int `toml:"burst"`
}

type Telemetry struct {
	Enabled      bool    `toml:"enabled"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRatio  float64 `toml:"sample_ratio"`
	ServiceName  string  `toml:"service_name"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateExclude(&cfg); err != nil {
		return nil, err
	}
	if err := validateLanguages(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateHTTP(&cfg); err != nil {
		return nil, err
	}
	if err := validateTelemetry(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	normalize(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/state"
	}

	// nil means the section was absent; an explicit empty list stays empty.
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{
			".git", "node_modules", "vendor", "target",
			"__pycache__", ".venv", "dist", "build",
		}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate > 0 && cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "docs/codemap"
	}
	if strings.TrimSpace(cfg.Output.Markdown) == "" {
		cfg.Output.Markdown = "codemap.md"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = "127.0.0.1:8787"
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if cfg.HTTP.RequestsPerMinute > 0 && cfg.HTTP.Burst == 0 {
		cfg.HTTP.Burst = 5
	}

	if strings.TrimSpace(cfg.Telemetry.OTLPEndpoint) == "" {
		cfg.Telemetry.OTLPEndpoint = "127.0.0.1:4317"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1.0
	}
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = "codemap"
	}
}

func normalize(cfg *Config) {
	cfg.Project = strings.TrimSpace(cfg.Project)
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.DB.Path = strings.TrimSpace(cfg.DB.Path)
	cfg.HTTP.Addr = strings.TrimSpace(cfg.HTTP.Addr)
	cfg.Telemetry.OTLPEndpoint = strings.TrimSpace(cfg.Telemetry.OTLPEndpoint)

	roots := make([]string, 0, len(cfg.ScanRoots))
	for _, root := range cfg.ScanRoots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		roots = append(roots, root)
	}
	cfg.ScanRoots = roots

	if len(cfg.Languages) == 0 {
		return
	}
	languages := make(map[string]Language, len(cfg.Languages))
	for id, settings := range cfg.Languages {
		languages[strings.ToLower(strings.TrimSpace(id))] = settings
	}
	cfg.Languages = languages
}
