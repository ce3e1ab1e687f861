package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"

	"codemap/internal/shared/util"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude.dirs[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude.files[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	for language, settings := range cfg.Languages {
		if language == "" {
			return fmt.Errorf("languages key must not be empty")
		}
		for _, ext := range settings.Extensions {
			if strings.TrimSpace(ext) == "" {
				return fmt.Errorf("languages.%s.extensions must not include empty values", language)
			}
			if !strings.HasPrefix(ext, ".") {
				return fmt.Errorf("languages.%s.extensions entries must start with a dot, got %q", language, ext)
			}
		}
		for _, name := range settings.Filenames {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("languages.%s.filenames must not include empty values", language)
			}
		}
		for _, marker := range settings.ClassMethodMarkers {
			if strings.TrimSpace(marker) == "" {
				return fmt.Errorf("languages.%s.classmethod_markers must not include empty values", language)
			}
		}
		for _, marker := range settings.StaticMethodMarkers {
			if strings.TrimSpace(marker) == "" {
				return fmt.Errorf("languages.%s.staticmethod_markers must not include empty values", language)
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.Rate < 0 {
		return fmt.Errorf("watch.rate must be >= 0, got %v", cfg.Watch.Rate)
	}
	if cfg.Watch.Rate > 0 && cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1 when watch.rate is set, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	names := map[string]string{
		"output.markdown": cfg.Output.Markdown,
		"output.mermaid":  cfg.Output.Mermaid,
		"output.dot":      cfg.Output.DOT,
		"output.tsv":      cfg.Output.TSV,
		"output.json":     cfg.Output.JSON,
	}
	for _, key := range util.SortedStringKeys(names) {
		if util.ContainsPathSeparator(names[key]) {
			return fmt.Errorf("%s must be a file name inside output.dir, got %q", key, names[key])
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled=true")
	}
	if cfg.DB.BusyTimeout <= 0 {
		return fmt.Errorf("db.busy_timeout must be positive, got %v", cfg.DB.BusyTimeout)
	}
	return nil
}

func validateHTTP(cfg *Config) error {
	if !cfg.HTTP.Enabled {
		return nil
	}
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must not be empty when http.enabled=true")
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("http.addr must be host:port, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RequestsPerMinute < 0 {
		return fmt.Errorf("http.requests_per_minute must not be negative, got %d", cfg.HTTP.RequestsPerMinute)
	}
	return nil
}

func validateTelemetry(cfg *Config) error {
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0 and 1, got %v", cfg.Telemetry.SampleRatio)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otlp_endpoint must not be empty when telemetry.enabled=true")
	}
	return nil
}
