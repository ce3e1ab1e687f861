package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: CODEMAP_[SECTION]_[KEY].
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Project, "CODEMAP_PROJECT")
	setEnvString(&cfg.Paths.ProjectRoot, "CODEMAP_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "CODEMAP_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "CODEMAP_PATHS_DATABASE_DIR")

	setEnvDuration(&cfg.Watch.Debounce, "CODEMAP_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "CODEMAP_WATCH_RATE")
	setEnvInt(&cfg.Watch.Burst, "CODEMAP_WATCH_BURST")

	setEnvString(&cfg.Output.Dir, "CODEMAP_OUTPUT_DIR")

	setEnvBool(&cfg.DB.Enabled, "CODEMAP_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "CODEMAP_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "CODEMAP_DB_BUSY_TIMEOUT")

	setEnvBool(&cfg.HTTP.Enabled, "CODEMAP_HTTP_ENABLED")
	setEnvString(&cfg.HTTP.Addr, "CODEMAP_HTTP_ADDR")

	setEnvBool(&cfg.Telemetry.Enabled, "CODEMAP_TELEMETRY_ENABLED")
	setEnvString(&cfg.Telemetry.OTLPEndpoint, "CODEMAP_TELEMETRY_OTLP_ENDPOINT")
	setEnvFloat64(&cfg.Telemetry.SampleRatio, "CODEMAP_TELEMETRY_SAMPLE_RATIO")
	setEnvString(&cfg.Telemetry.ServiceName, "CODEMAP_TELEMETRY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Info("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
