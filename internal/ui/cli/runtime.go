// # internal/ui/cli/runtime.go

// Package cli is the command-line runtime behind cmd/codemap: flag
// parsing, config discovery, logging setup and the mode dispatch
// between one-shot, watch, UI and serve operation.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"codemap/internal/core/app"
	"codemap/internal/core/config"
	"codemap/internal/core/ports"
	"codemap/internal/data/history"
	"codemap/internal/httpapi"
	"codemap/internal/shared/observability"
	"codemap/internal/shared/version"
	"codemap/internal/ui"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("codemap v%s\n", version.Version)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	config.ApplyEnvOverrides(cfg)

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTracing(
			ctx,
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			version.Version,
			cfg.Telemetry.SampleRatio,
		)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(flushCtx)
			}()
		}
	}

	a, err := app.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() { _ = a.Close() }()
	analysis := a.AnalysisService()

	result, err := analysis.RunScan(ctx, ports.ScanRequest{})
	if err != nil {
		slog.Error("initial scan failed", "error", err)
		return 1
	}

	store, err := openHistoryStoreIfEnabled(cfg, paths)
	if err != nil {
		slog.Error("history setup failed", "error", err)
		return 1
	}
	if store != nil {
		defer store.Close()
		if err := analysis.CaptureHistory(ctx, store); err != nil {
			slog.Warn("failed to record run history", "error", err)
		}
	}

	if _, err := analysis.SyncOutputs(ctx, ports.SyncOutputsRequest{Formats: opts.formats}); err != nil {
		slog.Error("failed to generate outputs", "error", err)
		if len(opts.formats) > 0 {
			return 1
		}
	}

	if !opts.ui {
		summary, err := analysis.SummarySnapshot(ctx)
		if err != nil {
			slog.Error("failed to collect summary snapshot", "error", err)
			return 1
		}
		if err := analysis.PrintSummary(ctx, ports.SummaryPrintRequest{
			Duration: result.Duration,
			Snapshot: summary,
		}); err != nil {
			slog.Error("failed to print summary", "error", err)
			return 1
		}
	}

	if opts.once {
		return 0
	}
	serveAPI := opts.serve || cfg.HTTP.Enabled
	watchMode := opts.watch || opts.ui
	if !watchMode && !serveAPI {
		return 0
	}

	if serveAPI {
		api, err := httpapi.NewServer(analysis, cfg.HTTP)
		if err != nil {
			slog.Error("failed to build http api", "error", err)
			return 1
		}
		if err := api.Start(ctx); err != nil {
			slog.Error("failed to start http api", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = api.Stop(stopCtx)
		}()
	}

	if watchMode {
		watch := analysis.WatchService()
		if watch == nil {
			slog.Error("watch service unavailable")
			return 1
		}
		if err := watch.Start(ctx); err != nil {
			slog.Error("failed to start watcher", "error", err)
			return 1
		}

		if cfgPath != "" {
			reload := config.NewWatcher(cfgPath, func(next *config.Config) {
				config.ApplyEnvOverrides(next)
				if err := a.RestartWatcher(ctx, next); err != nil {
					slog.Warn("failed to apply reloaded watch settings", "error", err)
				}
			})
			if err := reload.Start(ctx); err != nil {
				slog.Warn("config reload watcher unavailable", "error", err)
			} else {
				defer reload.Stop()
			}
		}
	}

	if opts.ui {
		trend := loadTrendReport(ctx, store, paths.ProjectName)
		if err := ui.Run(ctx, analysis, trend); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	if watchMode {
		if err := analysis.WatchService().Subscribe(ctx, func(u ports.WatchUpdate) {
			slog.Info("analysis updated",
				"files", u.Files,
				"edges", u.Edges,
				"unresolved", u.Unresolved,
				"diagnostics", u.Diagnostics,
				"cycles", len(u.Cycles),
				"changed", len(u.Changed),
			)
		}); err != nil {
			slog.Error("failed to subscribe to watch updates", "error", err)
			return 1
		}
	}

	<-ctx.Done()
	return 0
}

// applyModeOptions validates flag combinations and folds overrides into
// the loaded config before paths resolve.
func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.once && (opts.watch || opts.ui || opts.serve) {
		return fmt.Errorf("-once cannot be combined with -watch, -ui, or -serve")
	}

	formats, err := parseFormats(opts.format)
	if err != nil {
		return err
	}
	opts.formats = formats

	if len(opts.args) > 0 {
		cfg.ScanRoots = append([]string(nil), opts.args...)
	}
	if strings.TrimSpace(opts.out) != "" {
		cfg.Output.Dir = strings.TrimSpace(opts.out)
	}
	return nil
}

// parseFormats splits the -format value. Names mirror the output
// service's accepted set so bad values fail before the scan runs.
func parseFormats(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	known := map[string]bool{"markdown": true, "mermaid": true, "dot": true, "tsv": true, "json": true}
	formats := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown output format %q (expected markdown, mermaid, dot, tsv, or json)", part)
		}
		formats = append(formats, name)
	}
	if len(formats) == 0 {
		return nil, nil
	}
	return formats, nil
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidates, err := discoverDefaultConfig(cwd)
	if err != nil {
		return nil, "", err
	}

	for _, candidate := range candidates {
		cfg, loadErr := config.Load(candidate)
		if loadErr == nil {
			return cfg, candidate, nil
		}
		if os.IsNotExist(loadErr) {
			continue
		}
		return nil, "", loadErr
	}

	slog.Debug("no config file found, using built-in defaults")
	return config.Default(), "", nil
}

func discoverDefaultConfig(cwd string) ([]string, error) {
	if strings.TrimSpace(cwd) == "" {
		return nil, fmt.Errorf("cwd must not be empty")
	}
	return []string{
		filepath.Clean(filepath.Join(cwd, config.DefaultFile)),
		filepath.Clean(filepath.Join(cwd, "data/config", config.DefaultFile)),
	}, nil
}

func openHistoryStoreIfEnabled(cfg *config.Config, paths config.ResolvedPaths) (*history.Store, error) {
	if !cfg.DB.Enabled {
		return nil, nil
	}

	store, err := history.OpenWithTimeout(paths.DBPath, cfg.DB.BusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

// loadTrendReport feeds the UI trend overlay. Failures degrade to no
// overlay rather than blocking the dashboard.
func loadTrendReport(ctx context.Context, store *history.Store, project string) *history.TrendReport {
	if store == nil {
		return nil
	}

	runs, err := store.Trend(ctx, project, time.Time{})
	if err != nil {
		slog.Warn("history trend unavailable", "error", err)
		return nil
	}
	report, err := history.ComputeTrend(project, runs, 24*time.Hour)
	if err != nil {
		slog.Warn("failed to compute trend report", "error", err)
		return nil
	}
	return &report
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	closeFn := func() {}
	if uiMode {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "codemap", "codemap.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "codemap", "codemap.log")
	}

	return "codemap.log"
}
