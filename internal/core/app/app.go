// # internal/core/app/app.go
package app

import (
	"crypto/sha256"
	"sync"
	"time"

	"codemap/internal/core/config"
	"codemap/internal/engine/graph"
	"codemap/internal/engine/parser"
	"codemap/internal/engine/resolver"
	"codemap/internal/shared/util"
	"codemap/internal/watcher"
)

// parseCacheSize bounds the number of analyzed files whose parse results
// are kept for content-hash reuse.
const parseCacheSize = 512

// Update is the state pushed to subscribers after every applied change
// batch. Counts come from the settled graph, Changed lists the files the
// batch touched.
type Update struct {
	Files       int
	Edges       int
	Unresolved  int
	Diagnostics int
	Cycles      [][]string
	Changed     []string
	At          time.Time
}

type parseEntry struct {
	sum  [sha256.Size]byte
	file *parser.FileMap
}

// App wires the parser, file index, resolver and graph into one analysis
// pipeline rooted at a single project directory.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	Parser   *parser.Parser
	Index    *resolver.Index
	Resolver *resolver.Resolver
	Graph    *graph.Graph

	parseCache *util.LRU[string, parseEntry]

	updateMu sync.RWMutex
	onUpdate func(Update)

	watcherMu     sync.Mutex
	activeWatcher *watcher.Watcher

	runMu       sync.Mutex
	lastRunID   string
	lastRunAt   time.Time
	lastRunTook time.Duration
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	registry, err := buildParserRegistry(cfg)
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoaderWithRegistry(registry)
	if err != nil {
		return nil, err
	}

	p := parser.NewParser(loader)
	if err := registerConfiguredExtractors(p, cfg); err != nil {
		return nil, err
	}
	if err := p.RegisterDefaultExtractors(); err != nil {
		return nil, err
	}

	index := resolver.NewIndex(paths.ProjectRoot)
	return &App{
		Config:     cfg,
		Paths:      paths,
		Parser:     p,
		Index:      index,
		Resolver:   resolver.New(index),
		Graph:      graph.NewGraph(),
		parseCache: util.NewLRU[string, parseEntry](parseCacheSize),
	}, nil
}

func buildParserRegistry(cfg *config.Config) (map[string]parser.LanguageSpec, error) {
	overrides := make(map[string]parser.LanguageOverride, len(cfg.Languages))
	for lang, languageCfg := range cfg.Languages {
		overrides[lang] = parser.LanguageOverride{
			Enabled:    languageCfg.Enabled,
			Extensions: append([]string(nil), languageCfg.Extensions...),
			Filenames:  append([]string(nil), languageCfg.Filenames...),
		}
	}
	return parser.BuildLanguageRegistry(overrides)
}

// registerConfiguredExtractors installs extractors whose capability table
// is extended by config, ahead of the stock registrations.
func registerConfiguredExtractors(p *parser.Parser, cfg *config.Config) error {
	languageCfg, ok := cfg.Languages["python"]
	if !ok || (len(languageCfg.ClassMethodMarkers) == 0 && len(languageCfg.StaticMethodMarkers) == 0) {
		return nil
	}
	caps := parser.PythonCapabilities()
	caps.ClassMethodMarkers = append(caps.ClassMethodMarkers, languageCfg.ClassMethodMarkers...)
	caps.StaticMethodMarkers = append(caps.StaticMethodMarkers, languageCfg.StaticMethodMarkers...)
	ext, err := parser.NewPythonExtractorWithCapabilities(caps)
	if err != nil {
		return err
	}
	return p.RegisterExtractor(ext)
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// CurrentUpdate summarizes the graph as it stands, with no changed files.
func (a *App) CurrentUpdate() Update {
	return a.buildUpdate(nil)
}

func (a *App) buildUpdate(changed []string) Update {
	metrics := a.Graph.Metrics()
	return Update{
		Files:       metrics.Files,
		Edges:       metrics.Edges,
		Unresolved:  metrics.UnknownEdges,
		Diagnostics: metrics.Diagnostics,
		Cycles:      a.Graph.DetectCycles(),
		Changed:     append([]string(nil), changed...),
		At:          time.Now().UTC(),
	}
}

func (a *App) recordRun(id string, startedAt time.Time, took time.Duration) {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	a.lastRunID = id
	a.lastRunAt = startedAt
	a.lastRunTook = took
}

func (a *App) lastRun() (string, time.Time, time.Duration) {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.lastRunID, a.lastRunAt, a.lastRunTook
}

// Close stops the active watcher if one is running.
func (a *App) Close() error {
	a.watcherMu.Lock()
	w := a.activeWatcher
	a.activeWatcher = nil
	a.watcherMu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
