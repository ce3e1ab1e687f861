package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codemap_parse_seconds",
		Help:    "Time spent parsing and extracting a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codemap_files_analyzed_total",
		Help: "Total number of files analyzed, by language.",
	}, []string{"language"})

	SymbolsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codemap_symbols_total",
		Help: "Total number of symbol records held in the project graph.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codemap_graph_nodes_total",
		Help: "Total number of file nodes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codemap_graph_edges_total",
		Help: "Total number of import edges in the dependency graph.",
	})

	UnresolvedImports = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codemap_unresolved_imports_total",
		Help: "Import edges currently pointing at the unknown node.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codemap_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codemap_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)
