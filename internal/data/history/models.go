package history

import "time"

const SchemaVersion = 1

// Run is one persisted analysis run: the aggregate counts of a settled
// graph, keyed by project and run id.
type Run struct {
	ID          string        `json:"id"`
	Project     string        `json:"project"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Files       int           `json:"files"`
	Symbols     int           `json:"symbols"`
	Imports     int           `json:"imports"`
	Edges       int           `json:"edges"`
	Unresolved  int           `json:"unresolved"`
	Diagnostics int           `json:"diagnostics"`
	Cycles      int           `json:"cycles"`
}

type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	RunID           string    `json:"run_id"`
	Files           int       `json:"files"`
	Symbols         int       `json:"symbols"`
	Imports         int       `json:"imports"`
	Edges           int       `json:"edges"`
	Unresolved      int       `json:"unresolved"`
	Diagnostics     int       `json:"diagnostics"`
	Cycles          int       `json:"cycles"`
	DeltaFiles      int       `json:"delta_files"`
	DeltaSymbols    int       `json:"delta_symbols"`
	DeltaImports    int       `json:"delta_imports"`
	DeltaUnresolved int       `json:"delta_unresolved"`
	DeltaCycles     int       `json:"delta_cycles"`
	FileGrowthPct   float64   `json:"file_growth_pct"`
	AvgUnresolved   float64   `json:"avg_unresolved"`
	AvgCycles       float64   `json:"avg_cycles"`
	WindowHours     float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Project       string       `json:"project"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
