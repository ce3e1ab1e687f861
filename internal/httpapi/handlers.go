package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codemap/internal/core/errors"
	"codemap/internal/core/ports"
	"codemap/internal/engine/graph"
	"codemap/internal/engine/parser"
	"codemap/internal/shared/version"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type summaryResponse struct {
	Project     string             `json:"project"`
	Files       int                `json:"files"`
	Symbols     int                `json:"symbols"`
	Imports     int                `json:"imports"`
	Edges       int                `json:"edges"`
	Unresolved  []unresolvedImport `json:"unresolved"`
	Diagnostics []fileDiagnostic   `json:"diagnostics"`
	Cycles      [][]string         `json:"cycles"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type unresolvedImport struct {
	Path   string        `json:"path"`
	Import parser.Import `json:"import"`
}

type fileDiagnostic struct {
	Path       string            `json:"path"`
	Diagnostic parser.Diagnostic `json:"diagnostic"`
}

type fileListResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

type fileDetailResponse struct {
	File       parser.FileMap     `json:"file"`
	Importers  []string           `json:"importers"`
	Dependents []string           `json:"dependents"`
	Metrics    *graph.FileMetrics `json:"metrics,omitempty"`
}

type edgeListResponse struct {
	Edges []graph.Edge `json:"edges"`
	Count int          `json:"count"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Version: version.Version})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.SummarySnapshot(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSummaryResponse(snap))
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.ListFiles(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, r, http.StatusOK, fileListResponse{Files: files, Count: len(files)})
}

func (s *Server) handleFileDetail(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/v1/files/")
	if rel == "" {
		writeError(w, r, http.StatusNotFound, string(errors.CodeNotFound), "file path is required")
		return
	}

	file, err := s.service.FileMap(r.Context(), rel)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	importers, err := s.service.Importers(r.Context(), rel)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dependents, err := s.service.Dependents(r.Context(), rel)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	metrics, err := s.service.GraphMetrics(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := fileDetailResponse{
		File:       *file,
		Importers:  importers,
		Dependents: dependents,
	}
	if resp.Importers == nil {
		resp.Importers = []string{}
	}
	if resp.Dependents == nil {
		resp.Dependents = []string{}
	}
	if fm, ok := metrics.PerFile[rel]; ok {
		resp.Metrics = &fm
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleEdges(w http.ResponseWriter, r *http.Request) {
	onlyUnresolved := false
	if raw := r.URL.Query().Get("unresolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, string(errors.CodeValidationError),
				fmt.Sprintf("invalid unresolved value %q", raw))
			return
		}
		onlyUnresolved = v
	}

	snap, err := s.service.GraphSnapshot(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	edges := snap.Edges
	if onlyUnresolved {
		filtered := make([]graph.Edge, 0, len(edges))
		for _, e := range edges {
			if e.To == graph.Unknown {
				filtered = append(filtered, e)
			}
		}
		edges = filtered
	}
	if edges == nil {
		edges = []graph.Edge{}
	}
	writeJSON(w, r, http.StatusOK, edgeListResponse{Edges: edges, Count: len(edges)})
}

func toSummaryResponse(snap ports.SummarySnapshot) summaryResponse {
	unresolved := make([]unresolvedImport, 0, len(snap.Unresolved))
	for _, u := range snap.Unresolved {
		unresolved = append(unresolved, unresolvedImport{Path: u.Path, Import: u.Import})
	}
	diagnostics := make([]fileDiagnostic, 0, len(snap.Diagnostics))
	for _, d := range snap.Diagnostics {
		diagnostics = append(diagnostics, fileDiagnostic{Path: d.Path, Diagnostic: d.Diagnostic})
	}
	cycles := snap.Cycles
	if cycles == nil {
		cycles = [][]string{}
	}
	return summaryResponse{
		Project:     snap.Project,
		Files:       snap.Files,
		Symbols:     snap.Symbols,
		Imports:     snap.Imports,
		Edges:       snap.Edges,
		Unresolved:  unresolved,
		Diagnostics: diagnostics,
		Cycles:      cycles,
		GeneratedAt: snap.GeneratedAt,
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := errors.CodeInternal
	switch {
	case errors.IsCode(err, errors.CodeNotFound):
		status, code = http.StatusNotFound, errors.CodeNotFound
	case errors.IsCode(err, errors.CodeValidationError):
		status, code = http.StatusBadRequest, errors.CodeValidationError
	case errors.IsCode(err, errors.CodePermissionDenied):
		status, code = http.StatusForbidden, errors.CodePermissionDenied
	case errors.IsCode(err, errors.CodeNotSupported):
		status, code = http.StatusNotImplemented, errors.CodeNotSupported
	}
	writeError(w, r, status, string(code), err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, errorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode http response", "path", r.URL.Path, "error", err)
	}
}
