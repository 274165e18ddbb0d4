// Package api - thin, deterministic quote API.
// The API is only responsible for input mapping, engine orchestration
// and output serialization. It never performs pricing logic of its own.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"carecost/adapters/rulestore"
	"carecost/api/envelope"
	"carecost/core/engine"
	"carecost/core/flatrate"
	"carecost/internal/errors"
)

// Server exposes the quote engine over HTTP
type Server struct {
	engine  *engine.Engine
	store   *rulestore.Store
	mux     *http.ServeMux
	version string
}

// NewServer creates the API server around an engine and its rule store
func NewServer(eng *engine.Engine, store *rulestore.Store, version string) *Server {
	s := &Server{
		engine:  eng,
		store:   store,
		mux:     http.NewServeMux(),
		version: version,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /quote", s.handleQuote)
	s.mux.HandleFunc("POST /quote/schedule", s.handleScheduleQuote)
	s.mux.HandleFunc("POST /quote/flat", s.handleFlatRate)

	s.mux.HandleFunc("GET /units", s.handleListUnits)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleQuote handles POST /quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := envelope.NewRequestID()

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Parsing("invalid JSON body", err))
		return
	}
	inputHash := envelope.HashInput(&req)

	in, err := req.ToInput()
	if err != nil {
		s.auditFail(r, requestID, inputHash, start, err)
		s.writeError(w, err)
		return
	}
	key := engine.SnapshotKey{VersionID: req.VersionID, UnitID: req.UnitID, UnitCode: req.UnitCode}
	quote, err := s.engine.Quote(r.Context(), key, in)
	if err != nil {
		s.auditFail(r, requestID, inputHash, start, err)
		s.writeError(w, err)
		return
	}

	resp := RenderQuote(quote)
	resp.Metadata = &envelope.Metadata{
		RequestID:     requestID,
		InputHash:     inputHash,
		SnapshotHash:  quote.SnapshotHash,
		RulesVersion:  quote.Result.RulesVersion,
		EngineVersion: s.version,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	s.audit(r, requestID, inputHash, start)
	s.writeJSON(w, resp, http.StatusOK)
}

// handleScheduleQuote handles POST /quote/schedule
func (s *Server) handleScheduleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := envelope.NewRequestID()

	var req ScheduleQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Parsing("invalid JSON body", err))
		return
	}
	inputHash := envelope.HashInput(&req)

	in, err := req.ToInput()
	if err != nil {
		s.auditFail(r, requestID, inputHash, start, err)
		s.writeError(w, err)
		return
	}
	sched, err := req.ToSchedule()
	if err != nil {
		s.auditFail(r, requestID, inputHash, start, err)
		s.writeError(w, err)
		return
	}
	key := engine.SnapshotKey{VersionID: req.VersionID, UnitID: req.UnitID, UnitCode: req.UnitCode}
	quote, err := s.engine.QuoteSchedule(r.Context(), key, in, sched)
	if err != nil {
		s.auditFail(r, requestID, inputHash, start, err)
		s.writeError(w, err)
		return
	}

	resp := RenderScheduleQuote(quote)
	resp.Metadata = &envelope.Metadata{
		RequestID:     requestID,
		InputHash:     inputHash,
		SnapshotHash:  quote.SnapshotHash,
		RulesVersion:  quote.Result.RulesVersion,
		EngineVersion: s.version,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	s.audit(r, requestID, inputHash, start)
	s.writeJSON(w, resp, http.StatusOK)
}

// handleFlatRate handles POST /quote/flat, the legacy calculator kept
// for one admin screen
func (s *Server) handleFlatRate(w http.ResponseWriter, r *http.Request) {
	var req FlatRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Parsing("invalid JSON body", err))
		return
	}
	tier, err := parseTierWire(req.Tier)
	if err != nil {
		s.writeError(w, err)
		return
	}
	patients := req.Patients
	if patients == 0 {
		patients = 1
	}
	res, err := flatrate.Calculate(flatrate.DefaultRates(), flatrate.Input{
		Tier:            tier,
		Hours:           req.Hours,
		Patients:        patients,
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, FlatRateResponse{
		Gross:         res.Gross.Amount().StringFixed(2),
		ExtraPatients: res.ExtraPatients.Amount().StringFixed(2),
		Discount:      res.Discount.Amount().StringFixed(2),
		Final:         res.Final.Amount().StringFixed(2),
	}, http.StatusOK)
}

// handleListUnits handles GET /units
func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	snaps := s.store.List()
	units := make([]UnitInfo, 0, len(snaps))
	for _, snap := range snaps {
		units = append(units, UnitInfo{
			UnitID:       snap.UnitID,
			UnitCode:     snap.UnitCode,
			UnitName:     snap.UnitName,
			Version:      snap.Version,
			Currency:     snap.Currency,
			Active:       snap.Active,
			SnapshotHash: snap.ContentHash().Hex(),
		})
	}
	s.writeJSON(w, map[string]interface{}{
		"units": units,
		"count": len(units),
	}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "carecost",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errType := errors.TypeInternal
	if e, ok := err.(*errors.Error); ok {
		errType = e.Type
		switch e.Type {
		case errors.TypeInput, errors.TypeParsing:
			status = http.StatusBadRequest
		case errors.TypeNotFound:
			status = http.StatusNotFound
		case errors.TypeRules, errors.TypeConfig:
			status = http.StatusUnprocessableEntity
		}
	}
	s.writeJSON(w, ErrorResponse{
		Error:   "request failed",
		Type:    string(errType),
		Message: err.Error(),
	}, status)
}

func (s *Server) audit(r *http.Request, requestID, inputHash string, start time.Time) {
	envelope.AuditEntry{
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
		InputHash:  inputHash,
		Route:      r.URL.Path,
		ClientIP:   r.RemoteAddr,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
	}.Log()
}

func (s *Server) auditFail(r *http.Request, requestID, inputHash string, start time.Time, err error) {
	envelope.AuditEntry{
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
		InputHash:  inputHash,
		Route:      r.URL.Path,
		ClientIP:   r.RemoteAddr,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    false,
		Error:      err.Error(),
	}.Log()
}
