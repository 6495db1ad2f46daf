// Package server exposes the demo HTTP API: metric cards, check and
// reveal actions, history, and health/metrics endpoints. It is a pure
// projection of controller state.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtrann/healthseal/internal/core/domain"
	"github.com/dtrann/healthseal/internal/core/registry"
	"github.com/dtrann/healthseal/internal/core/workflow"
	"github.com/dtrann/healthseal/internal/infra/storage"
)

// Config holds HTTP server settings.
type Config struct {
	Port int `yaml:"port"`
}

// Deps are the collaborators the server projects.
type Deps struct {
	Registry   *registry.Registry
	Controller *workflow.Controller
	History    storage.CheckRepository
	// NodeHealth and RelayerHealth probe the external sessions.
	NodeHealth    func(ctx context.Context) error
	RelayerHealth func(ctx context.Context) error
}

// Card is one metric's presentation row: definition plus current state.
type Card struct {
	ID          domain.MetricID     `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Unit        string              `json:"unit"`
	Min         uint32              `json:"min"`
	Max         uint32              `json:"max"`
	Placeholder uint32              `json:"placeholder"`
	Status      domain.HealthStatus `json:"status"`
	Checked     bool                `json:"checked"`
	LastTx      string              `json:"last_tx,omitempty"`
}

// Server is the demo HTTP server.
type Server struct {
	deps     Deps
	server   *http.Server
	deployed atomic.Bool
	log      *slog.Logger
}

// New creates the demo server.
func New(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()
	s := &Server{
		deps: deps,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: slog.Default(),
	}

	mux.HandleFunc("GET /api/metrics", s.handleCards)
	mux.HandleFunc("POST /api/metrics/{id}/check", s.requireDeployed(s.handleCheck))
	mux.HandleFunc("POST /api/metrics/{id}/reveal", s.requireDeployed(s.handleReveal))
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// SetDeployed flips the contract-deployed gate for workflow routes.
func (s *Server) SetDeployed(ok bool) {
	s.deployed.Store(ok)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) requireDeployed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.deployed.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "contract not deployed on this chain",
			})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards := make([]Card, 0, s.deps.Registry.Len())
	for _, def := range s.deps.Registry.List() {
		slot := s.deps.Controller.Slot(def.ID)
		cards = append(cards, Card{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Unit:        def.Unit,
			Min:         def.Min,
			Max:         def.Max,
			Placeholder: def.Placeholder,
			Status:      slot.Status,
			Checked:     slot.Checked,
			LastTx:      slot.LastTx,
		})
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := s.metricID(w, r)
	if !ok {
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	slot, err := s.deps.Controller.SubmitCheck(r.Context(), id, body.Value)
	if err != nil {
		s.log.Warn("check failed", "metric", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	id, ok := s.metricID(w, r)
	if !ok {
		return
	}

	st, err := s.deps.Controller.RevealStatus(r.Context(), id)
	if err != nil {
		s.log.Warn("reveal failed", "metric", id, "error", err)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metric": id,
		"status": st,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := s.deps.History.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	type probe struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	report := struct {
		Status   string `json:"status"`
		Deployed bool   `json:"contract_deployed"`
		Node     probe  `json:"node"`
		Relayer  probe  `json:"relayer"`
	}{
		Status:   "ok",
		Deployed: s.deployed.Load(),
		Node:     probe{OK: true},
		Relayer:  probe{OK: true},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.deps.NodeHealth != nil {
		if err := s.deps.NodeHealth(ctx); err != nil {
			report.Node = probe{Error: err.Error()}
		}
	}
	if s.deps.RelayerHealth != nil {
		if err := s.deps.RelayerHealth(ctx); err != nil {
			report.Relayer = probe{Error: err.Error()}
		}
	}

	code := http.StatusOK
	if !report.Deployed || !report.Node.OK || !report.Relayer.OK {
		report.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

func (s *Server) metricID(w http.ResponseWriter, r *http.Request) (domain.MetricID, bool) {
	raw := r.PathValue("id")
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || !s.deps.Registry.Has(domain.MetricID(n)) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("unknown metric code %q", raw),
		})
		return 0, false
	}
	return domain.MetricID(n), true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
