// Package server exposes the prediction engine over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/scorecast/scorecast/internal/config"
	"github.com/scorecast/scorecast/internal/logger"
	"github.com/scorecast/scorecast/internal/metrics"
	"github.com/scorecast/scorecast/pkg/engine"
	"github.com/scorecast/scorecast/pkg/store"
)

// Server wires HTTP routes to the engine, store and metrics.
type Server struct {
	cfg     *config.Config
	engCfg  *engine.Config
	store   *store.Store
	metrics *metrics.Manager

	predictor  *engine.EnsemblePredictor
	monteCarlo *engine.MonteCarloSimulator
	season     *engine.SeasonSimulator
}

// New creates a server around an already-opened store. The seed fixes the
// simulators' random streams.
func New(cfg *config.Config, engCfg *engine.Config, st *store.Store, m *metrics.Manager, seed int64) *Server {
	return &Server{
		cfg:        cfg,
		engCfg:     engCfg,
		store:      st,
		metrics:    m,
		predictor:  engine.NewEnsemblePredictor(engCfg, seed),
		monteCarlo: engine.NewMonteCarloSimulator(engine.NewRegressionEnsemble(engCfg), engCfg, seed),
		season:     engine.NewSeasonSimulator(engCfg, seed),
	}
}

// Router builds the route table. Specific routes first.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/predict", s.instrument("predict", s.handlePredict)).Methods(http.MethodPost)
	r.HandleFunc("/api/simulate/uncertainty", s.instrument("simulate_uncertainty", s.handleUncertainty)).Methods(http.MethodPost)
	r.HandleFunc("/api/simulate/season", s.instrument("simulate_season", s.handleSeason)).Methods(http.MethodPost)
	r.HandleFunc("/api/ratings/{league}", s.instrument("ratings", s.handleRatings)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.instrument("healthz", s.handleHealth)).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return r
}

// Serve runs the HTTP listener until it fails.
func (s *Server) Serve() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("HTTP server listening", s.cfg.Addr)
	return srv.ListenAndServe()
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, req)
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(recorder.status), time.Since(start))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
