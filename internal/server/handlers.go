package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/scorecast/scorecast/internal/logger"
	"github.com/scorecast/scorecast/pkg/engine"
)

// predictRequest asks for a single-fixture prediction. When Features is
// omitted the vector is derived from the league's stored match history.
type predictRequest struct {
	League   string                     `json:"league"`
	HomeTeam string                     `json:"home_team"`
	AwayTeam string                     `json:"away_team"`
	Features *engine.PredictionFeatures `json:"features,omitempty"`
}

func (r predictRequest) validate() error {
	switch {
	case strings.TrimSpace(r.League) == "":
		return errors.New("missing league")
	case strings.TrimSpace(r.HomeTeam) == "":
		return errors.New("missing home_team")
	case strings.TrimSpace(r.AwayTeam) == "":
		return errors.New("missing away_team")
	case r.HomeTeam == r.AwayTeam:
		return errors.New("home_team and away_team must differ")
	}
	return nil
}

type predictResponse struct {
	ID         string                   `json:"id"`
	HomeTeam   string                   `json:"home_team"`
	AwayTeam   string                   `json:"away_team"`
	Prediction *engine.PredictionResult `json:"prediction"`
}

func (s *Server) handlePredict(w http.ResponseWriter, req *http.Request) {
	var body predictRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	history, err := s.store.PlayedMatchesFor(body.League)
	if err != nil {
		s.metrics.RecordPredictionError()
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return
	}

	features := engine.BuildFeatures(history, body.HomeTeam, body.AwayTeam)
	if body.Features != nil {
		features = *body.Features
	}

	ctx, cancel := s.requestContext(req)
	defer cancel()

	result, err := s.predictor.Predict(ctx, body.HomeTeam, body.AwayTeam, features, history)
	if err != nil {
		s.metrics.RecordPredictionError()
		writeError(w, statusFor(err), "prediction_failed", err)
		return
	}
	s.metrics.RecordPrediction(result.ModelType)

	id := uuid.NewString()
	if err := s.store.SavePrediction(id, body.League, body.HomeTeam, body.AwayTeam, result); err != nil {
		logger.Warn("Failed to persist prediction", err)
	}

	writeJSON(w, http.StatusOK, predictResponse{
		ID:         id,
		HomeTeam:   body.HomeTeam,
		AwayTeam:   body.AwayTeam,
		Prediction: result,
	})
}

// uncertaintyRequest asks for a Monte Carlo uncertainty estimate around an
// explicit feature vector.
type uncertaintyRequest struct {
	Features   engine.PredictionFeatures `json:"features"`
	Iterations int                       `json:"iterations"`
}

func (s *Server) handleUncertainty(w http.ResponseWriter, req *http.Request) {
	var body uncertaintyRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if body.Iterations > s.cfg.MonteCarloIterations {
		body.Iterations = s.cfg.MonteCarloIterations
	}

	ctx, cancel := s.requestContext(req)
	defer cancel()

	start := time.Now()
	result, err := s.monteCarlo.Run(ctx, body.Features, body.Iterations)
	if err != nil {
		s.metrics.RecordPredictionError()
		writeError(w, statusFor(err), "simulation_failed", err)
		return
	}
	s.metrics.RecordSimulation("uncertainty", time.Since(start), result.Iterations)

	writeJSON(w, http.StatusOK, result)
}

// seasonRequest asks for a season simulation. When Fixtures is empty the
// fixture list is loaded from the store.
type seasonRequest struct {
	League   string               `json:"league"`
	Season   string               `json:"season"`
	Trials   int                  `json:"trials"`
	Fixtures []engine.SeasonMatch `json:"fixtures,omitempty"`
}

func (r seasonRequest) validate() error {
	switch {
	case strings.TrimSpace(r.League) == "":
		return errors.New("missing league")
	case strings.TrimSpace(r.Season) == "":
		return errors.New("missing season")
	}
	return nil
}

func (s *Server) handleSeason(w http.ResponseWriter, req *http.Request) {
	var body seasonRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if body.Trials > s.cfg.SeasonTrials {
		body.Trials = s.cfg.SeasonTrials
	}

	fixtures := body.Fixtures
	if len(fixtures) == 0 {
		var err error
		fixtures, err = s.store.MatchesFor(body.League)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error", err)
			return
		}
	} else if err := s.store.SaveMatches(body.League, body.Season, fixtures); err != nil {
		logger.Warn("Failed to persist fixtures", err)
	}

	ctx, cancel := s.requestContext(req)
	defer cancel()

	start := time.Now()
	result, err := s.season.Simulate(ctx, body.League, body.Season, fixtures, body.Trials)
	if err != nil {
		writeError(w, statusFor(err), "simulation_failed", err)
		return
	}
	s.metrics.RecordSimulation("season", time.Since(start), result.Trials)

	if err := s.store.SaveSeasonSimulation(result); err != nil {
		logger.Warn("Failed to persist season simulation", err)
	}

	writeJSON(w, http.StatusOK, result)
}

type ratingsResponse struct {
	League  string                      `json:"league"`
	Ratings map[string]engine.EloRating `json:"ratings"`
}

// handleRatings replays the league's stored results through a fresh rating
// system and returns the current table of ratings.
func (s *Server) handleRatings(w http.ResponseWriter, req *http.Request) {
	league := mux.Vars(req)["league"]

	history, err := s.store.PlayedMatchesFor(league)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return
	}
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no_history", errors.New("no completed matches for league "+league))
		return
	}

	elo := engine.NewEloRatingSystem(s.engCfg)
	elo.Replay(history)
	writeJSON(w, http.StatusOK, ratingsResponse{League: league, Ratings: elo.Ratings()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestContext bounds every request by the configured timeout.
func (s *Server) requestContext(req *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.cfg.RequestTimeoutMS) * time.Millisecond
	return context.WithTimeout(req.Context(), timeout)
}

// statusFor maps engine errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidFeatureInput):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrEmptyDataset):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
