package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorecast/scorecast/internal/config"
	"github.com/scorecast/scorecast/internal/metrics"
	"github.com/scorecast/scorecast/pkg/engine"
	"github.com/scorecast/scorecast/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.New()
	cfg.DBPath = ":memory:"
	cfg.MonteCarloIterations = 200
	cfg.SeasonTrials = 100

	engCfg := engine.DefaultConfig()
	engCfg.MonteCarloIterations = cfg.MonteCarloIterations
	engCfg.SeasonMaxTrials = cfg.SeasonTrials

	st, err := store.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return New(cfg, engCfg, st, metrics.NewManager(), 42)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func seedHistory(t *testing.T, srv *Server) {
	t.Helper()
	base := time.Date(2025, 8, 9, 15, 0, 0, 0, time.UTC)
	matches := []engine.SeasonMatch{
		{HomeTeam: "Leeds", AwayTeam: "Norwich", Date: base, Played: true, HomeGoals: 3, AwayGoals: 0},
		{HomeTeam: "Norwich", AwayTeam: "Leeds", Date: base.AddDate(0, 0, 7), Played: true, HomeGoals: 1, AwayGoals: 2},
		{HomeTeam: "Leeds", AwayTeam: "Ipswich", Date: base.AddDate(0, 0, 14), Played: true, HomeGoals: 2, AwayGoals: 2},
		{HomeTeam: "Ipswich", AwayTeam: "Norwich", Date: base.AddDate(0, 0, 21), Played: true, HomeGoals: 0, AwayGoals: 1},
		{HomeTeam: "Norwich", AwayTeam: "Ipswich", Date: base.AddDate(0, 0, 28)},
	}
	require.NoError(t, srv.store.SaveMatches("championship", "2025/2026", matches))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPredictWithExplicitFeatures(t *testing.T) {
	srv := newTestServer(t)

	body := map[string]interface{}{
		"league":    "championship",
		"home_team": "Leeds",
		"away_team": "Norwich",
		"features": engine.PredictionFeatures{
			HomeTeamForm:          0.8,
			AwayTeamForm:          0.3,
			HomeAdvantage:         0.6,
			HeadToHeadRatio:       0.7,
			AvgGoalsHome:          2.0,
			AvgGoalsAway:          1.0,
			RecentMeetings:        0.8,
			HomeOffensiveStrength: 0.75,
			AwayOffensiveStrength: 0.4,
			HomeDefensiveStrength: 0.7,
			AwayDefensiveStrength: 0.45,
		},
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp predictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Prediction)
	assert.NotEmpty(t, resp.ID)

	total := resp.Prediction.HomeWinProbability + resp.Prediction.DrawProbability + resp.Prediction.AwayWinProbability
	assert.InDelta(t, 1.0, total, 1e-6)
	assert.Greater(t, resp.Prediction.HomeWinProbability, resp.Prediction.AwayWinProbability)

	count, err := srv.store.PredictionCount("championship")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "predictions must be persisted")
}

func TestPredictDerivesFeaturesFromHistory(t *testing.T) {
	srv := newTestServer(t)
	seedHistory(t, srv)

	body := map[string]string{
		"league":    "championship",
		"home_team": "Leeds",
		"away_team": "Norwich",
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp predictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ensemble", resp.Prediction.ModelType)
}

func TestPredictValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/predict", map[string]string{"league": "championship"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/predict", map[string]string{
		"league": "championship", "home_team": "Leeds", "away_team": "Leeds",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUncertaintySimulation(t *testing.T) {
	srv := newTestServer(t)

	body := uncertaintyRequest{
		Features: engine.PredictionFeatures{
			HomeTeamForm: 0.6, AwayTeamForm: 0.5, HomeAdvantage: 0.5,
			HeadToHeadRatio: 0.5, AvgGoalsHome: 1.5, AvgGoalsAway: 1.2,
			HomeOffensiveStrength: 0.55, AwayOffensiveStrength: 0.5,
			HomeDefensiveStrength: 0.5, AwayDefensiveStrength: 0.5,
		},
		Iterations: 150,
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/simulate/uncertainty", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result engine.MonteCarloResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 150, result.Iterations)
	assert.LessOrEqual(t, result.HomeWinInterval.Lower, result.HomeWinInterval.Upper)
}

func TestSeasonSimulationWithInlineFixtures(t *testing.T) {
	srv := newTestServer(t)

	fixtures := []engine.SeasonMatch{
		{HomeTeam: "Leeds", AwayTeam: "Norwich", Date: time.Now()},
		{HomeTeam: "Norwich", AwayTeam: "Leeds", Date: time.Now().AddDate(0, 0, 7)},
	}
	body := seasonRequest{League: "championship", Season: "2025/2026", Trials: 50, Fixtures: fixtures}

	rec := doJSON(t, srv, http.MethodPost, "/api/simulate/season", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result engine.SeasonSimulationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 50, result.Trials)
	assert.Len(t, result.Table, 2)
	assert.NotEmpty(t, result.ID)
}

func TestSeasonSimulationWithoutFixtures(t *testing.T) {
	srv := newTestServer(t)

	body := seasonRequest{League: "empty-league", Season: "2025/2026", Trials: 50}
	rec := doJSON(t, srv, http.MethodPost, "/api/simulate/season", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRatings(t *testing.T) {
	srv := newTestServer(t)
	seedHistory(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/ratings/championship", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ratingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Ratings, "Leeds")
	assert.Greater(t, resp.Ratings["Leeds"].Rating, resp.Ratings["Norwich"].Rating)
}

func TestRatingsUnknownLeague(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/ratings/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
