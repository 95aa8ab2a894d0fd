package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorecast/scorecast/pkg/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err, "in-memory store must open")
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMatches() []engine.SeasonMatch {
	base := time.Date(2025, 8, 9, 15, 0, 0, 0, time.UTC)
	return []engine.SeasonMatch{
		{HomeTeam: "Leeds", AwayTeam: "Norwich", Date: base, Played: true, HomeGoals: 2, AwayGoals: 0},
		{HomeTeam: "Ipswich", AwayTeam: "Hull", Date: base.AddDate(0, 0, 1), Played: true, HomeGoals: 1, AwayGoals: 1},
		{HomeTeam: "Norwich", AwayTeam: "Ipswich", Date: base.AddDate(0, 0, 8)},
	}
}

func TestSaveAndLoadMatches(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveMatches("championship", "2025/2026", sampleMatches()))

	matches, err := s.MatchesFor("championship")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "Leeds", matches[0].HomeTeam, "matches must come back oldest first")
	assert.True(t, matches[0].Played)
	assert.Equal(t, 2, matches[0].HomeGoals)
	assert.False(t, matches[2].Played)
	assert.Equal(t, time.Date(2025, 8, 9, 15, 0, 0, 0, time.UTC), matches[0].Date)
}

func TestSaveMatchesUpsertsResults(t *testing.T) {
	s := openTestStore(t)

	matches := sampleMatches()
	require.NoError(t, s.SaveMatches("championship", "2025/2026", matches))

	// The scheduled fixture gets its result filled in
	matches[2].Played = true
	matches[2].HomeGoals = 3
	matches[2].AwayGoals = 2
	require.NoError(t, s.SaveMatches("championship", "2025/2026", matches))

	loaded, err := s.MatchesFor("championship")
	require.NoError(t, err)
	require.Len(t, loaded, 3, "resaving must update, not duplicate")
	assert.True(t, loaded[2].Played)
	assert.Equal(t, 3, loaded[2].HomeGoals)
}

func TestPlayedMatchesForFiltersFixtures(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveMatches("championship", "2025/2026", sampleMatches()))

	history, err := s.PlayedMatchesFor("championship")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, m := range history {
		assert.NotEmpty(t, m.HomeTeam)
	}

	empty, err := s.PlayedMatchesFor("premier-league")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSavePrediction(t *testing.T) {
	s := openTestStore(t)

	result := &engine.PredictionResult{
		HomeWinProbability: 0.55,
		DrawProbability:    0.25,
		AwayWinProbability: 0.20,
		BTTSProbability:    0.48,
		Over2p5Probability: 0.52,
		PredictedHomeGoals: 2,
		PredictedAwayGoals: 1,
		ConfidenceScore:    0.7,
		ModelType:          "ensemble",
	}

	require.NoError(t, s.SavePrediction("run-1", "championship", "Leeds", "Norwich", result))

	count, err := s.PredictionCount("championship")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Same ID overwrites
	result.ConfidenceScore = 0.8
	require.NoError(t, s.SavePrediction("run-1", "championship", "Leeds", "Norwich", result))
	count, err = s.PredictionCount("championship")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveSeasonSimulation(t *testing.T) {
	s := openTestStore(t)

	result := &engine.SeasonSimulationResult{
		ID:      "sim-1",
		League:  "championship",
		Season:  "2025/2026",
		Trials:  1000,
		Partial: false,
		Table: []engine.TeamStanding{
			{Team: "Leeds", AveragePoints: 92.4, ChampionPct: 61.5},
			{Team: "Norwich", AveragePoints: 80.1, ChampionPct: 20.0},
		},
		PlayedMatches:    20,
		SimulatedMatches: 26,
		GeneratedAt:      time.Now().UTC(),
	}

	require.NoError(t, s.SaveSeasonSimulation(result))

	var favourite string
	var pct float64
	err := s.db.QueryRow("SELECT favourite, favourite_pct FROM season_simulations WHERE id = ?", "sim-1").
		Scan(&favourite, &pct)
	require.NoError(t, err)
	assert.Equal(t, "Leeds", favourite)
	assert.InDelta(t, 61.5, pct, 1e-9)
}

func TestCreateTableSQLFromTags(t *testing.T) {
	sql := createTableSQL(&MatchRow{}, "matches")

	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS matches")
	assert.Contains(t, sql, "league TEXT NOT NULL")
	assert.Contains(t, sql, "PRIMARY KEY (league, season, home_team, away_team, date)")
}
