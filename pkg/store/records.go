package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/scorecast/scorecast/pkg/engine"
)

// MatchRow is one completed or scheduled fixture.
type MatchRow struct {
	League    string `column:"league" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Season    string `column:"season" dbtype:"TEXT NOT NULL" primary:"true"`
	HomeTeam  string `column:"home_team" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	AwayTeam  string `column:"away_team" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Date      string `column:"date" dbtype:"TEXT NOT NULL" primary:"true"`
	Played    bool   `column:"played" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	HomeGoals int    `column:"home_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	AwayGoals int    `column:"away_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
}

func (m *MatchRow) TableName() string { return "matches" }

func (m *MatchRow) PrimaryKey() map[string]interface{} {
	return map[string]interface{}{
		"league":    m.League,
		"season":    m.Season,
		"home_team": m.HomeTeam,
		"away_team": m.AwayTeam,
		"date":      m.Date,
	}
}

// PredictionRow is one stored prediction, keyed by its generated ID.
type PredictionRow struct {
	ID                 string  `column:"id" dbtype:"TEXT NOT NULL" primary:"true"`
	League             string  `column:"league" dbtype:"TEXT NOT NULL" index:"true"`
	HomeTeam           string  `column:"home_team" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeam           string  `column:"away_team" dbtype:"TEXT NOT NULL" index:"true"`
	HomeWinProbability float64 `column:"home_win_probability" dbtype:"REAL NOT NULL"`
	DrawProbability    float64 `column:"draw_probability" dbtype:"REAL NOT NULL"`
	AwayWinProbability float64 `column:"away_win_probability" dbtype:"REAL NOT NULL"`
	BTTSProbability    float64 `column:"btts_probability" dbtype:"REAL NOT NULL DEFAULT 0"`
	Over2p5Probability float64 `column:"over_2_5_probability" dbtype:"REAL NOT NULL DEFAULT 0"`
	PredictedHomeGoals int     `column:"predicted_home_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	PredictedAwayGoals int     `column:"predicted_away_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	ConfidenceScore    float64 `column:"confidence_score" dbtype:"REAL NOT NULL DEFAULT 0"`
	ModelType          string  `column:"model_type" dbtype:"TEXT NOT NULL"`
	CreatedAt          string  `column:"created_at" dbtype:"TEXT NOT NULL"`
}

func (p *PredictionRow) TableName() string { return "predictions" }

func (p *PredictionRow) PrimaryKey() map[string]interface{} {
	return map[string]interface{}{"id": p.ID}
}

// SeasonSimulationRow is the headline aggregate of one simulation run. The
// full table is not persisted, only the run metadata and the favourite.
type SeasonSimulationRow struct {
	ID               string  `column:"id" dbtype:"TEXT NOT NULL" primary:"true"`
	League           string  `column:"league" dbtype:"TEXT NOT NULL" index:"true"`
	Season           string  `column:"season" dbtype:"TEXT NOT NULL"`
	Trials           int     `column:"trials" dbtype:"INTEGER NOT NULL"`
	Partial          bool    `column:"partial" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	PlayedMatches    int     `column:"played_matches" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	SimulatedMatches int     `column:"simulated_matches" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	Favourite        string  `column:"favourite" dbtype:"TEXT NOT NULL DEFAULT ''"`
	FavouritePct     float64 `column:"favourite_pct" dbtype:"REAL NOT NULL DEFAULT 0"`
	GeneratedAt      string  `column:"generated_at" dbtype:"TEXT NOT NULL"`
}

func (r *SeasonSimulationRow) TableName() string { return "season_simulations" }

func (r *SeasonSimulationRow) PrimaryKey() map[string]interface{} {
	return map[string]interface{}{"id": r.ID}
}

// SaveMatches upserts a batch of fixtures for one league and season.
func (s *Store) SaveMatches(league, season string, matches []engine.SeasonMatch) error {
	for _, m := range matches {
		row := &MatchRow{
			League:    league,
			Season:    season,
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			Date:      m.Date.UTC().Format(time.RFC3339),
			Played:    m.Played,
			HomeGoals: m.HomeGoals,
			AwayGoals: m.AwayGoals,
		}
		if err := s.Save(row); err != nil {
			return fmt.Errorf("failed to save match %s vs %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
	}
	return nil
}

// MatchesFor returns every stored fixture for a league, oldest first.
func (s *Store) MatchesFor(league string) ([]engine.SeasonMatch, error) {
	rows, err := s.db.Query(`SELECT home_team, away_team, date, played, home_goals, away_goals
		FROM matches WHERE league = ? ORDER BY date ASC`, league)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for %s: %w", league, err)
	}
	defer rows.Close()

	var matches []engine.SeasonMatch
	for rows.Next() {
		var m engine.SeasonMatch
		var date string
		if err := rows.Scan(&m.HomeTeam, &m.AwayTeam, &date, &m.Played, &m.HomeGoals, &m.AwayGoals); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, date); err == nil {
			m.Date = parsed
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// PlayedMatchesFor returns the completed fixtures of a league as history
// records, oldest first.
func (s *Store) PlayedMatchesFor(league string) ([]engine.MatchRecord, error) {
	matches, err := s.MatchesFor(league)
	if err != nil {
		return nil, err
	}
	var history []engine.MatchRecord
	for _, m := range matches {
		if !m.Played {
			continue
		}
		history = append(history, engine.MatchRecord{
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			HomeGoals: m.HomeGoals,
			AwayGoals: m.AwayGoals,
			Date:      m.Date,
		})
	}
	return history, nil
}

// SavePrediction stores a generated prediction under the given ID.
func (s *Store) SavePrediction(id, league, homeTeam, awayTeam string, result *engine.PredictionResult) error {
	row := &PredictionRow{
		ID:                 id,
		League:             league,
		HomeTeam:           homeTeam,
		AwayTeam:           awayTeam,
		HomeWinProbability: result.HomeWinProbability,
		DrawProbability:    result.DrawProbability,
		AwayWinProbability: result.AwayWinProbability,
		BTTSProbability:    result.BTTSProbability,
		Over2p5Probability: result.Over2p5Probability,
		PredictedHomeGoals: result.PredictedHomeGoals,
		PredictedAwayGoals: result.PredictedAwayGoals,
		ConfidenceScore:    result.ConfidenceScore,
		ModelType:          result.ModelType,
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Save(row); err != nil {
		return fmt.Errorf("failed to save prediction %s: %w", id, err)
	}
	return nil
}

// SaveSeasonSimulation stores the headline aggregate of a simulation run.
func (s *Store) SaveSeasonSimulation(result *engine.SeasonSimulationResult) error {
	row := &SeasonSimulationRow{
		ID:               result.ID,
		League:           result.League,
		Season:           result.Season,
		Trials:           result.Trials,
		Partial:          result.Partial,
		PlayedMatches:    result.PlayedMatches,
		SimulatedMatches: result.SimulatedMatches,
		GeneratedAt:      result.GeneratedAt.Format(time.RFC3339),
	}
	if len(result.Table) > 0 {
		row.Favourite = result.Table[0].Team
		row.FavouritePct = result.Table[0].ChampionPct
	}
	if err := s.Save(row); err != nil {
		return fmt.Errorf("failed to save season simulation %s: %w", result.ID, err)
	}
	return nil
}

// PredictionCount reports how many predictions are stored for a league.
func (s *Store) PredictionCount(league string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM predictions WHERE league = ?", league).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}
