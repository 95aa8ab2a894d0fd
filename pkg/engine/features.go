package engine

import (
	"fmt"
	"math"
)

// PredictionFeatures is the immutable per-fixture signal vector consumed by
// the models. Form and strength values are conventionally in [0,1] and goal
// averages are per-game rates; out-of-convention values degrade the output
// rather than failing it, but non-finite values are rejected outright.
type PredictionFeatures struct {
	HomeTeamForm          float64 `json:"home_team_form"`
	AwayTeamForm          float64 `json:"away_team_form"`
	HomeAdvantage         float64 `json:"home_advantage"`
	HeadToHeadRatio       float64 `json:"head_to_head_ratio"`
	AvgGoalsHome          float64 `json:"avg_goals_home"`
	AvgGoalsAway          float64 `json:"avg_goals_away"`
	RecentMeetings        float64 `json:"recent_meetings"`
	HomeOffensiveStrength float64 `json:"home_offensive_strength"`
	AwayOffensiveStrength float64 `json:"away_offensive_strength"`
	HomeDefensiveStrength float64 `json:"home_defensive_strength"`
	AwayDefensiveStrength float64 `json:"away_defensive_strength"`
}

// values returns the vector in a fixed order for perturbation and
// completeness checks.
func (f *PredictionFeatures) values() [11]float64 {
	return [11]float64{
		f.HomeTeamForm,
		f.AwayTeamForm,
		f.HomeAdvantage,
		f.HeadToHeadRatio,
		f.AvgGoalsHome,
		f.AvgGoalsAway,
		f.RecentMeetings,
		f.HomeOffensiveStrength,
		f.AwayOffensiveStrength,
		f.HomeDefensiveStrength,
		f.AwayDefensiveStrength,
	}
}

// fromValues reconstructs a feature vector in the same fixed order.
func fromValues(v [11]float64) PredictionFeatures {
	return PredictionFeatures{
		HomeTeamForm:          v[0],
		AwayTeamForm:          v[1],
		HomeAdvantage:         v[2],
		HeadToHeadRatio:       v[3],
		AvgGoalsHome:          v[4],
		AvgGoalsAway:          v[5],
		RecentMeetings:        v[6],
		HomeOffensiveStrength: v[7],
		AwayOffensiveStrength: v[8],
		HomeDefensiveStrength: v[9],
		AwayDefensiveStrength: v[10],
	}
}

// Validate rejects vectors containing NaN or infinities. Negative values are
// tolerated here and clamped where individual models require it.
func (f *PredictionFeatures) Validate() error {
	for i, v := range f.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %d is not finite", ErrInvalidFeatureInput, i)
		}
	}
	return nil
}

// Completeness returns the fraction of features carrying a non-zero signal.
func (f *PredictionFeatures) Completeness() float64 {
	values := f.values()
	nonZero := 0
	for _, v := range values {
		if v != 0 {
			nonZero++
		}
	}
	return float64(nonZero) / float64(len(values))
}

// PredictionResult is the outcome distribution and derived markets for a
// single fixture. The three outcome probabilities sum to 1 within 1e-6.
type PredictionResult struct {
	HomeWinProbability float64 `json:"home_win_probability"`
	DrawProbability    float64 `json:"draw_probability"`
	AwayWinProbability float64 `json:"away_win_probability"`

	BTTSProbability    float64 `json:"btts_probability,omitempty"`
	Over2p5Probability float64 `json:"over_2_5_probability,omitempty"`

	PredictedHomeGoals int `json:"predicted_home_goals"`
	PredictedAwayGoals int `json:"predicted_away_goals"`

	ConfidenceScore   float64  `json:"confidence_score"`
	KeyFactors        []string `json:"key_factors"`
	ModelType         string   `json:"model_type"`
	CalculationMethod string   `json:"calculation_method"`
}

// Outcomes returns the three probabilities in home/draw/away order.
func (r *PredictionResult) Outcomes() [3]float64 {
	return [3]float64{r.HomeWinProbability, r.DrawProbability, r.AwayWinProbability}
}

// clamp01 bounds a probability into [0,1]. Extreme intermediate values are
// clamped rather than propagated.
func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
