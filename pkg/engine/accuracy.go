package engine

import "fmt"

// ScoredPrediction pairs a prediction with the completed match it was made
// for, ready for evaluation.
type ScoredPrediction struct {
	Prediction *PredictionResult
	Actual     MatchRecord
}

// MatchEvaluation holds the accuracy metrics of one scored prediction.
type MatchEvaluation struct {
	HomeTeam            string  `json:"home_team"`
	AwayTeam            string  `json:"away_team"`
	ActualHomeGoals     int     `json:"actual_home_goals"`
	ActualAwayGoals     int     `json:"actual_away_goals"`
	PredictedHomeGoals  int     `json:"predicted_home_goals"`
	PredictedAwayGoals  int     `json:"predicted_away_goals"`
	ExactScoreCorrect   bool    `json:"exact_score_correct"`
	OutcomeCorrect      bool    `json:"outcome_correct"`
	GoalDifferenceError int     `json:"goal_difference_error"`
	TotalGoalsError     int     `json:"total_goals_error"`
	BrierScore          float64 `json:"brier_score"`
}

// AccuracyReport aggregates evaluations across many matches.
type AccuracyReport struct {
	TotalMatches           int     `json:"total_matches"`
	OutcomeAccuracy        float64 `json:"outcome_accuracy"`     // percentage
	ExactScoreAccuracy     float64 `json:"exact_score_accuracy"` // percentage
	AverageGoalDiffError   float64 `json:"average_goal_diff_error"`
	AverageTotalGoalsError float64 `json:"average_total_goals_error"`
	MeanBrierScore         float64 `json:"mean_brier_score"`
}

// Evaluate compares one prediction against the actual result.
func Evaluate(p ScoredPrediction) (*MatchEvaluation, error) {
	if p.Prediction == nil {
		return nil, fmt.Errorf("%w: no prediction to evaluate", ErrEmptyDataset)
	}
	if p.Actual.HomeGoals < 0 || p.Actual.AwayGoals < 0 {
		return nil, fmt.Errorf("%w: match %s vs %s has no recorded result",
			ErrEmptyDataset, p.Actual.HomeTeam, p.Actual.AwayTeam)
	}

	eval := &MatchEvaluation{
		HomeTeam:           p.Actual.HomeTeam,
		AwayTeam:           p.Actual.AwayTeam,
		ActualHomeGoals:    p.Actual.HomeGoals,
		ActualAwayGoals:    p.Actual.AwayGoals,
		PredictedHomeGoals: p.Prediction.PredictedHomeGoals,
		PredictedAwayGoals: p.Prediction.PredictedAwayGoals,
	}

	eval.ExactScoreCorrect = eval.ActualHomeGoals == eval.PredictedHomeGoals &&
		eval.ActualAwayGoals == eval.PredictedAwayGoals

	actual := matchOutcome(eval.ActualHomeGoals, eval.ActualAwayGoals)
	predicted := likeliestOutcome(p.Prediction)
	eval.OutcomeCorrect = actual == predicted

	eval.GoalDifferenceError = absInt((eval.ActualHomeGoals - eval.ActualAwayGoals) -
		(eval.PredictedHomeGoals - eval.PredictedAwayGoals))
	eval.TotalGoalsError = absInt((eval.ActualHomeGoals + eval.ActualAwayGoals) -
		(eval.PredictedHomeGoals + eval.PredictedAwayGoals))

	eval.BrierScore = brierScore(p.Prediction, actual)
	return eval, nil
}

// EvaluateAll aggregates every evaluable prediction in the batch. Entries
// without a usable result are skipped; an empty batch is a typed error.
func EvaluateAll(predictions []ScoredPrediction) (*AccuracyReport, error) {
	var evals []*MatchEvaluation
	for _, p := range predictions {
		eval, err := Evaluate(p)
		if err != nil {
			continue
		}
		evals = append(evals, eval)
	}
	if len(evals) == 0 {
		return nil, fmt.Errorf("%w: no completed matches to evaluate", ErrEmptyDataset)
	}

	report := &AccuracyReport{TotalMatches: len(evals)}
	var exact, outcome int
	var goalDiffErr, totalGoalsErr int
	var brierSum float64
	for _, eval := range evals {
		if eval.ExactScoreCorrect {
			exact++
		}
		if eval.OutcomeCorrect {
			outcome++
		}
		goalDiffErr += eval.GoalDifferenceError
		totalGoalsErr += eval.TotalGoalsError
		brierSum += eval.BrierScore
	}

	n := float64(report.TotalMatches)
	report.ExactScoreAccuracy = float64(exact) / n * 100
	report.OutcomeAccuracy = float64(outcome) / n * 100
	report.AverageGoalDiffError = float64(goalDiffErr) / n
	report.AverageTotalGoalsError = float64(totalGoalsErr) / n
	report.MeanBrierScore = brierSum / n
	return report, nil
}

// matchOutcome returns "H", "D" or "A" for a final score.
func matchOutcome(homeGoals, awayGoals int) string {
	switch {
	case homeGoals > awayGoals:
		return "H"
	case homeGoals < awayGoals:
		return "A"
	default:
		return "D"
	}
}

// likeliestOutcome is the highest-probability result of a prediction. Ties
// resolve home, then draw, matching the ordering of the outcome vector.
func likeliestOutcome(p *PredictionResult) string {
	switch {
	case p.HomeWinProbability >= p.DrawProbability && p.HomeWinProbability >= p.AwayWinProbability:
		return "H"
	case p.DrawProbability >= p.AwayWinProbability:
		return "D"
	default:
		return "A"
	}
}

// brierScore is the multiclass Brier score of the three-way forecast
// against the observed outcome. 0 is a perfect forecast, 2 the worst.
func brierScore(p *PredictionResult, actual string) float64 {
	observed := map[string]float64{"H": 0, "D": 0, "A": 0}
	observed[actual] = 1

	dh := p.HomeWinProbability - observed["H"]
	dd := p.DrawProbability - observed["D"]
	da := p.AwayWinProbability - observed["A"]
	return dh*dh + dd*dd + da*da
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
