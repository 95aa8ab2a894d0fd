package engine

import (
	"fmt"
	"math"

	"github.com/scorecast/scorecast/pkg/stats"
)

// RegressionEnsemble is the deterministic core model. It blends a Poisson
// goal model with a logistic outcome model over the same feature vector and
// derives the auxiliary markets from the Poisson joint grid, so the outcome
// split, BTTS and over/under all come from one consistent distribution.
type RegressionEnsemble struct {
	cfg *Config
}

// NewRegressionEnsemble creates the model. A nil cfg uses defaults.
func NewRegressionEnsemble(cfg *Config) *RegressionEnsemble {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &RegressionEnsemble{cfg: cfg}
}

// Logistic model coefficients. Tuned against historical EFL seasons; the
// draw logit rewards evenly matched sides by penalizing the total signal gap.
const (
	logitFormWeight     = 1.2
	logitStrengthWeight = 0.8
	logitGoalsWeight    = 0.5
	logitHomeAdvWeight  = 0.6
	logitH2HWeight      = 0.9
	drawBaseLogit       = 0.15
	drawGapPenalty      = 1.1
)

// Predict produces the full outcome distribution for one fixture. The only
// failure mode is a non-finite feature; anything else degrades gracefully.
func (r *RegressionEnsemble) Predict(features PredictionFeatures) (*PredictionResult, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}

	homeLambda, awayLambda := r.expectedGoals(features)
	grid := newGoalGrid(homeLambda, awayLambda, r.cfg.MaxGoals, r.cfg.DixonColesRho)

	poissonHome, poissonDraw, poissonAway := grid.outcomeSplit()
	logisticHome, logisticDraw, logisticAway := r.logisticSplit(features)

	// Blend the two models, then nudge by the overall strength and momentum
	// differential before renormalizing.
	home := r.cfg.PoissonWeight*poissonHome + r.cfg.LogisticWeight*logisticHome
	draw := r.cfg.PoissonWeight*poissonDraw + r.cfg.LogisticWeight*logisticDraw
	away := r.cfg.PoissonWeight*poissonAway + r.cfg.LogisticWeight*logisticAway

	adjustment := r.strengthMomentum(features) * r.cfg.AdjustmentWeight
	home = clamp01(home + adjustment)
	away = clamp01(away - adjustment)

	home, draw, away = normalizeOutcomes(home, draw, away, r.cfg.MinOutcomeProbability)

	predictedHome, predictedAway := grid.mostLikelyScore()

	confidence := r.confidence(features, [3]float64{home, draw, away})

	return &PredictionResult{
		HomeWinProbability: home,
		DrawProbability:    draw,
		AwayWinProbability: away,
		BTTSProbability:    grid.bttsProbability(),
		Over2p5Probability: grid.overGoalsProbability(2.5),
		PredictedHomeGoals: predictedHome,
		PredictedAwayGoals: predictedAway,
		ConfidenceScore:    confidence,
		KeyFactors:         r.keyFactors(features),
		ModelType:          "regression_ensemble",
		CalculationMethod:  "poisson_logistic_blend",
	}, nil
}

// expectedGoals converts strengths and scoring averages into the two Poisson
// rates. Defensive strength is floored before inversion so a near-zero
// defence cannot blow the rate up.
func (r *RegressionEnsemble) expectedGoals(f PredictionFeatures) (homeLambda, awayLambda float64) {
	floor := r.cfg.DefensiveStrengthFloor

	homeOff := math.Max(f.HomeOffensiveStrength, 0)
	awayOff := math.Max(f.AwayOffensiveStrength, 0)
	homeDef := math.Max(f.HomeDefensiveStrength, floor)
	awayDef := math.Max(f.AwayDefensiveStrength, floor)

	homeLambda = math.Max(f.AvgGoalsHome, 0) *
		math.Pow(homeOff, r.cfg.OffensiveExponent) *
		math.Pow(1/awayDef, r.cfg.DefensiveExponent) *
		(1 + f.HomeAdvantage*r.cfg.HomeAdvantageGoalBoost)

	awayLambda = math.Max(f.AvgGoalsAway, 0) *
		math.Pow(awayOff, r.cfg.OffensiveExponent) *
		math.Pow(1/homeDef, r.cfg.DefensiveExponent)

	return homeLambda, awayLambda
}

// logisticSplit is the second, independent view of the fixture: a linear
// combination of the differential signals pushed through a three-way softmax.
// The away logit mirrors the home logit so the decisive axis has one degree
// of freedom, with the draw logit favouring small differences.
func (r *RegressionEnsemble) logisticSplit(f PredictionFeatures) (home, draw, away float64) {
	formDiff := f.HomeTeamForm - f.AwayTeamForm
	strengthDiff := (f.HomeOffensiveStrength + f.HomeDefensiveStrength) -
		(f.AwayOffensiveStrength + f.AwayDefensiveStrength)
	goalsDiff := f.AvgGoalsHome - f.AvgGoalsAway

	homeLogit := logitFormWeight*formDiff +
		logitStrengthWeight*strengthDiff +
		logitGoalsWeight*goalsDiff +
		logitHomeAdvWeight*(f.HomeAdvantage-0.5) +
		logitH2HWeight*(f.HeadToHeadRatio-0.5)

	gap := (math.Abs(formDiff) + math.Abs(strengthDiff) + math.Abs(goalsDiff)) / 3
	drawLogit := drawBaseLogit - drawGapPenalty*gap

	return softmax3(homeLogit, drawLogit, -homeLogit)
}

// strengthMomentum summarizes the overall strength differential and the form
// momentum into one signed adjustment in roughly [-1,1].
func (r *RegressionEnsemble) strengthMomentum(f PredictionFeatures) float64 {
	strengthDiff := (f.HomeOffensiveStrength + f.HomeDefensiveStrength) -
		(f.AwayOffensiveStrength + f.AwayDefensiveStrength)
	momentum := f.HomeTeamForm - f.AwayTeamForm
	return (strengthDiff/2 + momentum) / 2
}

// confidence blends feature completeness with distribution sharpness.
func (r *RegressionEnsemble) confidence(f PredictionFeatures, outcomes [3]float64) float64 {
	sharpness := 0.0
	if normalized, err := stats.NormalizedEntropy(outcomes[:]); err == nil {
		sharpness = 1 - normalized
	}
	blend := r.cfg.CompletenessWeight*f.Completeness() + r.cfg.SharpnessWeight*sharpness
	return clamp01(blend * r.cfg.ConfidenceScale)
}

// keyFactors emits the human-readable flags for signals strong enough to be
// worth naming. An even fixture legitimately produces an empty list.
// Threshold checks use meetsThreshold so a gap sitting exactly on a
// threshold is not dropped to float rounding.
func (r *RegressionEnsemble) keyFactors(f PredictionFeatures) []string {
	factors := []string{}

	formGap := f.HomeTeamForm - f.AwayTeamForm
	if meetsThreshold(formGap, r.cfg.FormGapThreshold) {
		factors = append(factors, "Home team in significantly better form")
	} else if meetsThreshold(-formGap, r.cfg.FormGapThreshold) {
		factors = append(factors, "Away team in significantly better form")
	}

	if f.HomeAdvantage > r.cfg.HomeAdvantageThreshold {
		factors = append(factors, "Strong home advantage")
	}

	if f.HeadToHeadRatio > 0.5+r.cfg.HeadToHeadThreshold {
		factors = append(factors, "Home team dominates recent meetings")
	} else if f.HeadToHeadRatio < 0.5-r.cfg.HeadToHeadThreshold {
		factors = append(factors, "Away team dominates recent meetings")
	}

	goalsGap := f.AvgGoalsHome - f.AvgGoalsAway
	if meetsThreshold(goalsGap, r.cfg.GoalAverageGap) {
		factors = append(factors, fmt.Sprintf("Home side averages %.1f more goals per game", goalsGap))
	} else if meetsThreshold(-goalsGap, r.cfg.GoalAverageGap) {
		factors = append(factors, fmt.Sprintf("Away side averages %.1f more goals per game", -goalsGap))
	}

	return factors
}

// meetsThreshold reports whether value reaches threshold, with an epsilon so
// differences like 0.7-0.5 still count against a 0.2 threshold.
func meetsThreshold(value, threshold float64) bool {
	return value >= threshold-1e-9
}

// softmax3 converts three logits into a probability triple, shifting by the
// maximum logit for numerical stability.
func softmax3(a, b, c float64) (float64, float64, float64) {
	max := math.Max(a, math.Max(b, c))
	ea := math.Exp(a - max)
	eb := math.Exp(b - max)
	ec := math.Exp(c - max)
	total := ea + eb + ec
	return ea / total, eb / total, ec / total
}

// normalizeOutcomes rescales the triple to sum to 1 and then pins any outcome
// below the floor at exactly the floor, paying the deficit out of the largest
// outcome so the floor survives the renormalization. The largest outcome is
// at least 1/3 after rescaling and the floor is validated to at most 0.1, so
// it can always cover the deficit.
func normalizeOutcomes(home, draw, away, floor float64) (float64, float64, float64) {
	v := [3]float64{math.Max(home, 0), math.Max(draw, 0), math.Max(away, 0)}
	total := v[0] + v[1] + v[2]
	if total <= 0 {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}

	largest := 0
	for i := range v {
		v[i] /= total
		if v[i] > v[largest] {
			largest = i
		}
	}

	deficit := 0.0
	for i := range v {
		if i != largest && v[i] < floor {
			deficit += floor - v[i]
			v[i] = floor
		}
	}
	v[largest] -= deficit

	return v[0], v[1], v[2]
}
