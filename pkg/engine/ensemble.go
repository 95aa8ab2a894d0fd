package engine

import (
	"context"
	"fmt"
)

// EnsemblePredictor weight-combines the deterministic regression model, the
// Monte Carlo mean and, when match history is supplied, Elo-derived
// probabilities into one final prediction.
type EnsemblePredictor struct {
	cfg        *Config
	regression *RegressionEnsemble
	monteCarlo *MonteCarloSimulator
}

// NewEnsemblePredictor builds the predictor and its sub-models. The seed
// feeds the Monte Carlo layer.
func NewEnsemblePredictor(cfg *Config, seed int64) *EnsemblePredictor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	regression := NewRegressionEnsemble(cfg)
	return &EnsemblePredictor{
		cfg:        cfg,
		regression: regression,
		monteCarlo: NewMonteCarloSimulator(regression, cfg, seed),
	}
}

// Predict runs every available sub-model and merges them. history may be
// empty, in which case the Elo weight is zeroed and the remaining weights are
// renormalized to sum to 1.
func (p *EnsemblePredictor) Predict(ctx context.Context, homeTeam, awayTeam string, features PredictionFeatures, history []MatchRecord) (*PredictionResult, error) {
	regResult, err := p.regression.Predict(features)
	if err != nil {
		return nil, err
	}

	mcResult, err := p.monteCarlo.Run(ctx, features, 0)
	if err != nil {
		return nil, err
	}

	regWeight := p.cfg.RegressionWeight
	mcWeight := p.cfg.MonteCarloWeight
	eloWeight := p.cfg.EloWeight

	var eloProbs OutcomeProbabilities
	models := 2
	if len(history) > 0 && homeTeam != "" && awayTeam != "" {
		elo := NewEloRatingSystem(p.cfg)
		elo.Replay(history)
		eloProbs = elo.Probabilities(homeTeam, awayTeam)
		models = 3
	} else {
		eloWeight = 0
	}

	total := regWeight + mcWeight + eloWeight
	regWeight /= total
	mcWeight /= total
	eloWeight /= total

	home := regWeight*regResult.HomeWinProbability +
		mcWeight*mcResult.Mean.HomeWinProbability +
		eloWeight*eloProbs.HomeWin
	draw := regWeight*regResult.DrawProbability +
		mcWeight*mcResult.Mean.DrawProbability +
		eloWeight*eloProbs.Draw
	away := regWeight*regResult.AwayWinProbability +
		mcWeight*mcResult.Mean.AwayWinProbability +
		eloWeight*eloProbs.AwayWin

	home, draw, away = normalizeOutcomes(home, draw, away, p.cfg.MinOutcomeProbability)

	// Agreement between sub-models earns a modest confidence boost over the
	// regression model alone.
	confidence := regResult.ConfidenceScore * p.cfg.ConfidenceBoost
	if confidence > p.cfg.ConfidenceCap {
		confidence = p.cfg.ConfidenceCap
	}

	factors := append([]string{}, regResult.KeyFactors...)
	factors = append(factors, fmt.Sprintf("Combined from %d prediction models", models))

	return &PredictionResult{
		HomeWinProbability: home,
		DrawProbability:    draw,
		AwayWinProbability: away,
		BTTSProbability:    regResult.BTTSProbability,
		Over2p5Probability: regResult.Over2p5Probability,
		PredictedHomeGoals: regResult.PredictedHomeGoals,
		PredictedAwayGoals: regResult.PredictedAwayGoals,
		ConfidenceScore:    confidence,
		KeyFactors:         factors,
		ModelType:          "ensemble",
		CalculationMethod:  "weighted_model_combination",
	}, nil
}
