package engine

import (
	"fmt"
	"runtime"
)

// Config contains all tunable parameters that influence prediction outcomes.
// This centralizes the magic numbers so a calibration pass can adjust them in
// one place. Each analytical component takes its own *Config; there is no
// package-level instance shared between independent analyses.
type Config struct {
	// === ELO RATING SYSTEM ===

	EloBaseRating    float64 // Initial rating for unseen teams (default: 1500)
	EloHomeAdvantage float64 // Home advantage in Elo points (default: 100)
	EloKFactor       float64 // Base K-factor (default: 32)
	EloDrawRate      float64 // Empirical draw rate applied to the outcome split (default: 0.28)

	// Adaptive K-factor bands: young teams move faster, veterans slower
	EloYoungTeamGames  int     // Below this game count K is boosted (default: 30)
	EloProvenTeamGames int     // Beyond this game count K is damped (default: 100)
	EloYoungKBoost     float64 // K multiplier below EloYoungTeamGames (default: 1.5)
	EloProvenKDamp     float64 // K multiplier beyond EloProvenTeamGames (default: 0.8)

	// === POISSON GOAL MODEL ===

	MaxGoals               int     // Joint grid covers 0..MaxGoals per side (default: 6)
	OffensiveExponent      float64 // Exponent on offensive strength (default: 0.8)
	DefensiveExponent      float64 // Exponent on inverted defensive strength (default: 0.6)
	DefensiveStrengthFloor float64 // Floor before inversion to avoid blow-up (default: 0.1)
	HomeAdvantageGoalBoost float64 // Expected-goal multiplier slope for home sides (default: 0.15)
	DixonColesRho          float64 // Low-score correlation parameter (default: -0.03)

	// === REGRESSION ENSEMBLE ===

	PoissonWeight         float64 // Weight of the Poisson outcome split (default: 0.4)
	LogisticWeight        float64 // Weight of the logistic outcome split (default: 0.6)
	AdjustmentWeight      float64 // Weight of the strength/momentum additive adjustment (default: 0.1)
	MinOutcomeProbability float64 // Floor per outcome before renormalization (default: 0.01)

	// Confidence blend
	CompletenessWeight float64 // Weight of feature completeness (default: 0.4)
	SharpnessWeight    float64 // Weight of distribution sharpness (default: 0.6)
	ConfidenceScale    float64 // Overall scale of the confidence score (default: 0.9)

	// Key factor thresholds
	FormGapThreshold       float64 // Form difference that flags a form gap (default: 0.2)
	HomeAdvantageThreshold float64 // Home advantage that flags a strong home side (default: 0.6)
	HeadToHeadThreshold    float64 // H2H ratio distance from 0.5 that flags dominance (default: 0.15)
	GoalAverageGap         float64 // Goal-average difference worth flagging (default: 0.5)

	// === MONTE CARLO SIMULATION ===

	MonteCarloIterations int     // Default trial count (default: 10000)
	NoiseAmplitude       float64 // Multiplicative feature noise amplitude (default: 0.1)
	MaxRetainedSamples   int     // Raw trial outcomes kept for inspection (default: 100)

	// === ENSEMBLE PREDICTOR ===

	RegressionWeight float64 // Weight of the deterministic regression model (default: 0.4)
	MonteCarloWeight float64 // Weight of the Monte Carlo mean (default: 0.4)
	EloWeight        float64 // Weight of the Elo probabilities (default: 0.2)
	ConfidenceBoost  float64 // Multiplier on the regression confidence (default: 1.1)
	ConfidenceCap    float64 // Upper bound for ensemble confidence (default: 0.95)

	// === SEASON SIMULATION ===

	SeasonMaxTrials      int     // Hard cap on season trials (default: 1000)
	SeasonTopPlaces      int     // Table places counted as "top" finishes (default: 4)
	SeasonBottomPlaces   int     // Table places counted as relegation (default: 3)
	DefaultHomeGoalRate  float64 // Expected home goals when no model input exists (default: 1.5)
	DefaultAwayGoalRate  float64 // Expected away goals when no model input exists (default: 1.1)

	// === WORKERS ===

	Workers int // Fixed worker pool size for trial loops (default: NumCPU)
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() *Config {
	return &Config{
		EloBaseRating:    1500,
		EloHomeAdvantage: 100,
		EloKFactor:       32,
		EloDrawRate:      0.28,

		EloYoungTeamGames:  30,
		EloProvenTeamGames: 100,
		EloYoungKBoost:     1.5,
		EloProvenKDamp:     0.8,

		MaxGoals:               6,
		OffensiveExponent:      0.8,
		DefensiveExponent:      0.6,
		DefensiveStrengthFloor: 0.1,
		HomeAdvantageGoalBoost: 0.15,
		DixonColesRho:          -0.03,

		PoissonWeight:         0.4,
		LogisticWeight:        0.6,
		AdjustmentWeight:      0.1,
		MinOutcomeProbability: 0.01,

		CompletenessWeight: 0.4,
		SharpnessWeight:    0.6,
		ConfidenceScale:    0.9,

		FormGapThreshold:       0.2,
		HomeAdvantageThreshold: 0.6,
		HeadToHeadThreshold:    0.15,
		GoalAverageGap:         0.5,

		MonteCarloIterations: 10000,
		NoiseAmplitude:       0.1,
		MaxRetainedSamples:   100,

		RegressionWeight: 0.4,
		MonteCarloWeight: 0.4,
		EloWeight:        0.2,
		ConfidenceBoost:  1.1,
		ConfidenceCap:    0.95,

		SeasonMaxTrials:     1000,
		SeasonTopPlaces:     4,
		SeasonBottomPlaces:  3,
		DefaultHomeGoalRate: 1.5,
		DefaultAwayGoalRate: 1.1,

		Workers: runtime.NumCPU(),
	}
}

// Validate ensures the configuration values are within usable ranges.
func Validate(cfg *Config) error {
	if cfg.MaxGoals < 3 {
		return fmt.Errorf("MaxGoals should be at least 3 to capture realistic scores, got: %d", cfg.MaxGoals)
	}
	if cfg.EloDrawRate <= 0 || cfg.EloDrawRate >= 1 {
		return fmt.Errorf("EloDrawRate must be in (0,1), got: %f", cfg.EloDrawRate)
	}
	if cfg.DixonColesRho > 0 || cfg.DixonColesRho < -0.1 {
		return fmt.Errorf("DixonColesRho should be between -0.1 and 0, got: %f", cfg.DixonColesRho)
	}
	if w := cfg.PoissonWeight + cfg.LogisticWeight; w < 0.999 || w > 1.001 {
		return fmt.Errorf("PoissonWeight and LogisticWeight must sum to 1, got: %f", w)
	}
	if cfg.MinOutcomeProbability < 0 || cfg.MinOutcomeProbability > 0.1 {
		return fmt.Errorf("MinOutcomeProbability should be between 0 and 0.1, got: %f", cfg.MinOutcomeProbability)
	}
	if cfg.MonteCarloIterations < 1 {
		return fmt.Errorf("MonteCarloIterations must be positive, got: %d", cfg.MonteCarloIterations)
	}
	if cfg.SeasonMaxTrials < 1 {
		return fmt.Errorf("SeasonMaxTrials must be positive, got: %d", cfg.SeasonMaxTrials)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("Workers must be positive, got: %d", cfg.Workers)
	}
	return nil
}
