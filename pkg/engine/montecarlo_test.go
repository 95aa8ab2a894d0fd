package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSameSeedIsReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 500

	first := NewMonteCarloSimulator(nil, cfg, 99)
	second := NewMonteCarloSimulator(nil, cfg, 99)

	resultA, err := first.Run(context.Background(), lopsidedFixture(), 0)
	require.NoError(t, err)
	resultB, err := second.Run(context.Background(), lopsidedFixture(), 0)
	require.NoError(t, err)

	assert.Equal(t, resultA, resultB, "identical seeds must reproduce the aggregate bit-for-bit")
}

func TestRunDifferentSeedsDiverge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 500

	resultA, err := NewMonteCarloSimulator(nil, cfg, 1).Run(context.Background(), lopsidedFixture(), 0)
	require.NoError(t, err)
	resultB, err := NewMonteCarloSimulator(nil, cfg, 2).Run(context.Background(), lopsidedFixture(), 0)
	require.NoError(t, err)

	assert.NotEqual(t, resultA.Mean.HomeWinProbability, resultB.Mean.HomeWinProbability)
}

func TestTrialSeedsAreDistinct(t *testing.T) {
	sim := NewMonteCarloSimulator(nil, nil, 42)

	seen := make(map[int64]bool)
	for trial := 0; trial < 10000; trial++ {
		seen[sim.trialSeed(trial)] = true
	}
	assert.Len(t, seen, 10000, "every trial must derive its own random stream")
}

func TestRunWithZeroConfiguredWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 50
	cfg.Workers = 0

	// A caller-built config without a worker count must still complete.
	result, err := NewMonteCarloSimulator(nil, cfg, 3).Run(context.Background(), evenFixture(), 0)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Iterations)
}

func TestRunMeanSumsToOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 300

	result, err := NewMonteCarloSimulator(nil, cfg, 7).Run(context.Background(), evenFixture(), 0)
	require.NoError(t, err)

	total := result.Mean.HomeWinProbability + result.Mean.DrawProbability + result.Mean.AwayWinProbability
	assert.InDelta(t, 1.0, total, 1e-6)
	assert.Equal(t, 300, result.Iterations)
	assert.False(t, result.Partial)
}

func TestRunCollapsesWithoutNoise(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 100
	cfg.NoiseAmplitude = 0

	model := NewRegressionEnsemble(cfg)
	baseline, err := model.Predict(lopsidedFixture())
	require.NoError(t, err)

	result, err := NewMonteCarloSimulator(model, cfg, 5).Run(context.Background(), lopsidedFixture(), 0)
	require.NoError(t, err)

	assert.InDelta(t, baseline.HomeWinProbability, result.Mean.HomeWinProbability, 1e-9,
		"zero noise must collapse the trials onto the deterministic model")
	assert.InDelta(t, 0.0, result.Variability, 1e-12)
	assert.InDelta(t, result.HomeWinInterval.Lower, result.HomeWinInterval.Upper, 1e-12)
}

func TestRunIntervalsBracketTheMean(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 1000

	result, err := NewMonteCarloSimulator(nil, cfg, 11).Run(context.Background(), lopsidedFixture(), 0)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.HomeWinInterval.Lower, result.Mean.HomeWinProbability)
	assert.GreaterOrEqual(t, result.HomeWinInterval.Upper, result.Mean.HomeWinProbability)
	assert.Greater(t, result.Variability, 0.0, "noisy trials must show spread")
}

func TestRunBoundsRetainedSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 500
	cfg.MaxRetainedSamples = 50

	result, err := NewMonteCarloSimulator(nil, cfg, 3).Run(context.Background(), evenFixture(), 0)
	require.NoError(t, err)
	assert.Len(t, result.Samples, 50)
}

func TestRunHonoursIterationOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 10000

	result, err := NewMonteCarloSimulator(nil, cfg, 3).Run(context.Background(), evenFixture(), 64)
	require.NoError(t, err)
	assert.Equal(t, 64, result.Iterations)
}

func TestRunExpiredContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 1000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The select racing the feed against ctx.Done may let a few trials
	// through before the loop stops; either a typed error or a flagged
	// partial aggregate is correct.
	result, err := NewMonteCarloSimulator(nil, cfg, 3).Run(ctx, evenFixture(), 0)
	if err != nil {
		assert.ErrorIs(t, err, ErrEmptyDataset)
	} else {
		assert.True(t, result.Partial)
		assert.Less(t, result.Iterations, 1000)
	}
}

func TestRunRejectsInvalidFeatures(t *testing.T) {
	features := evenFixture()
	features.HomeAdvantage = math.NaN()

	_, err := NewMonteCarloSimulator(nil, nil, 3).Run(context.Background(), features, 10)
	assert.ErrorIs(t, err, ErrInvalidFeatureInput)
}

func TestRunLabelsModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 50

	result, err := NewMonteCarloSimulator(nil, cfg, 3).Run(context.Background(), evenFixture(), 0)
	require.NoError(t, err)
	assert.Equal(t, "monte_carlo", result.Mean.ModelType)
	assert.Equal(t, "feature_perturbation", result.Mean.CalculationMethod)
}
