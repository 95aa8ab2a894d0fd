package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePullsPriorTowardEvidence(t *testing.T) {
	updater := NewBayesianUpdater()

	prior := BayesianParams{PriorMean: 1500, PriorVariance: 100}
	evidence := []float64{1520, 1515, 1525, 1518, 1522}

	posterior, err := updater.Update(prior, evidence)
	require.NoError(t, err)

	assert.Greater(t, posterior.PriorMean, 1500.0, "posterior must move toward the evidence")
	assert.Less(t, posterior.PriorMean, 1525.0, "posterior must not overshoot the evidence")
	assert.Less(t, posterior.PriorVariance, prior.PriorVariance, "evidence must shrink uncertainty")
	assert.Equal(t, 5, posterior.Evidence)
}

func TestUpdateAccumulatesEvidenceCount(t *testing.T) {
	updater := NewBayesianUpdater()

	posterior, err := updater.Update(BayesianParams{PriorMean: 2, PriorVariance: 1}, []float64{2.5, 2.1, 1.9})
	require.NoError(t, err)

	posterior, err = updater.Update(posterior, []float64{2.2, 2.4})
	require.NoError(t, err)
	assert.Equal(t, 5, posterior.Evidence)
}

func TestUpdateWithNoEvidence(t *testing.T) {
	updater := NewBayesianUpdater()

	_, err := updater.Update(BayesianParams{PriorMean: 1500, PriorVariance: 100}, nil)
	assert.ErrorIs(t, err, ErrDegenerateStatistics)
}

func TestUpdateWithConstantEvidence(t *testing.T) {
	updater := NewBayesianUpdater()

	// Constant samples against an uncertain prior collapse to a point
	posterior, err := updater.Update(BayesianParams{PriorMean: 1500, PriorVariance: 100}, []float64{1510, 1510, 1510})
	require.NoError(t, err)
	assert.Equal(t, 1510.0, posterior.PriorMean)
	assert.Zero(t, posterior.PriorVariance)

	// Constant samples against a certain prior leave no defined precision
	_, err = updater.Update(BayesianParams{PriorMean: 1500, PriorVariance: 0}, []float64{1510, 1510})
	assert.ErrorIs(t, err, ErrDegenerateStatistics)
}

func TestUpdateWithCertainPrior(t *testing.T) {
	updater := NewBayesianUpdater()

	// A zero-variance prior outweighs any spread-out evidence: the belief
	// must not move and uncertainty must not grow.
	posterior, err := updater.Update(BayesianParams{PriorMean: 1500, PriorVariance: 0}, []float64{10, 20, 30})
	require.NoError(t, err)

	assert.Equal(t, 1500.0, posterior.PriorMean)
	assert.Zero(t, posterior.PriorVariance)
	assert.Equal(t, 20.0, posterior.Likelihood)
	assert.Equal(t, 3, posterior.Evidence)
}

func TestCredibleIntervalWidensWithConfidence(t *testing.T) {
	updater := NewBayesianUpdater()
	params := BayesianParams{PriorMean: 10, PriorVariance: 4}

	lower68, upper68 := updater.CredibleInterval(params, 0.68)
	lower95, upper95 := updater.CredibleInterval(params, 0.95)
	lower99, upper99 := updater.CredibleInterval(params, 0.99)

	assert.InDelta(t, 10.0, (lower95+upper95)/2, 1e-9, "interval must be centred on the mean")
	assert.Less(t, upper68-lower68, upper95-lower95)
	assert.Less(t, upper95-lower95, upper99-lower99)

	// 95% interval with variance 4: 10 +/- 1.96*2
	assert.InDelta(t, 6.08, lower95, 1e-9)
	assert.InDelta(t, 13.92, upper95, 1e-9)
}

func TestCredibleIntervalUnknownLevelFallsBackTo95(t *testing.T) {
	updater := NewBayesianUpdater()
	params := BayesianParams{PriorMean: 0, PriorVariance: 1}

	lowerOdd, upperOdd := updater.CredibleInterval(params, 0.1234)
	lower95, upper95 := updater.CredibleInterval(params, 0.95)

	assert.Equal(t, lower95, lowerOdd)
	assert.Equal(t, upper95, upperOdd)
}

func TestCredibleIntervalWithZeroVariance(t *testing.T) {
	updater := NewBayesianUpdater()

	lower, upper := updater.CredibleInterval(BayesianParams{PriorMean: 7, PriorVariance: 0}, 0.95)
	assert.Equal(t, 7.0, lower)
	assert.Equal(t, 7.0, upper)
}
