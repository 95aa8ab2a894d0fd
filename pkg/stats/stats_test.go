package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	mean, err := Mean([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, mean, 1e-12)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestVariance(t *testing.T) {
	variance, err := Variance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 4.571428571428571, variance, 1e-9, "sample variance uses n-1")

	// A single sample has zero spread, not an error
	variance, err = Variance([]float64{3.5})
	require.NoError(t, err)
	assert.Zero(t, variance)

	_, err = Variance(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestStdDev(t *testing.T) {
	sd, err := StdDev([]float64{1, 1, 1})
	require.NoError(t, err)
	assert.Zero(t, sd)

	sd, err = StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(4.571428571428571), sd, 1e-9)
}

func TestPercentile(t *testing.T) {
	values := []float64{15, 20, 35, 40, 50}

	median, err := Percentile(values, 50)
	require.NoError(t, err)
	assert.InDelta(t, 35, median, 1e-12)

	low, err := Percentile(values, 0)
	require.NoError(t, err)
	assert.Equal(t, 15.0, low)

	high, err := Percentile(values, 100)
	require.NoError(t, err)
	assert.Equal(t, 50.0, high)

	// Interpolated rank between 20 and 35
	p30, err := Percentile(values, 30)
	require.NoError(t, err)
	assert.InDelta(t, 23.0, p30, 1e-9)

	// The input slice must not be reordered
	assert.Equal(t, []float64{15, 20, 35, 40, 50}, values)

	_, err = Percentile(nil, 50)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestCorrelation(t *testing.T) {
	r, err := Correlation([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12, "perfectly linear series correlate at 1")

	r, err = Correlation([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, err = Correlation([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrMismatchedLengths)

	_, err = Correlation([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrZeroVariance)
}

func TestLinearRegression(t *testing.T) {
	slope, intercept, err := LinearRegression([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 1.0, intercept, 1e-12)

	_, _, err = LinearRegression([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrZeroVariance)
}

func TestOutliers(t *testing.T) {
	indices, err := Outliers([]float64{10, 12, 11, 13, 12, 100})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, indices)

	indices, err = Outliers([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Empty(t, indices)
}

func TestEntropy(t *testing.T) {
	h, err := Entropy([]float64{1, 0, 0})
	require.NoError(t, err)
	assert.Zero(t, h, "a certain outcome carries no entropy")

	uniform := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	h, err = Entropy(uniform)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(3), h, 1e-12)

	normalized, err := NormalizedEntropy(uniform)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, normalized, 1e-12, "uniform distribution has maximum entropy")
}
