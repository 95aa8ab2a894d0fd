// Package stats provides the descriptive statistics shared by the
// prediction models. Degenerate inputs are reported as errors rather than
// silently producing NaN or Infinity.
package stats

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrEmptyDataset is returned when a calculation receives no samples.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrMismatchedLengths is returned when paired series differ in length.
	ErrMismatchedLengths = errors.New("mismatched series lengths")
	// ErrZeroVariance is returned when a calculation requires spread and
	// the samples have none.
	ErrZeroVariance = errors.New("zero variance")
)

// Mean returns the arithmetic mean of the samples.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Variance returns the unbiased sample variance (n-1 denominator).
// A single sample has zero spread, not an error; callers that cannot
// tolerate zero variance must check for it themselves.
func Variance(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(values) == 1 {
		return 0, nil
	}
	mean, _ := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values)-1), nil
}

// StdDev returns the sample standard deviation.
func StdDev(values []float64) (float64, error) {
	variance, err := Variance(values)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(variance), nil
}

// Percentile returns the p-th percentile (0-100) of the samples using
// linear interpolation between the two nearest ranks of the sorted series.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0], nil
	}
	if p >= 100 {
		return sorted[len(sorted)-1], nil
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower], nil
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac, nil
}

// Correlation returns the Pearson correlation coefficient of two series.
func Correlation(x, y []float64) (float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, ErrMismatchedLengths
	}

	meanX, _ := Mean(x)
	meanY, _ := Mean(y)

	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, ErrZeroVariance
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares.
func LinearRegression(x, y []float64) (slope, intercept float64, err error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, 0, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, 0, ErrMismatchedLengths
	}

	meanX, _ := Mean(x)
	meanY, _ := Mean(y)

	var sxy, sxx float64
	for i := range x {
		dx := x[i] - meanX
		sxy += dx * (y[i] - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, 0, ErrZeroVariance
	}
	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept, nil
}

// Outliers returns the indices of samples falling outside 1.5 IQR of the
// first and third quartiles.
func Outliers(values []float64) ([]int, error) {
	if len(values) == 0 {
		return nil, ErrEmptyDataset
	}
	q1, err := Percentile(values, 25)
	if err != nil {
		return nil, err
	}
	q3, err := Percentile(values, 75)
	if err != nil {
		return nil, err
	}
	iqr := q3 - q1
	low := q1 - 1.5*iqr
	high := q3 + 1.5*iqr

	var outliers []int
	for i, v := range values {
		if v < low || v > high {
			outliers = append(outliers, i)
		}
	}
	return outliers, nil
}

// Entropy returns the Shannon entropy (nats) of a probability distribution.
// Zero-probability cells contribute nothing. Probabilities are not required
// to be normalised; the caller owns that invariant.
func Entropy(probs []float64) (float64, error) {
	if len(probs) == 0 {
		return 0, ErrEmptyDataset
	}
	h := 0.0
	for _, p := range probs {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h, nil
}

// NormalizedEntropy scales Shannon entropy into [0,1] by the maximum
// entropy of a distribution with the same number of outcomes.
func NormalizedEntropy(probs []float64) (float64, error) {
	if len(probs) < 2 {
		return 0, ErrEmptyDataset
	}
	h, err := Entropy(probs)
	if err != nil {
		return 0, err
	}
	return h / math.Log(float64(len(probs))), nil
}
