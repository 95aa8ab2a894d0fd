package engine

import (
	"fmt"
	"math"

	"github.com/scorecast/scorecast/pkg/stats"
)

// BayesianParams is a sufficient-statistics summary of a belief about one
// scalar quantity under a normal model.
type BayesianParams struct {
	PriorMean     float64 `json:"priorMean"`
	PriorVariance float64 `json:"priorVariance"`
	Likelihood    float64 `json:"likelihood"`
	Evidence      int     `json:"evidence"`
}

// BayesianUpdater fuses a prior belief with evidence samples under the
// normal-normal conjugate model. Updates are pure functions of their inputs.
type BayesianUpdater struct{}

// NewBayesianUpdater returns a stateless updater.
func NewBayesianUpdater() *BayesianUpdater {
	return &BayesianUpdater{}
}

// Update combines the prior with the evidence samples by precision weighting
// and returns the posterior. It fails when there is no evidence, or when both
// the sample variance and the prior variance are zero, since the combined
// precision is then undefined.
func (b *BayesianUpdater) Update(prior BayesianParams, evidence []float64) (BayesianParams, error) {
	if len(evidence) == 0 {
		return BayesianParams{}, fmt.Errorf("%w: no evidence samples", ErrDegenerateStatistics)
	}

	sampleMean, err := stats.Mean(evidence)
	if err != nil {
		return BayesianParams{}, fmt.Errorf("%w: %v", ErrDegenerateStatistics, err)
	}
	sampleVariance, err := stats.Variance(evidence)
	if err != nil {
		return BayesianParams{}, fmt.Errorf("%w: %v", ErrDegenerateStatistics, err)
	}

	n := float64(len(evidence))

	// With no spread in the evidence, treat the samples as a point
	// observation: the posterior collapses onto the evidence as long as the
	// prior still carries uncertainty to trade away.
	if sampleVariance == 0 {
		if prior.PriorVariance == 0 {
			return BayesianParams{}, fmt.Errorf("%w: zero sample variance with zero prior variance", ErrDegenerateStatistics)
		}
		return BayesianParams{
			PriorMean:     sampleMean,
			PriorVariance: 0,
			Likelihood:    sampleMean,
			Evidence:      prior.Evidence + len(evidence),
		}, nil
	}

	// A zero-variance prior is infinitely certain: its precision dominates
	// any finite amount of evidence, so the belief does not move.
	if prior.PriorVariance == 0 {
		return BayesianParams{
			PriorMean:     prior.PriorMean,
			PriorVariance: 0,
			Likelihood:    sampleMean,
			Evidence:      prior.Evidence + len(evidence),
		}, nil
	}

	priorPrecision := 1.0 / prior.PriorVariance
	dataPrecision := n / sampleVariance

	posteriorPrecision := priorPrecision + dataPrecision
	posteriorVariance := 1.0 / posteriorPrecision
	posteriorMean := (prior.PriorMean*priorPrecision + sampleMean*dataPrecision) / posteriorPrecision

	return BayesianParams{
		PriorMean:     posteriorMean,
		PriorVariance: posteriorVariance,
		Likelihood:    sampleMean,
		Evidence:      prior.Evidence + len(evidence),
	}, nil
}

// zScores holds the two-sided z critical values for the supported credible
// levels.
var zScores = map[float64]float64{
	0.68: 0.9945,
	0.90: 1.6449,
	0.95: 1.9600,
	0.99: 2.5758,
}

// CredibleInterval returns the central credible interval for the belief at
// the given confidence level. Unrecognized levels deliberately fall back to
// the 95% z-score rather than failing; callers asking for a nonstandard
// level get the conventional default.
func (b *BayesianUpdater) CredibleInterval(params BayesianParams, confidence float64) (lower, upper float64) {
	z, ok := zScores[confidence]
	if !ok {
		z = zScores[0.95]
	}
	if params.PriorVariance <= 0 {
		return params.PriorMean, params.PriorMean
	}
	halfWidth := z * math.Sqrt(params.PriorVariance)
	return params.PriorMean - halfWidth, params.PriorMean + halfWidth
}
