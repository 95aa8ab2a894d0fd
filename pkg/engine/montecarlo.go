package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/scorecast/scorecast/pkg/stats"
)

// Interval is an empirical confidence interval over trial outcomes.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TrialOutcome is one raw Monte Carlo trial, retained in bounded numbers for
// inspection.
type TrialOutcome struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
	BTTS    float64 `json:"btts"`
	Over2p5 float64 `json:"over_2_5"`
}

// MonteCarloResult aggregates the trial distribution.
type MonteCarloResult struct {
	Mean PredictionResult `json:"mean"`

	HomeWinInterval Interval `json:"home_win_interval"`
	DrawInterval    Interval `json:"draw_interval"`
	AwayWinInterval Interval `json:"away_win_interval"`

	// Variability is the sample standard deviation of the home-win
	// probability across trials.
	Variability float64 `json:"variability"`

	Samples    []TrialOutcome `json:"samples"`
	Iterations int            `json:"iterations"`
	Partial    bool           `json:"partial"`
}

// MonteCarloSimulator quantifies prediction uncertainty by rerunning the
// regression model over noise-perturbed copies of the feature vector. Trials
// are independent: they run on a fixed worker pool and each derives its own
// random source from the configured seed, so the aggregate is reproducible
// bit-for-bit regardless of scheduling.
type MonteCarloSimulator struct {
	cfg   *Config
	model *RegressionEnsemble
	seed  int64
}

// NewMonteCarloSimulator creates a simulator around the given regression
// model. The seed fixes the whole trial sequence; tests inject a constant.
func NewMonteCarloSimulator(model *RegressionEnsemble, cfg *Config, seed int64) *MonteCarloSimulator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if model == nil {
		model = NewRegressionEnsemble(cfg)
	}
	return &MonteCarloSimulator{cfg: cfg, model: model, seed: seed}
}

// trialSeed spreads the base seed across trials so neighbouring trials do not
// share low-entropy streams. The golden-ratio stride only fits in uint64;
// the wrap back to int64 is intentional.
func (m *MonteCarloSimulator) trialSeed(trial int) int64 {
	return m.seed + int64(uint64(trial)*0x9E3779B97F4A7C15)
}

// Run executes the trial loop. iterations <= 0 selects the configured
// default. The context may carry a deadline; when it expires the aggregate is
// computed over the trials completed so far and flagged Partial.
func (m *MonteCarloSimulator) Run(ctx context.Context, features PredictionFeatures, iterations int) (*MonteCarloResult, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}
	if iterations <= 0 {
		iterations = m.cfg.MonteCarloIterations
	}

	outcomes := make([]TrialOutcome, iterations)
	completed := make([]bool, iterations)

	trials := make(chan int)
	var wg sync.WaitGroup

	// At least one worker, or the feed loop below has no reader.
	workers := m.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > iterations {
		workers = iterations
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range trials {
				rng := rand.New(rand.NewSource(m.trialSeed(trial)))
				perturbed := m.perturb(features, rng)
				result, err := m.model.Predict(perturbed)
				if err != nil {
					// Perturbation of finite input stays finite; only a
					// defect would land here, so skip the trial.
					continue
				}
				outcomes[trial] = TrialOutcome{
					HomeWin: result.HomeWinProbability,
					Draw:    result.DrawProbability,
					AwayWin: result.AwayWinProbability,
					BTTS:    result.BTTSProbability,
					Over2p5: result.Over2p5Probability,
				}
				completed[trial] = true
			}
		}()
	}

feed:
	for trial := 0; trial < iterations; trial++ {
		select {
		case trials <- trial:
		case <-ctx.Done():
			break feed
		}
	}
	close(trials)
	wg.Wait()

	return m.aggregate(features, outcomes, completed, iterations)
}

// perturb applies independent multiplicative noise of 1 + U(-amp, amp) to
// every feature.
func (m *MonteCarloSimulator) perturb(features PredictionFeatures, rng *rand.Rand) PredictionFeatures {
	amp := m.cfg.NoiseAmplitude
	values := features.values()
	for i := range values {
		noise := 1 + (rng.Float64()*2-1)*amp
		values[i] *= noise
	}
	return fromValues(values)
}

// aggregate reduces the completed trials, in trial order, into the result.
func (m *MonteCarloSimulator) aggregate(features PredictionFeatures, outcomes []TrialOutcome, completed []bool, requested int) (*MonteCarloResult, error) {
	homes := make([]float64, 0, requested)
	draws := make([]float64, 0, requested)
	aways := make([]float64, 0, requested)

	var bttsSum, overSum float64
	samples := make([]TrialOutcome, 0, m.cfg.MaxRetainedSamples)

	for trial := range outcomes {
		if !completed[trial] {
			continue
		}
		o := outcomes[trial]
		homes = append(homes, o.HomeWin)
		draws = append(draws, o.Draw)
		aways = append(aways, o.AwayWin)
		bttsSum += o.BTTS
		overSum += o.Over2p5
		if len(samples) < m.cfg.MaxRetainedSamples {
			samples = append(samples, o)
		}
	}

	n := len(homes)
	if n == 0 {
		return nil, fmt.Errorf("%w: no trials completed before deadline", ErrEmptyDataset)
	}

	meanHome, _ := stats.Mean(homes)
	meanDraw, _ := stats.Mean(draws)
	meanAway, _ := stats.Mean(aways)
	meanHome, meanDraw, meanAway = normalizeOutcomes(meanHome, meanDraw, meanAway, 0)

	variability, _ := stats.StdDev(homes)

	mean := PredictionResult{
		HomeWinProbability: meanHome,
		DrawProbability:    meanDraw,
		AwayWinProbability: meanAway,
		BTTSProbability:    bttsSum / float64(n),
		Over2p5Probability: overSum / float64(n),
		ConfidenceScore:    m.model.confidence(features, [3]float64{meanHome, meanDraw, meanAway}),
		KeyFactors:         m.model.keyFactors(features),
		ModelType:          "monte_carlo",
		CalculationMethod:  "feature_perturbation",
	}

	result := &MonteCarloResult{
		Mean:            mean,
		HomeWinInterval: percentileInterval(homes),
		DrawInterval:    percentileInterval(draws),
		AwayWinInterval: percentileInterval(aways),
		Variability:     variability,
		Samples:         samples,
		Iterations:      n,
		Partial:         n < requested,
	}
	return result, nil
}

// percentileInterval is the empirical central 95% interval of the series.
func percentileInterval(series []float64) Interval {
	lower, _ := stats.Percentile(series, 2.5)
	upper, _ := stats.Percentile(series, 97.5)
	return Interval{Lower: lower, Upper: upper}
}
