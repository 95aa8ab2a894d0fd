package engine

import "errors"

// Error kinds reported by the engine. The prediction pipeline itself never
// fails on finite numeric input; these surface only for inputs the models
// cannot degrade around.
var (
	// ErrInvalidFeatureInput marks a feature vector containing non-finite
	// values.
	ErrInvalidFeatureInput = errors.New("invalid feature input")

	// ErrDegenerateStatistics marks an update whose combined precision is
	// undefined, e.g. a Bayesian update with no evidence and no prior spread.
	ErrDegenerateStatistics = errors.New("degenerate statistics")

	// ErrEmptyDataset marks an operation over an empty collection, such as
	// simulating a season with no fixtures.
	ErrEmptyDataset = errors.New("empty dataset")
)
