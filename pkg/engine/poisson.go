package engine

import (
	"math"
	"math/rand"
)

// Closed-form Poisson goal-grid machinery shared by the regression model and
// the season simulator.

// poissonPMF returns P(X = k) for X ~ Poisson(lambda), computed in log space
// for numerical stability.
func poissonPMF(lambda float64, k int) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	logProb := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logProb)
}

// logFactorial computes log(n!).
func logFactorial(n int) float64 {
	if n <= 1 {
		return 0
	}
	sum := 0.0
	for i := 2; i <= n; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}

// goalGrid is a joint probability mass over (homeGoals, awayGoals) score
// lines, truncated at maxGoals per side. For realistic expected-goal rates
// the residual mass beyond the grid is below 0.1%; the truncation is an
// accepted property of the model, and the grid is renormalized so outcome
// splits still sum to 1.
type goalGrid struct {
	maxGoals int
	cells    [][]float64
}

// newGoalGrid builds the independent joint grid from the two Poisson rates
// and applies the Dixon-Coles low-score correction before renormalizing.
func newGoalGrid(homeLambda, awayLambda float64, maxGoals int, rho float64) *goalGrid {
	g := &goalGrid{
		maxGoals: maxGoals,
		cells:    make([][]float64, maxGoals+1),
	}
	for h := 0; h <= maxGoals; h++ {
		g.cells[h] = make([]float64, maxGoals+1)
		ph := poissonPMF(homeLambda, h)
		for a := 0; a <= maxGoals; a++ {
			g.cells[h][a] = ph * poissonPMF(awayLambda, a)
		}
	}

	// Dixon-Coles correction: independence underestimates low-score draws.
	if maxGoals >= 1 && rho != 0 {
		g.cells[0][0] *= 1 - homeLambda*awayLambda*rho
		g.cells[0][1] *= 1 + homeLambda*rho
		g.cells[1][0] *= 1 + awayLambda*rho
		g.cells[1][1] *= 1 - rho
	}

	g.normalize()
	return g
}

func (g *goalGrid) normalize() {
	total := 0.0
	for h := range g.cells {
		for a := range g.cells[h] {
			total += g.cells[h][a]
		}
	}
	if total <= 0 {
		return
	}
	for h := range g.cells {
		for a := range g.cells[h] {
			g.cells[h][a] /= total
		}
	}
}

// outcomeSplit sums the grid into home-win, draw and away-win mass by
// comparing score indices.
func (g *goalGrid) outcomeSplit() (homeWin, draw, awayWin float64) {
	for h := range g.cells {
		for a := range g.cells[h] {
			switch {
			case h > a:
				homeWin += g.cells[h][a]
			case h == a:
				draw += g.cells[h][a]
			default:
				awayWin += g.cells[h][a]
			}
		}
	}
	return homeWin, draw, awayWin
}

// mostLikelyScore returns the modal score line of the joint grid.
func (g *goalGrid) mostLikelyScore() (homeGoals, awayGoals int) {
	best := -1.0
	for h := range g.cells {
		for a := range g.cells[h] {
			if g.cells[h][a] > best {
				best = g.cells[h][a]
				homeGoals, awayGoals = h, a
			}
		}
	}
	return homeGoals, awayGoals
}

// bttsProbability is the chance both sides score at least once, read off the
// same joint grid that produced the outcome split.
func (g *goalGrid) bttsProbability() float64 {
	var homeBlank, awayBlank, bothBlank float64
	for a := range g.cells[0] {
		homeBlank += g.cells[0][a]
	}
	for h := range g.cells {
		awayBlank += g.cells[h][0]
	}
	bothBlank = g.cells[0][0]
	return clamp01(1 - homeBlank - awayBlank + bothBlank)
}

// overGoalsProbability is P(total goals > threshold) from the joint grid.
func (g *goalGrid) overGoalsProbability(threshold float64) float64 {
	under := 0.0
	for h := range g.cells {
		for a := range g.cells[h] {
			if float64(h+a) <= threshold {
				under += g.cells[h][a]
			}
		}
	}
	return clamp01(1 - under)
}

// poissonSample draws one goal count by inverse-transform sampling: multiply
// uniforms until the running product falls below e^-lambda. Falls back to a
// rounded normal approximation for large rates where the loop gets long.
func poissonSample(lambda float64, rng *rand.Rand) int {
	if lambda <= 0 {
		return 0
	}
	if lambda < 30 {
		limit := math.Exp(-lambda)
		k := 0
		p := 1.0
		for p > limit {
			k++
			p *= rng.Float64()
		}
		return k - 1
	}
	sample := math.Round(lambda + math.Sqrt(lambda)*rng.NormFloat64())
	if sample < 0 {
		return 0
	}
	return int(sample)
}
