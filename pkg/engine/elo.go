package engine

import (
	"math"
	"time"
)

// EloRating is the per-team entry in the rating table.
type EloRating struct {
	Rating      float64   `json:"rating"`
	Games       int       `json:"games"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// EloRatingSystem tracks relative team strength and converts rating
// differentials into outcome probabilities. Each instance owns its rating
// table exclusively; independent analyses should each construct their own so
// replayed histories never contaminate one another. Updates are single-writer:
// replay matches sequentially, the system does not serialize concurrent
// UpdateRatings calls itself.
type EloRatingSystem struct {
	cfg     *Config
	ratings map[string]*EloRating
	now     func() time.Time
}

// NewEloRatingSystem creates an empty rating table. A nil cfg uses defaults.
func NewEloRatingSystem(cfg *Config) *EloRatingSystem {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &EloRatingSystem{
		cfg:     cfg,
		ratings: make(map[string]*EloRating),
		now:     time.Now,
	}
}

// GetRating returns the stored rating for a team, or the base-rating default
// for a team never seen. The lookup never mutates the table.
func (e *EloRatingSystem) GetRating(team string) EloRating {
	if r, ok := e.ratings[team]; ok {
		return *r
	}
	return EloRating{Rating: e.cfg.EloBaseRating, Games: 0, LastUpdated: e.now()}
}

// ExpectedScore returns the probability, in (0,1), that the home side wins a
// hypothetical decisive match, from the logistic curve over the rating
// differential plus home advantage.
func (e *EloRatingSystem) ExpectedScore(home, away string) float64 {
	homeRating := e.GetRating(home).Rating + e.cfg.EloHomeAdvantage
	awayRating := e.GetRating(away).Rating
	expected := 1.0 / (1.0 + math.Pow(10, (awayRating-homeRating)/400.0))
	// The logistic asymptotes keep us inside (0,1) for any finite rating,
	// but clamp anyway so extreme synthetic ratings cannot leak 0 or 1.
	return math.Max(1e-9, math.Min(1-1e-9, expected))
}

// kFactor adapts the update step to how much evidence a team has: new teams
// move quickly toward their level, proven teams are damped.
func (e *EloRatingSystem) kFactor(games int) float64 {
	switch {
	case games < e.cfg.EloYoungTeamGames:
		return e.cfg.EloKFactor * e.cfg.EloYoungKBoost
	case games < e.cfg.EloProvenTeamGames:
		return e.cfg.EloKFactor
	default:
		return e.cfg.EloKFactor * e.cfg.EloProvenKDamp
	}
}

// UpdateRatings applies one completed result to both teams. The update is
// zero-sum by construction: the rating the winner gains is the rating the
// loser sheds, though each side steps with its own K-factor when their game
// counts fall in different bands.
func (e *EloRatingSystem) UpdateRatings(home, away string, homeGoals, awayGoals int) {
	homeEntry := e.entry(home)
	awayEntry := e.entry(away)

	expected := e.ExpectedScore(home, away)

	var actual float64
	switch {
	case homeGoals > awayGoals:
		actual = 1.0
	case homeGoals == awayGoals:
		actual = 0.5
	default:
		actual = 0.0
	}

	// A shared K keeps the exchange zero-sum; use the mean of the two sides'
	// adaptive factors so a newcomer facing a veteran still converges faster.
	k := (e.kFactor(homeEntry.Games) + e.kFactor(awayEntry.Games)) / 2
	delta := k * (actual - expected)

	now := e.now()
	homeEntry.Rating += delta
	homeEntry.Games++
	homeEntry.LastUpdated = now

	awayEntry.Rating -= delta
	awayEntry.Games++
	awayEntry.LastUpdated = now
}

// entry returns the mutable rating row, creating it lazily at the base rating.
func (e *EloRatingSystem) entry(team string) *EloRating {
	if r, ok := e.ratings[team]; ok {
		return r
	}
	r := &EloRating{Rating: e.cfg.EloBaseRating, Games: 0, LastUpdated: e.now()}
	e.ratings[team] = r
	return r
}

// OutcomeProbabilities is an outcome split derived from ratings alone.
type OutcomeProbabilities struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// Probabilities derives a home/draw/away split from the expected score. The
// configured empirical draw rate takes its share first and the decisive mass
// is split by the expected score, then the three are renormalized to sum to 1.
func (e *EloRatingSystem) Probabilities(home, away string) OutcomeProbabilities {
	expected := e.ExpectedScore(home, away)
	draw := e.cfg.EloDrawRate

	homeWin := clamp01(expected * (1 - draw))
	awayWin := clamp01((1 - expected) * (1 - draw))

	total := homeWin + draw + awayWin
	return OutcomeProbabilities{
		HomeWin: homeWin / total,
		Draw:    draw / total,
		AwayWin: awayWin / total,
	}
}

// Ratings returns a snapshot copy of the rating table.
func (e *EloRatingSystem) Ratings() map[string]EloRating {
	snapshot := make(map[string]EloRating, len(e.ratings))
	for team, r := range e.ratings {
		snapshot[team] = *r
	}
	return snapshot
}
