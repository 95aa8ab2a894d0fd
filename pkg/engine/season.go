package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scorecast/scorecast/internal/logger"
)

// SeasonMatch is a fixture in the season being simulated. Completed fixtures
// carry their result; unplayed fixtures are sampled per trial.
type SeasonMatch struct {
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Date      time.Time `json:"date"`
	Played    bool      `json:"played"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
}

// SeasonTeam is one standings row. Each simulation trial operates on its own
// copy; rows are never shared between trials.
type SeasonTeam struct {
	Name           string   `json:"name"`
	Played         int      `json:"played"`
	Won            int      `json:"won"`
	Drawn          int      `json:"drawn"`
	Lost           int      `json:"lost"`
	GoalsFor       int      `json:"goals_for"`
	GoalsAgainst   int      `json:"goals_against"`
	GoalDifference int      `json:"goal_difference"`
	Points         int      `json:"points"`
	Form           []string `json:"form"` // last results, most recent first, W/D/L
}

// TeamProbability pairs a team with a percentage over trials.
type TeamProbability struct {
	Team    string  `json:"team"`
	Percent float64 `json:"percent"`
}

// TeamStanding is a team's averaged final-table row across trials.
type TeamStanding struct {
	Team                  string  `json:"team"`
	AveragePoints         float64 `json:"average_points"`
	AverageGoalDifference float64 `json:"average_goal_difference"`
	ChampionPct           float64 `json:"champion_pct"`
	TopFourPct            float64 `json:"top_four_pct"`
	RelegationPct         float64 `json:"relegation_pct"`
}

// SeasonSimulationResult aggregates the trials of one simulation run.
type SeasonSimulationResult struct {
	ID     string `json:"id"`
	League string `json:"league"`
	Season string `json:"season"`

	Table                   []TeamStanding    `json:"table"`
	ChampionProbabilities   []TeamProbability `json:"champion_probabilities"`
	TopFourProbabilities    []TeamProbability `json:"top_four_probabilities"`
	RelegationProbabilities []TeamProbability `json:"relegation_probabilities"`

	Trials           int  `json:"trials"`
	Partial          bool `json:"partial"`
	PlayedMatches    int  `json:"played_matches"`
	SimulatedMatches int  `json:"simulated_matches"`

	// Accuracy is filled in retrospectively once the real season completes;
	// at generation time it is always zero.
	Accuracy    float64   `json:"accuracy"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SeasonSimulator replays a fixture list many times, sampling the unplayed
// fixtures from Poisson goal models, to produce a probabilistic final table.
type SeasonSimulator struct {
	cfg  *Config
	seed int64
}

// NewSeasonSimulator creates a simulator. The seed fixes every trial's
// random stream so runs are reproducible.
func NewSeasonSimulator(cfg *Config, seed int64) *SeasonSimulator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SeasonSimulator{cfg: cfg, seed: seed}
}

// trialAccumulator is one worker's private reduction over its trials.
// Integer accumulation keeps the merged aggregate independent of worker
// scheduling, so a fixed seed reproduces results bit-for-bit.
type trialAccumulator struct {
	trials    int
	points    []int64
	goalDiff  []int64
	champion  []int64
	topFour   []int64
	relegated []int64
}

func newTrialAccumulator(teams int) *trialAccumulator {
	return &trialAccumulator{
		points:    make([]int64, teams),
		goalDiff:  make([]int64, teams),
		champion:  make([]int64, teams),
		topFour:   make([]int64, teams),
		relegated: make([]int64, teams),
	}
}

func (a *trialAccumulator) merge(b *trialAccumulator) {
	a.trials += b.trials
	for i := range a.points {
		a.points[i] += b.points[i]
		a.goalDiff[i] += b.goalDiff[i]
		a.champion[i] += b.champion[i]
		a.topFour[i] += b.topFour[i]
		a.relegated[i] += b.relegated[i]
	}
}

// Simulate runs the trial loop for one season. trials <= 0 selects the
// configured maximum, and any request is capped there. A context deadline
// yields the aggregate over the trials completed so far, flagged Partial.
func (s *SeasonSimulator) Simulate(ctx context.Context, league, season string, fixtures []SeasonMatch, trials int) (*SeasonSimulationResult, error) {
	fixtures = validFixtures(fixtures)
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("%w: season %s/%s has no fixtures", ErrEmptyDataset, league, season)
	}
	if trials <= 0 || trials > s.cfg.SeasonMaxTrials {
		trials = s.cfg.SeasonMaxTrials
	}

	base, index := buildBaseTable(fixtures)
	if len(base) == 0 {
		return nil, fmt.Errorf("%w: season %s/%s names no teams", ErrEmptyDataset, league, season)
	}
	rates := buildScoringRates(fixtures, index, s.cfg)

	var unplayed []SeasonMatch
	played := 0
	for _, m := range fixtures {
		if m.Played {
			played++
		} else {
			unplayed = append(unplayed, m)
		}
	}

	logger.Debug("Season simulation starting", league, season, trials, "trials")

	// At least one worker, or the feed loop below has no reader.
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > trials {
		workers = trials
	}
	trialCh := make(chan int)
	accCh := make(chan *trialAccumulator, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Per-worker arena: one standings buffer reused across trials
			// instead of a fresh deep copy per trial.
			arena := make([]SeasonTeam, len(base))
			formBufs := make([][]string, len(base))
			for i := range formBufs {
				formBufs[i] = make([]string, 0, formWindow)
			}
			acc := newTrialAccumulator(len(base))
			for trial := range trialCh {
				rng := rand.New(rand.NewSource(s.seed + int64(uint64(trial)*0x9E3779B97F4A7C15)))
				s.runTrial(arena, formBufs, base, unplayed, index, rates, rng, acc)
			}
			accCh <- acc
		}()
	}

feed:
	for trial := 0; trial < trials; trial++ {
		select {
		case trialCh <- trial:
		case <-ctx.Done():
			logger.Warn("Season simulation deadline hit, aggregating partial result", league, season)
			break feed
		}
	}
	close(trialCh)
	wg.Wait()
	close(accCh)

	total := newTrialAccumulator(len(base))
	for acc := range accCh {
		total.merge(acc)
	}
	if total.trials == 0 {
		return nil, fmt.Errorf("%w: no trials completed before deadline", ErrEmptyDataset)
	}

	result := s.aggregate(league, season, base, total)
	result.Partial = total.trials < trials
	result.PlayedMatches = played
	result.SimulatedMatches = len(unplayed)
	return result, nil
}

// runTrial resets the arena to the replayed base table, samples every
// unplayed fixture, sorts the final standings and accumulates the placings.
func (s *SeasonSimulator) runTrial(arena []SeasonTeam, formBufs [][]string, base []SeasonTeam, unplayed []SeasonMatch, index map[string]int, rates []scoringRates, rng *rand.Rand, acc *trialAccumulator) {
	for i := range base {
		arena[i] = base[i]
		arena[i].Form = append(formBufs[i][:0], base[i].Form...)
		formBufs[i] = arena[i].Form
	}

	for _, m := range unplayed {
		hi, ai := index[m.HomeTeam], index[m.AwayTeam]
		lambdaHome, lambdaAway := matchRates(rates[hi], rates[ai], s.cfg)
		homeGoals := poissonSample(lambdaHome, rng)
		awayGoals := poissonSample(lambdaAway, rng)
		applyResult(&arena[hi], &arena[ai], homeGoals, awayGoals)
	}

	order := standingsOrder(arena)
	topCut := s.cfg.SeasonTopPlaces
	bottomCut := len(arena) - s.cfg.SeasonBottomPlaces
	if bottomCut < 1 {
		bottomCut = 1
	}

	for pos, teamIdx := range order {
		acc.points[teamIdx] += int64(arena[teamIdx].Points)
		acc.goalDiff[teamIdx] += int64(arena[teamIdx].GoalDifference)
		if pos == 0 {
			acc.champion[teamIdx]++
		}
		if pos < topCut {
			acc.topFour[teamIdx]++
		}
		if pos >= bottomCut {
			acc.relegated[teamIdx]++
		}
	}
	acc.trials++
}

// aggregate converts the merged accumulator into the published result.
func (s *SeasonSimulator) aggregate(league, season string, base []SeasonTeam, total *trialAccumulator) *SeasonSimulationResult {
	n := float64(total.trials)

	table := make([]TeamStanding, len(base))
	for i := range base {
		table[i] = TeamStanding{
			Team:                  base[i].Name,
			AveragePoints:         float64(total.points[i]) / n,
			AverageGoalDifference: float64(total.goalDiff[i]) / n,
			ChampionPct:           float64(total.champion[i]) / n * 100,
			TopFourPct:            float64(total.topFour[i]) / n * 100,
			RelegationPct:         float64(total.relegated[i]) / n * 100,
		}
	}
	sort.SliceStable(table, func(i, j int) bool {
		if table[i].AveragePoints != table[j].AveragePoints {
			return table[i].AveragePoints > table[j].AveragePoints
		}
		return table[i].AverageGoalDifference > table[j].AverageGoalDifference
	})

	return &SeasonSimulationResult{
		ID:                      uuid.NewString(),
		League:                  league,
		Season:                  season,
		Table:                   table,
		ChampionProbabilities:   probabilityList(table, func(t TeamStanding) float64 { return t.ChampionPct }),
		TopFourProbabilities:    probabilityList(table, func(t TeamStanding) float64 { return t.TopFourPct }),
		RelegationProbabilities: probabilityList(table, func(t TeamStanding) float64 { return t.RelegationPct }),
		Trials:                  total.trials,
		GeneratedAt:             time.Now().UTC(),
	}
}

// probabilityList extracts the non-zero entries of one percentage column,
// sorted descending.
func probabilityList(table []TeamStanding, pct func(TeamStanding) float64) []TeamProbability {
	var list []TeamProbability
	for _, row := range table {
		if p := pct(row); p > 0 {
			list = append(list, TeamProbability{Team: row.Team, Percent: p})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Percent > list[j].Percent })
	return list
}

// validFixtures drops entries that cannot take part in a simulation.
func validFixtures(fixtures []SeasonMatch) []SeasonMatch {
	valid := make([]SeasonMatch, 0, len(fixtures))
	for _, m := range fixtures {
		if m.HomeTeam == "" || m.AwayTeam == "" || m.HomeTeam == m.AwayTeam {
			logger.Warn("Skipping malformed fixture", m.HomeTeam, "vs", m.AwayTeam)
			continue
		}
		valid = append(valid, m)
	}
	return valid
}

// buildBaseTable initializes a standings row per team seen in the fixture
// list and applies every already-played result. The base table is identical
// for every trial.
func buildBaseTable(fixtures []SeasonMatch) ([]SeasonTeam, map[string]int) {
	index := make(map[string]int)
	var table []SeasonTeam

	register := func(name string) {
		if _, ok := index[name]; ok {
			return
		}
		index[name] = len(table)
		table = append(table, SeasonTeam{Name: name})
	}

	for _, m := range fixtures {
		register(m.HomeTeam)
		register(m.AwayTeam)
	}
	for _, m := range fixtures {
		if !m.Played {
			continue
		}
		applyResult(&table[index[m.HomeTeam]], &table[index[m.AwayTeam]], m.HomeGoals, m.AwayGoals)
	}
	return table, index
}

// applyResult updates both standings rows for one result.
func applyResult(home, away *SeasonTeam, homeGoals, awayGoals int) {
	home.Played++
	away.Played++
	home.GoalsFor += homeGoals
	home.GoalsAgainst += awayGoals
	away.GoalsFor += awayGoals
	away.GoalsAgainst += homeGoals
	home.GoalDifference = home.GoalsFor - home.GoalsAgainst
	away.GoalDifference = away.GoalsFor - away.GoalsAgainst

	switch {
	case homeGoals > awayGoals:
		home.Won++
		away.Lost++
		home.Points += 3
		pushForm(home, "W")
		pushForm(away, "L")
	case homeGoals < awayGoals:
		away.Won++
		home.Lost++
		away.Points += 3
		pushForm(home, "L")
		pushForm(away, "W")
	default:
		home.Drawn++
		away.Drawn++
		home.Points++
		away.Points++
		pushForm(home, "D")
		pushForm(away, "D")
	}
}

// pushForm prepends the result, keeping the rolling window.
func pushForm(team *SeasonTeam, result string) {
	team.Form = append(team.Form, "")
	copy(team.Form[1:], team.Form)
	team.Form[0] = result
	if len(team.Form) > formWindow {
		team.Form = team.Form[:formWindow]
	}
}

// standingsOrder returns team indexes sorted by points, then goal
// difference, then goals scored, all descending. Name breaks the final tie
// so orderings are stable across runs.
func standingsOrder(table []SeasonTeam) []int {
	order := make([]int, len(table))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := table[order[i]], table[order[j]]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Name < b.Name
	})
	return order
}

// scoringRates is a team's attack and defence relative to the league
// average, estimated from the played portion of the season.
type scoringRates struct {
	attack  float64
	defense float64
}

// buildScoringRates estimates per-team rates from played fixtures. Teams
// with no completed games get neutral rates.
func buildScoringRates(fixtures []SeasonMatch, index map[string]int, cfg *Config) []scoringRates {
	type tally struct {
		played, scored, conceded int
	}
	tallies := make([]tally, len(index))
	leagueGoals, leaguePlayed := 0, 0

	for _, m := range fixtures {
		if !m.Played {
			continue
		}
		hi, ai := index[m.HomeTeam], index[m.AwayTeam]
		tallies[hi].played++
		tallies[hi].scored += m.HomeGoals
		tallies[hi].conceded += m.AwayGoals
		tallies[ai].played++
		tallies[ai].scored += m.AwayGoals
		tallies[ai].conceded += m.HomeGoals
		leagueGoals += m.HomeGoals + m.AwayGoals
		leaguePlayed++
	}

	leagueRate := 1.0
	if leaguePlayed > 0 {
		leagueRate = float64(leagueGoals) / (2 * float64(leaguePlayed))
		if leagueRate <= 0 {
			leagueRate = 1
		}
	}

	rates := make([]scoringRates, len(tallies))
	for i, t := range tallies {
		if t.played == 0 {
			rates[i] = scoringRates{attack: 1, defense: 1}
			continue
		}
		rates[i] = scoringRates{
			attack:  float64(t.scored) / float64(t.played) / leagueRate,
			defense: float64(t.conceded) / float64(t.played) / leagueRate,
		}
	}
	return rates
}

// matchRates turns two teams' relative rates into the Poisson parameters of
// one fixture. The league-average baselines carry the home/away asymmetry.
func matchRates(home, away scoringRates, cfg *Config) (lambdaHome, lambdaAway float64) {
	lambdaHome = cfg.DefaultHomeGoalRate * home.attack * away.defense
	lambdaAway = cfg.DefaultAwayGoalRate * away.attack * home.defense

	// Keep rates in a sane band even for degenerate early-season data.
	if lambdaHome < 0.1 {
		lambdaHome = 0.1
	}
	if lambdaAway < 0.1 {
		lambdaAway = 0.1
	}
	if lambdaHome > 10 {
		lambdaHome = 10
	}
	if lambdaAway > 10 {
		lambdaAway = 10
	}
	return lambdaHome, lambdaAway
}
