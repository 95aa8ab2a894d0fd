package engine

import (
	"math"
	"time"
)

// MatchRecord is one completed fixture from the match-history store, the
// engine's view of a historical observation.
type MatchRecord struct {
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
	Date      time.Time `json:"date"`
}

// Replay feeds an ordered match history through the rating table. Histories
// must be replayed oldest-first; the caller owns the ordering.
func (e *EloRatingSystem) Replay(history []MatchRecord) {
	for _, m := range history {
		e.UpdateRatings(m.HomeTeam, m.AwayTeam, m.HomeGoals, m.AwayGoals)
	}
}

// formWindow is the number of recent results feeding the form signal.
const formWindow = 5

// BuildFeatures derives a PredictionFeatures vector for a fixture from the
// match history. Form is the points share over each side's last five games,
// strengths are goal rates relative to the league average, and the
// head-to-head ratio is the home side's share of decisive recent meetings.
// With no history at all the vector is zeroed and the models degrade to
// their defaults.
func BuildFeatures(history []MatchRecord, homeTeam, awayTeam string) PredictionFeatures {
	if len(history) == 0 {
		return PredictionFeatures{HeadToHeadRatio: 0.5}
	}

	leagueGoals := 0
	for _, m := range history {
		leagueGoals += m.HomeGoals + m.AwayGoals
	}
	// Per-team goals per game across the league, the baseline strengths are
	// measured against.
	leagueRate := float64(leagueGoals) / (2 * float64(len(history)))
	if leagueRate <= 0 {
		leagueRate = 1
	}

	home := teamAggregates(history, homeTeam)
	away := teamAggregates(history, awayTeam)

	h2hHome, h2hAway, meetings := headToHead(history, homeTeam, awayTeam)
	h2hRatio := 0.5
	if h2hHome+h2hAway > 0 {
		h2hRatio = h2hHome / (h2hHome + h2hAway)
	}

	return PredictionFeatures{
		HomeTeamForm:          home.form,
		AwayTeamForm:          away.form,
		HomeAdvantage:         home.homeWinRate,
		HeadToHeadRatio:       h2hRatio,
		AvgGoalsHome:          home.scoredPerGame,
		AvgGoalsAway:          away.scoredPerGame,
		RecentMeetings:        math.Min(float64(meetings)/float64(formWindow), 1),
		HomeOffensiveStrength: strengthOf(home.scoredPerGame, leagueRate),
		AwayOffensiveStrength: strengthOf(away.scoredPerGame, leagueRate),
		HomeDefensiveStrength: defenseOf(home.concededPerGame, leagueRate),
		AwayDefensiveStrength: defenseOf(away.concededPerGame, leagueRate),
	}
}

// strengthOf maps a scoring rate onto [0,1] with the league average at 0.5.
func strengthOf(rate, leagueRate float64) float64 {
	return clamp01(rate / (2 * leagueRate))
}

// defenseOf maps a conceding rate onto [0,1]; conceding nothing scores 1.
func defenseOf(rate, leagueRate float64) float64 {
	return clamp01(1 - rate/(2*leagueRate))
}

type teamSummary struct {
	form            float64
	homeWinRate     float64
	scoredPerGame   float64
	concededPerGame float64
}

// teamAggregates scans the history once for a team's scoring rates, recent
// form and home record.
func teamAggregates(history []MatchRecord, team string) teamSummary {
	var played, scored, conceded int
	var homeGames, homeWins int
	var recentPoints []float64

	for _, m := range history {
		var forUs, against int
		isHome := false
		switch team {
		case m.HomeTeam:
			forUs, against = m.HomeGoals, m.AwayGoals
			isHome = true
		case m.AwayTeam:
			forUs, against = m.AwayGoals, m.HomeGoals
		default:
			continue
		}

		played++
		scored += forUs
		conceded += against
		if isHome {
			homeGames++
			if forUs > against {
				homeWins++
			}
		}

		switch {
		case forUs > against:
			recentPoints = append(recentPoints, 1)
		case forUs == against:
			recentPoints = append(recentPoints, 0.5)
		default:
			recentPoints = append(recentPoints, 0)
		}
	}

	if played == 0 {
		return teamSummary{}
	}

	if len(recentPoints) > formWindow {
		recentPoints = recentPoints[len(recentPoints)-formWindow:]
	}
	form := 0.0
	for _, p := range recentPoints {
		form += p
	}
	form /= float64(len(recentPoints))

	summary := teamSummary{
		form:            form,
		scoredPerGame:   float64(scored) / float64(played),
		concededPerGame: float64(conceded) / float64(played),
	}
	if homeGames > 0 {
		summary.homeWinRate = float64(homeWins) / float64(homeGames)
	}
	return summary
}

// headToHead counts decisive results between the two sides, from either
// venue, weighting toward nothing in particular: a win is a win.
func headToHead(history []MatchRecord, homeTeam, awayTeam string) (homeWins, awayWins float64, meetings int) {
	for _, m := range history {
		pair := (m.HomeTeam == homeTeam && m.AwayTeam == awayTeam) ||
			(m.HomeTeam == awayTeam && m.AwayTeam == homeTeam)
		if !pair {
			continue
		}
		meetings++

		var winner string
		switch {
		case m.HomeGoals > m.AwayGoals:
			winner = m.HomeTeam
		case m.AwayGoals > m.HomeGoals:
			winner = m.AwayTeam
		}
		switch winner {
		case homeTeam:
			homeWins++
		case awayTeam:
			awayWins++
		}
	}
	return homeWins, awayWins, meetings
}
