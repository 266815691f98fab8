package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/courtmix/courtmix/internal/schedule"
)

// PlayerStats holds per-player schedule statistics.
type PlayerStats struct {
	Name       string
	Level      int
	Games      int
	Rests      int
	Partners   int
	Opponents  int
	Violations []string
}

// Summary is the post-generation report for one schedule.
type Summary struct {
	Players  []PlayerStats // roster order
	Warnings []string
}

// Summarize builds per-player statistics and schedule-quality warnings
// for a generated schedule.
func Summarize(req schedule.Request, sched *schedule.Schedule) *Summary {
	weights := req.Options.Weights
	if weights == (schedule.Weights{}) {
		weights = schedule.DefaultWeights
	}

	games := make(map[string]int)
	rests := make(map[string]int)
	partners := make(map[string]map[string]bool)
	opponents := make(map[string]map[string]bool)
	violations := make(map[string][]string)

	matchupRounds := make(map[string][]int)
	for _, r := range sched.Rounds {
		for _, c := range r.Courts {
			teamUp(c.Team1, games, partners)
			if c.Team2 != nil {
				teamUp(*c.Team2, games, partners)
				for _, a := range []schedule.Player{c.Team1.P1, c.Team1.P2} {
					for _, b := range []schedule.Player{c.Team2.P1, c.Team2.P2} {
						mark(opponents, a.Name, b.Name)
						mark(opponents, b.Name, a.Name)
					}
				}
				key := schedule.MatchupKey(c.Team1.P1.Name, c.Team1.P2.Name, c.Team2.P1.Name, c.Team2.P2.Name)
				matchupRounds[key] = append(matchupRounds[key], r.Index)
			}
		}
		for _, name := range r.Resting {
			rests[name]++
		}
	}

	var warnings []string

	// Matchups that recur inside the repeat horizon.
	keys := make([]string, 0, len(matchupRounds))
	for key := range matchupRounds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		rounds := matchupRounds[key]
		for i := 1; i < len(rounds); i++ {
			gap := rounds[i] - rounds[i-1]
			if gap > weights.RepeatHorizon {
				continue
			}
			names := strings.Split(key, "|")
			w := fmt.Sprintf("matchup %s repeats after %d rounds (rounds %d and %d)",
				strings.Join(names, ", "), gap, rounds[i-1]+1, rounds[i]+1)
			warnings = append(warnings, w)
			for _, name := range names {
				violations[name] = append(violations[name], w)
			}
		}
	}

	// Fixed pairs that ended up facing each other, or never teamed.
	for _, pair := range req.Fixed {
		together := 0
		for _, r := range sched.Rounds {
			if onSameTeam(r, pair) {
				together++
				continue
			}
			if court, facing := facingEachOther(r, pair); facing {
				w := fmt.Sprintf("fixed pair %s and %s face each other on court %d in round %d",
					pair.A, pair.B, court, r.Index+1)
				warnings = append(warnings, w)
				violations[pair.A] = append(violations[pair.A], w)
				violations[pair.B] = append(violations[pair.B], w)
			}
		}
		if together == 0 && len(sched.Rounds) > 0 {
			w := fmt.Sprintf("fixed pair %s and %s never played together", pair.A, pair.B)
			warnings = append(warnings, w)
			violations[pair.A] = append(violations[pair.A], w)
			violations[pair.B] = append(violations[pair.B], w)
		}
	}

	// Play-count balance across the roster.
	minGames, maxGames := -1, 0
	for _, p := range req.Players {
		n := games[p.Name]
		if minGames < 0 || n < minGames {
			minGames = n
		}
		if n > maxGames {
			maxGames = n
		}
	}
	if maxGames-minGames > 1 {
		warnings = append(warnings, fmt.Sprintf(
			"game count imbalance: min %d, max %d across players", minGames, maxGames))
	}

	players := make([]PlayerStats, len(req.Players))
	for i, p := range req.Players {
		players[i] = PlayerStats{
			Name:       p.Name,
			Level:      p.Level,
			Games:      games[p.Name],
			Rests:      rests[p.Name],
			Partners:   len(partners[p.Name]),
			Opponents:  len(opponents[p.Name]),
			Violations: violations[p.Name],
		}
	}

	return &Summary{Players: players, Warnings: warnings}
}

func teamUp(t schedule.Team, games map[string]int, partners map[string]map[string]bool) {
	games[t.P1.Name]++
	games[t.P2.Name]++
	mark(partners, t.P1.Name, t.P2.Name)
	mark(partners, t.P2.Name, t.P1.Name)
}

// mark records other under name, creating the set on first use. A
// schedule may name players outside the request roster; their entries
// are kept here but never reach the summary.
func mark(m map[string]map[string]bool, name, other string) {
	if m[name] == nil {
		m[name] = make(map[string]bool)
	}
	m[name][other] = true
}

func onSameTeam(r schedule.Round, pair schedule.Pair) bool {
	key := schedule.PairKey(pair.A, pair.B)
	for _, c := range r.Courts {
		if schedule.PairKey(c.Team1.P1.Name, c.Team1.P2.Name) == key {
			return true
		}
		if c.Team2 != nil && schedule.PairKey(c.Team2.P1.Name, c.Team2.P2.Name) == key {
			return true
		}
	}
	return false
}

func facingEachOther(r schedule.Round, pair schedule.Pair) (int, bool) {
	for _, c := range r.Courts {
		if c.Team2 == nil {
			continue
		}
		first := c.Team1.P1.Name == pair.A || c.Team1.P2.Name == pair.A
		second := c.Team2.P1.Name == pair.B || c.Team2.P2.Name == pair.B
		if first && second {
			return c.Court, true
		}
		first = c.Team1.P1.Name == pair.B || c.Team1.P2.Name == pair.B
		second = c.Team2.P1.Name == pair.A || c.Team2.P2.Name == pair.A
		if first && second {
			return c.Court, true
		}
	}
	return 0, false
}
