package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Gender classifies a player for gender-balanced pairing.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Player is one roster entry. Names must be unique within a request.
type Player struct {
	Name   string
	Level  int
	Gender Gender
}

// Pair names two players without regard to order.
type Pair struct {
	A string
	B string
}

func (p Pair) key() string { return PairKey(p.A, p.B) }

// Team is two players on the same side of the net.
type Team struct {
	P1 Player
	P2 Player
}

func (t Team) key() string { return PairKey(t.P1.Name, t.P2.Name) }

func (t Team) String() string { return t.P1.Name + " / " + t.P2.Name }

// CourtMatch is one court's assignment within a round. Team2 is nil
// only when a lone team is left with nobody to face.
type CourtMatch struct {
	Court int
	Team1 Team
	Team2 *Team
}

// Players returns everyone on the court.
func (c CourtMatch) Players() []Player {
	ps := []Player{c.Team1.P1, c.Team1.P2}
	if c.Team2 != nil {
		ps = append(ps, c.Team2.P1, c.Team2.P2)
	}
	return ps
}

// Round is one committed scheduling round. Score is the value the
// candidate scorer assigned when the round was chosen; lower is
// better.
type Round struct {
	Index   int
	Courts  []CourtMatch
	Resting []string
	Score   int
}

// Schedule is the complete output of one generation run. Seed records
// the random seed that produced it, so the run can be reproduced.
type Schedule struct {
	Rounds []Round
	Seed   int64
}

// TotalScore sums the per-round scores.
func (s *Schedule) TotalScore() int {
	total := 0
	for _, r := range s.Rounds {
		total += r.Score
	}
	return total
}

// PriorityMode selects how partner candidates are ordered during the
// pairing search.
type PriorityMode string

const (
	// PriorityNone keeps the caller's candidate order.
	PriorityNone PriorityMode = "none"
	// PriorityLevel prefers partners of the closest skill level.
	PriorityLevel PriorityMode = "level"
	// PriorityGender prefers mixed-gender teams.
	PriorityGender PriorityMode = "gender"
)

// ParsePriorityMode maps a configuration string onto a PriorityMode.
// The empty string selects PriorityNone.
func ParsePriorityMode(s string) (PriorityMode, error) {
	switch s {
	case "", string(PriorityNone):
		return PriorityNone, nil
	case string(PriorityLevel):
		return PriorityLevel, nil
	case string(PriorityGender):
		return PriorityGender, nil
	}
	return "", fmt.Errorf("unknown priority mode %q (expected none, level, or gender)", s)
}

// RepeatMode selects how repeated four-player matchups are treated.
type RepeatMode string

const (
	// RepeatPenalize scores repeats steeply but still allows them when
	// nothing better turns up.
	RepeatPenalize RepeatMode = "penalize"
	// RepeatForbid discards any candidate round that reproduces a
	// matchup seen earlier in the schedule.
	RepeatForbid RepeatMode = "forbid"
)

// ParseRepeatMode maps a configuration string onto a RepeatMode. The
// empty string selects RepeatPenalize.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "", string(RepeatPenalize):
		return RepeatPenalize, nil
	case string(RepeatForbid):
		return RepeatForbid, nil
	}
	return "", fmt.Errorf("unknown repeat mode %q (expected penalize or forbid)", s)
}

var (
	// ErrInvalidInput reports a request that can never produce a
	// schedule, rejected before any search begins.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasibleRound reports a round for which no acceptable
	// assignment was found within the attempt budget.
	ErrInfeasibleRound = errors.New("infeasible round")
)

// InfeasibleRoundError carries diagnostics for the round that could
// not be planned. It unwraps to ErrInfeasibleRound.
type InfeasibleRoundError struct {
	Round           int
	Attempts        int
	PairingFailures int
	RepeatDiscards  int
}

func (e *InfeasibleRoundError) Error() string {
	msg := fmt.Sprintf("round %d: no viable assignment after %d attempts (%d pairing failures",
		e.Round+1, e.Attempts, e.PairingFailures)
	if e.RepeatDiscards > 0 {
		msg += fmt.Sprintf(", %d repeat discards", e.RepeatDiscards)
	}
	return msg + ")"
}

func (e *InfeasibleRoundError) Unwrap() error { return ErrInfeasibleRound }

// PairKey returns a canonical key for an unordered pair of names.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// MatchupKey returns a canonical key for the players on one court,
// independent of how they are split into teams.
func MatchupKey(names ...string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func matchupKey(t1, t2 Team) string {
	return MatchupKey(t1.P1.Name, t1.P2.Name, t2.P1.Name, t2.P2.Name)
}
