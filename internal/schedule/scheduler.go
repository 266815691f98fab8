package schedule

import (
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAttempts is the per-round candidate budget.
	DefaultAttempts = 60
	// DefaultSeed seeds generation when the caller does not supply
	// one.
	DefaultSeed int64 = 42
)

// Request describes one schedule to generate.
type Request struct {
	Players    []Player
	CourtCount int
	RoundCount int
	Fixed      []Pair
	Forbidden  []Pair
	Priority   PriorityMode
	Options    Options
}

// Options tunes a generation run. The zero value selects the defaults.
type Options struct {
	// Seed makes the run reproducible. Zero selects DefaultSeed.
	Seed int64
	// Attempts is the per-round candidate budget. Zero or negative
	// selects DefaultAttempts.
	Attempts int
	// Repeats selects how repeated matchups are treated. Empty selects
	// RepeatPenalize.
	Repeats RepeatMode
	// Weights overrides the scoring policy. An all-zero struct selects
	// DefaultWeights; an override that sets any field keeps its
	// remaining zeros.
	Weights Weights
	// Logger receives per-round planning details at debug level.
	Logger logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Repeats == "" {
		o.Repeats = RepeatPenalize
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	return o
}

func (r Request) validate() error {
	if len(r.Players) < 2 {
		return fmt.Errorf("%w: at least 2 players required, got %d", ErrInvalidInput, len(r.Players))
	}
	if r.CourtCount < 1 {
		return fmt.Errorf("%w: court count must be at least 1, got %d", ErrInvalidInput, r.CourtCount)
	}
	if r.RoundCount < 0 {
		return fmt.Errorf("%w: round count must not be negative, got %d", ErrInvalidInput, r.RoundCount)
	}
	switch r.Priority {
	case PriorityNone, PriorityLevel, PriorityGender:
	default:
		return fmt.Errorf("%w: unknown priority mode %q", ErrInvalidInput, r.Priority)
	}
	switch r.Options.Repeats {
	case RepeatPenalize, RepeatForbid:
	default:
		return fmt.Errorf("%w: unknown repeat mode %q", ErrInvalidInput, r.Options.Repeats)
	}
	names := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		if p.Name == "" {
			return fmt.Errorf("%w: player with empty name", ErrInvalidInput)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidInput, p.Name)
		}
		names[p.Name] = true
		if p.Level < 1 || p.Level > 8 {
			return fmt.Errorf("%w: player %q level must be 1-8, got %d", ErrInvalidInput, p.Name, p.Level)
		}
		switch p.Gender {
		case "", Male, Female:
		default:
			return fmt.Errorf("%w: player %q gender must be male or female, got %q", ErrInvalidInput, p.Name, p.Gender)
		}
	}
	if r.Priority == PriorityGender {
		for _, p := range r.Players {
			if p.Gender == "" {
				return fmt.Errorf("%w: gender priority requires a gender for every player, %q has none", ErrInvalidInput, p.Name)
			}
		}
	}
	forbidden := make(map[string]bool, len(r.Forbidden))
	for _, pair := range r.Forbidden {
		if err := checkPair(pair, names, "forbidden"); err != nil {
			return err
		}
		forbidden[pair.key()] = true
	}
	for _, pair := range r.Fixed {
		if err := checkPair(pair, names, "fixed"); err != nil {
			return err
		}
		if forbidden[pair.key()] {
			return fmt.Errorf("%w: pair %s and %s is both fixed and forbidden", ErrInvalidInput, pair.A, pair.B)
		}
	}
	return nil
}

func checkPair(p Pair, names map[string]bool, kind string) error {
	if !names[p.A] {
		return fmt.Errorf("%w: %s pair references unknown player %q", ErrInvalidInput, kind, p.A)
	}
	if !names[p.B] {
		return fmt.Errorf("%w: %s pair references unknown player %q", ErrInvalidInput, kind, p.B)
	}
	if p.A == p.B {
		return fmt.Errorf("%w: %s pair must name two distinct players, got %q twice", ErrInvalidInput, kind, p.A)
	}
	return nil
}

// state tracks cross-round history for one generation run. Maps are
// keyed by player name or matchup key; a missing lastPlayed entry
// means the player has never been scheduled.
type state struct {
	gamesPlayed  map[string]int
	lastPlayed   map[string]int
	prevPairs    map[string]bool
	matchupCount map[string]int
	matchupLast  map[string]int
}

func newState() *state {
	return &state{
		gamesPlayed:  make(map[string]int),
		lastPlayed:   make(map[string]int),
		prevPairs:    make(map[string]bool),
		matchupCount: make(map[string]int),
		matchupLast:  make(map[string]int),
	}
}

// generator owns the running state of one generation. It is not safe
// for concurrent use; run independent generators instead.
type generator struct {
	req        Request
	weights    Weights
	attempts   int
	repeatMode RepeatMode
	fixed      []Pair
	forbidden  map[string]bool
	// blockSize is the number of rounds it takes the whole roster to
	// play once, or zero when the roster does not divide evenly.
	blockSize int
	// earlyStop is the best score any candidate can reach: zero, less
	// the bonus for every configured fixed pair.
	earlyStop int
	rng       *rand.Rand
	log       logrus.FieldLogger
	st        *state
}

func newGenerator(req Request) *generator {
	forbidden := make(map[string]bool, len(req.Forbidden))
	for _, p := range req.Forbidden {
		forbidden[p.key()] = true
	}
	g := &generator{
		req:        req,
		weights:    req.Options.Weights,
		attempts:   req.Options.Attempts,
		repeatMode: req.Options.Repeats,
		fixed:      req.Fixed,
		forbidden:  forbidden,
		earlyStop:  -req.Options.Weights.FixedPairBonus * len(req.Fixed),
		rng:        rand.New(rand.NewSource(req.Options.Seed)),
		log:        req.Options.Logger,
		st:         newState(),
	}
	if active := 4 * req.CourtCount; len(req.Players)%active == 0 {
		g.blockSize = len(req.Players) / active
	}
	return g
}

// trialOrder produces the player order for one attempt: shuffled for
// tie-breaking, then stably sorted so the fewest games and the longest
// wait come first. Players who have never played sort before everyone
// else on the same game count.
func (g *generator) trialOrder() []Player {
	order := make([]Player, len(g.req.Players))
	copy(order, g.req.Players)
	g.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	sort.SliceStable(order, func(i, j int) bool {
		gi := g.st.gamesPlayed[order[i].Name]
		gj := g.st.gamesPlayed[order[j].Name]
		if gi != gj {
			return gi < gj
		}
		return g.lastPlayedOrNever(order[i].Name) < g.lastPlayedOrNever(order[j].Name)
	})
	return order
}

func (g *generator) lastPlayedOrNever(name string) int {
	if last, ok := g.st.lastPlayed[name]; ok {
		return last
	}
	return -1
}

// assignCourts fills courts two teams at a time in the order the
// pairing search produced them. A lone final team takes a court
// without an opponent when capacity remains; teams beyond capacity
// rest whole, never split.
func assignCourts(teams []Team, leftover []Player, courtCount int) ([]CourtMatch, []string) {
	var courts []CourtMatch
	var resting []string
	for i := 0; i < len(teams); i += 2 {
		court := len(courts) + 1
		if court > courtCount {
			for _, t := range teams[i:] {
				resting = append(resting, t.P1.Name, t.P2.Name)
			}
			break
		}
		m := CourtMatch{Court: court, Team1: teams[i]}
		if i+1 < len(teams) {
			t2 := teams[i+1]
			m.Team2 = &t2
		}
		courts = append(courts, m)
	}
	for _, p := range leftover {
		resting = append(resting, p.Name)
	}
	return courts, resting
}

// planRound runs up to the attempt budget of candidates for one round
// and commits the best one. Each attempt reorders the players, searches
// for a feasible pairing, assigns courts, and scores the result; the
// lowest score wins, with an early exit once no candidate could do
// better.
func (g *generator) planRound(round int) (*Round, error) {
	var best *Round
	pairingFailures := 0
	repeatDiscards := 0
	for attempt := 0; attempt < g.attempts; attempt++ {
		order := g.trialOrder()
		teams, leftover, ok := searchPairs(order, g.st.prevPairs, g.forbidden, g.req.Priority)
		if !ok {
			pairingFailures++
			continue
		}
		courts, resting := assignCourts(teams, leftover, g.req.CourtCount)
		if g.repeatMode == RepeatForbid && g.repeatsMatchup(courts) {
			repeatDiscards++
			continue
		}
		score := g.scoreRound(courts, round)
		if best == nil || score < best.Score {
			best = &Round{Index: round, Courts: courts, Resting: resting, Score: score}
			if score <= g.earlyStop {
				break
			}
		}
	}
	if best == nil {
		return nil, &InfeasibleRoundError{
			Round:           round,
			Attempts:        g.attempts,
			PairingFailures: pairingFailures,
			RepeatDiscards:  repeatDiscards,
		}
	}
	g.commit(best)
	g.log.WithFields(logrus.Fields{
		"round":   round + 1,
		"courts":  len(best.Courts),
		"resting": len(best.Resting),
		"score":   best.Score,
	}).Debug("round planned")
	return best, nil
}

// repeatsMatchup reports whether any court reproduces a matchup seen
// in an earlier round.
func (g *generator) repeatsMatchup(courts []CourtMatch) bool {
	for _, c := range courts {
		if c.Team2 == nil {
			continue
		}
		if g.st.matchupCount[matchupKey(c.Team1, *c.Team2)] > 0 {
			return true
		}
	}
	return false
}

// commit folds an accepted round into the running state. Games and
// last-played advance for everyone on a court, the previous-round pair
// set is replaced, and matchup history grows for every two-team court.
func (g *generator) commit(r *Round) {
	pairs := make(map[string]bool, len(r.Courts)*2)
	for _, c := range r.Courts {
		for _, p := range c.Players() {
			g.st.gamesPlayed[p.Name]++
			g.st.lastPlayed[p.Name] = r.Index
		}
		pairs[c.Team1.key()] = true
		if c.Team2 != nil {
			pairs[c.Team2.key()] = true
			key := matchupKey(c.Team1, *c.Team2)
			g.st.matchupCount[key]++
			g.st.matchupLast[key] = r.Index
		}
	}
	g.st.prevPairs = pairs
}

// Generate produces a complete schedule or fails with ErrInvalidInput
// or ErrInfeasibleRound. No partial schedule is ever returned. The
// same request and seed always produce the same schedule.
func Generate(req Request) (*Schedule, error) {
	if req.Priority == "" {
		req.Priority = PriorityNone
	}
	req.Options = req.Options.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	g := newGenerator(req)
	sched := &Schedule{Rounds: make([]Round, 0, req.RoundCount), Seed: req.Options.Seed}
	for round := 0; round < req.RoundCount; round++ {
		r, err := g.planRound(round)
		if err != nil {
			return nil, err
		}
		sched.Rounds = append(sched.Rounds, *r)
	}
	g.log.WithFields(logrus.Fields{
		"rounds": len(sched.Rounds),
		"score":  sched.TotalScore(),
		"seed":   req.Options.Seed,
	}).Info("schedule generated")
	return sched, nil
}

// GenerateBest runs tries independent generations in parallel, each
// with a seed derived from the request seed and its own running state,
// and returns the lowest-scoring schedule. With one try it behaves
// exactly like Generate.
func GenerateBest(req Request, tries int) (*Schedule, error) {
	if tries <= 1 {
		return Generate(req)
	}
	if req.Priority == "" {
		req.Priority = PriorityNone
	}
	req.Options = req.Options.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	schedules := make([]*Schedule, tries)
	var grp errgroup.Group
	for i := 0; i < tries; i++ {
		r := req
		r.Options.Seed = deriveSeed(req.Options.Seed, i)
		grp.Go(func() error {
			s, err := Generate(r)
			schedules[i] = s
			return err
		})
	}
	waitErr := grp.Wait()
	var best *Schedule
	for _, s := range schedules {
		if s == nil {
			continue
		}
		if best == nil || s.TotalScore() < best.TotalScore() {
			best = s
		}
	}
	if best == nil {
		return nil, waitErr
	}
	return best, nil
}

// deriveSeed expands a base seed into a stream of independent seeds
// using the SplitMix64 mixing function.
func deriveSeed(base int64, i int) int64 {
	z := uint64(base) + uint64(i+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
