package schedule

// Weights is the scoring policy. Every term of the candidate scorer is
// driven by a named weight so the policy can be audited and tuned.
type Weights struct {
	// ConsecutivePlay is charged per player who also played the
	// previous round.
	ConsecutivePlay int
	// FixedPairBonus is subtracted when a fixed pair shares a team.
	FixedPairBonus int
	// FixedPairSplit is charged when a fixed pair meets as opponents.
	FixedPairSplit int
	// RepeatBase sets the magnitude of the repeated-matchup penalty.
	// It must dwarf the other terms combined so repeats behave as a
	// near-hard constraint.
	RepeatBase int
	// RepeatHorizon is the gap in rounds beyond which a repeated
	// matchup stops costing anything.
	RepeatHorizon int
	// LevelImbalance is charged per squared unit of team level-sum
	// difference beyond the allowance.
	LevelImbalance int
	// LevelDiffAllowance is the tolerated team level-sum difference.
	LevelDiffAllowance int
	// Fairness is charged per unit of games-played spread across the
	// roster.
	Fairness int
	// BlockQuota is charged per game a player is short of the block
	// minimum at the end of a block.
	BlockQuota int
}

// DefaultWeights is the policy used when a request does not override
// it.
var DefaultWeights = Weights{
	ConsecutivePlay:    3,
	FixedPairBonus:     5,
	FixedPairSplit:     20,
	RepeatBase:         10000,
	RepeatHorizon:      8,
	LevelImbalance:     10,
	LevelDiffAllowance: 2,
	Fairness:           12,
	BlockQuota:         5000,
}

// scoreRound rates a candidate round against the running state. Lower
// is better; a fixed pair sharing a team can push the total negative.
func (g *generator) scoreRound(courts []CourtMatch, round int) int {
	score := g.consecutivePenalty(courts, round)
	score += g.fixedPairScore(courts)
	score += g.repeatPenalty(courts, round)
	score += g.levelPenalty(courts)
	score += g.fairnessPenalty(courts)
	score += g.blockQuotaPenalty(courts, round)
	return score
}

func (g *generator) consecutivePenalty(courts []CourtMatch, round int) int {
	score := 0
	for _, c := range courts {
		for _, p := range c.Players() {
			if last, ok := g.st.lastPlayed[p.Name]; ok && last == round-1 {
				score += g.weights.ConsecutivePlay
			}
		}
	}
	return score
}

// fixedPairScore rewards fixed pairs that share a team and charges
// those that meet as opponents. Pairs split across different courts,
// or with a resting member, score nothing.
func (g *generator) fixedPairScore(courts []CourtMatch) int {
	type seat struct{ court, team int }
	seats := make(map[string]seat, len(courts)*4)
	for ci, c := range courts {
		seats[c.Team1.P1.Name] = seat{ci, 1}
		seats[c.Team1.P2.Name] = seat{ci, 1}
		if c.Team2 != nil {
			seats[c.Team2.P1.Name] = seat{ci, 2}
			seats[c.Team2.P2.Name] = seat{ci, 2}
		}
	}
	score := 0
	for _, pair := range g.fixed {
		a, aOK := seats[pair.A]
		b, bOK := seats[pair.B]
		if !aOK || !bOK {
			continue
		}
		switch {
		case a == b:
			score -= g.weights.FixedPairBonus
		case a.court == b.court:
			score += g.weights.FixedPairSplit
		}
	}
	return score
}

// repeatPenalty charges each court whose four players have met before.
// The cost grows with the square of the prior meeting count and decays
// with the number of rounds since the last one; beyond the horizon a
// repeat is free.
func (g *generator) repeatPenalty(courts []CourtMatch, round int) int {
	score := 0
	for _, c := range courts {
		if c.Team2 == nil {
			continue
		}
		key := matchupKey(c.Team1, *c.Team2)
		prior := g.st.matchupCount[key]
		if prior == 0 {
			continue
		}
		gap := round - g.st.matchupLast[key]
		if gap > g.weights.RepeatHorizon {
			continue
		}
		score += g.weights.RepeatBase * prior * prior / gap
	}
	return score
}

func (g *generator) levelPenalty(courts []CourtMatch) int {
	score := 0
	for _, c := range courts {
		if c.Team2 == nil {
			continue
		}
		diff := teamLevel(c.Team1) - teamLevel(*c.Team2)
		if diff < 0 {
			diff = -diff
		}
		if excess := diff - g.weights.LevelDiffAllowance; excess > 0 {
			score += g.weights.LevelImbalance * excess * excess
		}
	}
	return score
}

func teamLevel(t Team) int {
	return t.P1.Level + t.P2.Level
}

// fairnessPenalty charges the games-played spread across the whole
// roster as if the candidate round were committed.
func (g *generator) fairnessPenalty(courts []CourtMatch) int {
	playing := playingSet(courts)
	first := true
	var min, max int
	for _, p := range g.req.Players {
		games := g.st.gamesPlayed[p.Name]
		if playing[p.Name] {
			games++
		}
		if first || games < min {
			min = games
		}
		if first || games > max {
			max = games
		}
		first = false
	}
	return g.weights.Fairness * (max - min)
}

// blockQuotaPenalty fires only on the last round of a block and only
// when the active player count divides the roster evenly. It charges
// every game a player would still be short of one full appearance per
// block.
func (g *generator) blockQuotaPenalty(courts []CourtMatch, round int) int {
	if g.blockSize == 0 || (round+1)%g.blockSize != 0 {
		return 0
	}
	required := round/g.blockSize + 1
	playing := playingSet(courts)
	shortfall := 0
	for _, p := range g.req.Players {
		games := g.st.gamesPlayed[p.Name]
		if playing[p.Name] {
			games++
		}
		if games < required {
			shortfall += required - games
		}
	}
	return g.weights.BlockQuota * shortfall
}

func playingSet(courts []CourtMatch) map[string]bool {
	playing := make(map[string]bool, len(courts)*4)
	for _, c := range courts {
		for _, p := range c.Players() {
			playing[p.Name] = true
		}
	}
	return playing
}
