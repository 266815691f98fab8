package schedule

import "testing"

func testGenerator(t *testing.T, req Request) *generator {
	t.Helper()
	if req.Priority == "" {
		req.Priority = PriorityNone
	}
	req.Options = req.Options.withDefaults()
	return newGenerator(req)
}

func court(n int, p1, p2, p3, p4 Player) CourtMatch {
	t2 := Team{P1: p3, P2: p4}
	return CourtMatch{Court: n, Team1: Team{P1: p1, P2: p2}, Team2: &t2}
}

func TestConsecutivePenalty(t *testing.T) {
	roster := testRoster()
	courts := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}

	t.Run("free on the first round", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		if got := g.consecutivePenalty(courts, 0); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})

	t.Run("charges each player who played the previous round", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.lastPlayed["Alice"] = 0
		g.st.lastPlayed["Ben"] = 0
		if got := g.consecutivePenalty(courts, 1); got != 6 {
			t.Errorf("penalty = %d, want 6", got)
		}
	})

	t.Run("free after a round of rest", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.lastPlayed["Alice"] = 0
		if got := g.consecutivePenalty(courts, 2); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})
}

func TestFixedPairScore(t *testing.T) {
	roster := testRoster()
	fixed := []Pair{{A: "Alice", B: "Ben"}}

	t.Run("bonus when the pair shares a team", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2, Fixed: fixed})
		courts := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}
		if got := g.fixedPairScore(courts); got != -5 {
			t.Errorf("score = %d, want -5", got)
		}
	})

	t.Run("penalty when the pair meets as opponents", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2, Fixed: fixed})
		courts := []CourtMatch{court(1, roster[0], roster[2], roster[1], roster[3])}
		if got := g.fixedPairScore(courts); got != 20 {
			t.Errorf("score = %d, want 20", got)
		}
	})

	t.Run("nothing when the pair is on different courts", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2, Fixed: fixed})
		courts := []CourtMatch{
			court(1, roster[0], roster[2], roster[4], roster[5]),
			court(2, roster[1], roster[3], roster[6], roster[7]),
		}
		if got := g.fixedPairScore(courts); got != 0 {
			t.Errorf("score = %d, want 0", got)
		}
	})

	t.Run("nothing when a member rests", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2, Fixed: fixed})
		courts := []CourtMatch{court(1, roster[0], roster[2], roster[4], roster[5])}
		if got := g.fixedPairScore(courts); got != 0 {
			t.Errorf("score = %d, want 0", got)
		}
	})
}

func TestRepeatPenalty(t *testing.T) {
	roster := testRoster()
	courts := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}
	key := matchupKey(courts[0].Team1, *courts[0].Team2)

	t.Run("first meeting is free", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		if got := g.repeatPenalty(courts, 3); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})

	t.Run("immediate repeat costs the full base", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.matchupCount[key] = 1
		g.st.matchupLast[key] = 0
		if got := g.repeatPenalty(courts, 1); got != 10000 {
			t.Errorf("penalty = %d, want 10000", got)
		}
	})

	t.Run("cost decays with the gap", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.matchupCount[key] = 1
		g.st.matchupLast[key] = 0
		if got := g.repeatPenalty(courts, 4); got != 2500 {
			t.Errorf("penalty = %d, want 2500", got)
		}
	})

	t.Run("cost grows with the square of prior meetings", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.matchupCount[key] = 2
		g.st.matchupLast[key] = 0
		if got := g.repeatPenalty(courts, 1); got != 40000 {
			t.Errorf("penalty = %d, want 40000", got)
		}
	})

	t.Run("free beyond the horizon", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.matchupCount[key] = 1
		g.st.matchupLast[key] = 0
		if got := g.repeatPenalty(courts, 9); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})

	t.Run("same four players count even when teams differ", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		g.st.matchupCount[key] = 1
		g.st.matchupLast[key] = 0
		swapped := []CourtMatch{court(1, roster[0], roster[2], roster[1], roster[3])}
		if got := g.repeatPenalty(swapped, 1); got != 10000 {
			t.Errorf("penalty = %d, want 10000", got)
		}
	})
}

func TestLevelPenalty(t *testing.T) {
	roster := testRoster()

	t.Run("free within the allowance", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		// 4+3 vs 5+4: diff 2, at the allowance
		courts := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}
		if got := g.levelPenalty(courts); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})

	t.Run("quadratic beyond the allowance", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		// 2+3 vs 6+5: diff 6, excess 4
		courts := []CourtMatch{court(1, roster[4], roster[1], roster[5], roster[7])}
		if got := g.levelPenalty(courts); got != 160 {
			t.Errorf("penalty = %d, want 160", got)
		}
	})

	t.Run("lone team is free", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		courts := []CourtMatch{{Court: 1, Team1: Team{P1: roster[0], P2: roster[5]}}}
		if got := g.levelPenalty(courts); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})
}

func TestFairnessPenalty(t *testing.T) {
	roster := testRoster()
	courts := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}

	t.Run("charges the hypothetical spread", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		if got := g.fairnessPenalty(courts); got != 12 {
			t.Errorf("penalty = %d, want 12", got)
		}
	})

	t.Run("free when the round evens everyone out", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 2})
		for _, name := range []string{"Eve", "Frank", "Grace", "Henry"} {
			g.st.gamesPlayed[name] = 1
		}
		if got := g.fairnessPenalty(courts); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})
}

func TestBlockQuotaPenalty(t *testing.T) {
	roster := testRoster()
	firstHalf := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}
	secondHalf := []CourtMatch{court(1, roster[4], roster[5], roster[6], roster[7])}

	t.Run("free in the middle of a block", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 1})
		if got := g.blockQuotaPenalty(firstHalf, 0); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})

	t.Run("free when the block covers everyone", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 1})
		for _, p := range roster[:4] {
			g.st.gamesPlayed[p.Name] = 1
		}
		if got := g.blockQuotaPenalty(secondHalf, 1); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})

	t.Run("charges every unserved player at the block end", func(t *testing.T) {
		g := testGenerator(t, Request{Players: roster, CourtCount: 1})
		for _, p := range roster[:4] {
			g.st.gamesPlayed[p.Name] = 1
		}
		if got := g.blockQuotaPenalty(firstHalf, 1); got != 20000 {
			t.Errorf("penalty = %d, want 20000", got)
		}
	})

	t.Run("disabled when the roster does not divide evenly", func(t *testing.T) {
		g := testGenerator(t, Request{Players: testRoster()[:6], CourtCount: 1})
		if g.blockSize != 0 {
			t.Fatalf("blockSize = %d, want 0", g.blockSize)
		}
		if got := g.blockQuotaPenalty(firstHalf, 1); got != 0 {
			t.Errorf("penalty = %d, want 0", got)
		}
	})
}

func TestScoreRound(t *testing.T) {
	roster := testRoster()
	g := testGenerator(t, Request{Players: roster, CourtCount: 1})
	courts := []CourtMatch{court(1, roster[0], roster[1], roster[2], roster[3])}

	// Round 0 on a fresh state: only the fairness term applies.
	if got := g.scoreRound(courts, 0); got != 12 {
		t.Errorf("score = %d, want 12", got)
	}
}
