package schedule

import (
	"errors"
	"testing"
)

func TestPairKey(t *testing.T) {
	if PairKey("Alice", "Ben") != PairKey("Ben", "Alice") {
		t.Error("PairKey is not symmetric")
	}
	if PairKey("Alice", "Ben") == PairKey("Alice", "Carol") {
		t.Error("distinct pairs share a key")
	}
}

func TestMatchupKey(t *testing.T) {
	alice := player("Alice", 4, Female)
	ben := player("Ben", 3, Male)
	carol := player("Carol", 5, Female)
	dan := player("Dan", 4, Male)

	base := matchupKey(Team{P1: alice, P2: ben}, Team{P1: carol, P2: dan})

	t.Run("ignores team order", func(t *testing.T) {
		if got := matchupKey(Team{P1: carol, P2: dan}, Team{P1: alice, P2: ben}); got != base {
			t.Errorf("key = %q, want %q", got, base)
		}
	})

	t.Run("ignores how the four are split", func(t *testing.T) {
		if got := matchupKey(Team{P1: alice, P2: carol}, Team{P1: ben, P2: dan}); got != base {
			t.Errorf("key = %q, want %q", got, base)
		}
	})

	t.Run("differs for a different four", func(t *testing.T) {
		eve := player("Eve", 2, Female)
		if got := matchupKey(Team{P1: alice, P2: ben}, Team{P1: carol, P2: eve}); got == base {
			t.Error("different foursomes share a key")
		}
	})
}

func TestTeamString(t *testing.T) {
	team := Team{P1: player("Alice", 4, Female), P2: player("Ben", 3, Male)}
	if got := team.String(); got != "Alice / Ben" {
		t.Errorf("String() = %q, want %q", got, "Alice / Ben")
	}
}

func TestCourtMatchPlayers(t *testing.T) {
	t1 := Team{P1: player("Alice", 4, Female), P2: player("Ben", 3, Male)}
	t2 := Team{P1: player("Carol", 5, Female), P2: player("Dan", 4, Male)}

	t.Run("full court", func(t *testing.T) {
		m := CourtMatch{Court: 1, Team1: t1, Team2: &t2}
		if got := len(m.Players()); got != 4 {
			t.Errorf("players = %d, want 4", got)
		}
	})

	t.Run("lone team", func(t *testing.T) {
		m := CourtMatch{Court: 1, Team1: t1}
		if got := len(m.Players()); got != 2 {
			t.Errorf("players = %d, want 2", got)
		}
	})
}

func TestTotalScore(t *testing.T) {
	sched := Schedule{Rounds: []Round{{Score: 12}, {Score: 0}, {Score: -5}}}
	if got := sched.TotalScore(); got != 7 {
		t.Errorf("TotalScore() = %d, want 7", got)
	}
}

func TestParsePriorityMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PriorityMode
		wantErr bool
	}{
		{"", PriorityNone, false},
		{"none", PriorityNone, false},
		{"level", PriorityLevel, false},
		{"gender", PriorityGender, false},
		{"height", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriorityMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePriorityMode(%q) expected an error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriorityMode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriorityMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RepeatMode
		wantErr bool
	}{
		{"", RepeatPenalize, false},
		{"penalize", RepeatPenalize, false},
		{"forbid", RepeatForbid, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRepeatMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRepeatMode(%q) expected an error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepeatMode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRepeatMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInfeasibleRoundError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := &InfeasibleRoundError{Round: 2, Attempts: 60, PairingFailures: 60}
		want := "round 3: no viable assignment after 60 attempts (60 pairing failures)"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("message with repeat discards", func(t *testing.T) {
		err := &InfeasibleRoundError{Round: 0, Attempts: 60, PairingFailures: 10, RepeatDiscards: 50}
		want := "round 1: no viable assignment after 60 attempts (10 pairing failures, 50 repeat discards)"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("unwraps to the sentinel", func(t *testing.T) {
		var err error = &InfeasibleRoundError{Round: 0, Attempts: 60}
		if !errors.Is(err, ErrInfeasibleRound) {
			t.Error("errors.Is(err, ErrInfeasibleRound) = false")
		}
	})
}
