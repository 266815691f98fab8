package validator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/courtmix/courtmix/internal/config"
	"github.com/courtmix/courtmix/internal/schedule"
)

// Violation represents a rule violation found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
	Gap     int // for matchup repeats: rounds between occurrences (0 = not applicable)
}

// Validate reads a schedule workbook and checks it against the config.
// The workbook may have been edited by hand after generation.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rounds, violations, err := readRounds(f)
	if err != nil {
		return nil, err
	}

	// Check hard pairing rules
	violations = append(violations, checkKnownPlayers(cfg, rounds)...)
	violations = append(violations, checkDuplicateAppearance(rounds)...)
	violations = append(violations, checkForbiddenPairs(cfg, rounds)...)
	violations = append(violations, checkPreviousRoundPairs(rounds)...)

	// Check scheduling preferences
	violations = append(violations, checkMatchupRepeats(cfg, rounds)...)
	violations = append(violations, checkFixedPairs(cfg, rounds)...)
	violations = append(violations, checkFairness(cfg, rounds)...)
	violations = append(violations, checkCoverage(cfg, rounds)...)

	return violations, nil
}

type parsedMatch struct {
	Row   int
	Round int
	Court int
	Team1 [2]string
	Team2 [2]string
	Lone  bool // no opposing team on this court
}

func (m parsedMatch) players() []string {
	ps := []string{m.Team1[0], m.Team1[1]}
	if !m.Lone {
		ps = append(ps, m.Team2[0], m.Team2[1])
	}
	return ps
}

func (m parsedMatch) teams() [][2]string {
	ts := [][2]string{m.Team1}
	if !m.Lone {
		ts = append(ts, m.Team2)
	}
	return ts
}

type parsedRound struct {
	Row     int
	Round   int
	Matches []parsedMatch
	Resting []string
}

func readRounds(f *excelize.File) ([]parsedRound, []Violation, error) {
	rows, err := f.GetRows("Rounds")
	if err != nil {
		return nil, nil, fmt.Errorf("reading Rounds sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("Rounds sheet is empty")
	}

	// Header row determines court columns (between Round and Resting)
	header := rows[0]
	courtCount := len(header) - 2
	if courtCount < 1 {
		return nil, nil, fmt.Errorf("Rounds sheet has no court columns")
	}
	restCol := courtCount + 1

	var rounds []parsedRound
	var violations []Violation
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		number, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}

		pr := parsedRound{Row: i + 1, Round: number}
		for c := 1; c <= courtCount; c++ {
			if c >= len(row) || row[c] == "" {
				continue
			}
			m, ok := parseMatchCell(row[c])
			if !ok {
				violations = append(violations, Violation{
					Row:     i + 1,
					Type:    "error",
					Message: fmt.Sprintf("round %d: cannot parse court %d cell %q", number, c, row[c]),
				})
				continue
			}
			m.Row = i + 1
			m.Round = number
			m.Court = c
			pr.Matches = append(pr.Matches, m)
		}
		if restCol < len(row) && row[restCol] != "" {
			pr.Resting = strings.Split(row[restCol], ", ")
		}
		rounds = append(rounds, pr)
	}

	return rounds, violations, nil
}

// parseMatchCell parses "A / B vs C / D", or "A / B" for a lone team.
// Returns ok=false if the cell doesn't match either format.
func parseMatchCell(cell string) (parsedMatch, bool) {
	var m parsedMatch
	sides := strings.SplitN(cell, " vs ", 2)
	t1, ok := parseTeam(sides[0])
	if !ok {
		return m, false
	}
	m.Team1 = t1
	if len(sides) == 1 {
		m.Lone = true
		return m, true
	}
	t2, ok := parseTeam(sides[1])
	if !ok {
		return m, false
	}
	m.Team2 = t2
	return m, true
}

func parseTeam(s string) ([2]string, bool) {
	names := strings.SplitN(s, " / ", 2)
	if len(names) != 2 || names[0] == "" || names[1] == "" {
		return [2]string{}, false
	}
	return [2]string{names[0], names[1]}, true
}

func rosterSet(cfg *config.Config) map[string]bool {
	roster := make(map[string]bool)
	for _, name := range cfg.PlayerNames() {
		roster[name] = true
	}
	return roster
}

func checkKnownPlayers(cfg *config.Config, rounds []parsedRound) []Violation {
	roster := rosterSet(cfg)

	var violations []Violation
	for _, r := range rounds {
		for _, m := range r.Matches {
			for _, name := range m.players() {
				if !roster[name] {
					violations = append(violations, Violation{
						Row:     m.Row,
						Type:    "error",
						Message: fmt.Sprintf("round %d: unknown player %q", r.Round, name),
					})
				}
			}
		}
		for _, name := range r.Resting {
			if !roster[name] {
				violations = append(violations, Violation{
					Row:     r.Row,
					Type:    "error",
					Message: fmt.Sprintf("round %d: unknown player %q resting", r.Round, name),
				})
			}
		}
	}
	return violations
}

func checkDuplicateAppearance(rounds []parsedRound) []Violation {
	var violations []Violation
	for _, r := range rounds {
		seen := make(map[string]bool)
		flag := func(name string) {
			if seen[name] {
				violations = append(violations, Violation{
					Row:     r.Row,
					Type:    "error",
					Message: fmt.Sprintf("round %d: %s appears more than once", r.Round, name),
				})
			}
			seen[name] = true
		}
		for _, m := range r.Matches {
			for _, name := range m.players() {
				flag(name)
			}
		}
		for _, name := range r.Resting {
			flag(name)
		}
	}
	return violations
}

func checkForbiddenPairs(cfg *config.Config, rounds []parsedRound) []Violation {
	forbidden := make(map[string]bool)
	for _, p := range cfg.Pairs.Forbidden {
		forbidden[schedule.PairKey(p.A, p.B)] = true
	}

	var violations []Violation
	for _, r := range rounds {
		for _, m := range r.Matches {
			for _, t := range m.teams() {
				if forbidden[schedule.PairKey(t[0], t[1])] {
					violations = append(violations, Violation{
						Row:     m.Row,
						Type:    "error",
						Message: fmt.Sprintf("round %d: forbidden pair %s and %s play together", r.Round, t[0], t[1]),
					})
				}
			}
		}
	}
	return violations
}

func checkPreviousRoundPairs(rounds []parsedRound) []Violation {
	var violations []Violation
	prevPairs := make(map[string]bool)
	prevRound := 0
	for _, r := range rounds {
		cur := make(map[string]bool)
		for _, m := range r.Matches {
			for _, t := range m.teams() {
				key := schedule.PairKey(t[0], t[1])
				if r.Round == prevRound+1 && prevPairs[key] {
					violations = append(violations, Violation{
						Row:     m.Row,
						Type:    "error",
						Message: fmt.Sprintf("round %d: %s and %s also teamed in round %d", r.Round, t[0], t[1], prevRound),
					})
				}
				cur[key] = true
			}
		}
		prevPairs = cur
		prevRound = r.Round
	}
	return violations
}

func checkMatchupRepeats(cfg *config.Config, rounds []parsedRound) []Violation {
	horizon := cfg.ScoringWeights().RepeatHorizon

	type occurrence struct {
		round int
		row   int
	}
	matchups := make(map[string][]occurrence)
	for _, r := range rounds {
		for _, m := range r.Matches {
			if m.Lone {
				continue
			}
			key := schedule.MatchupKey(m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1])
			matchups[key] = append(matchups[key], occurrence{r.Round, m.Row})
		}
	}

	keys := make([]string, 0, len(matchups))
	for key := range matchups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var violations []Violation
	for _, key := range keys {
		occ := matchups[key]
		for i := 1; i < len(occ); i++ {
			gap := occ[i].round - occ[i-1].round
			if gap > horizon {
				continue
			}
			violations = append(violations, Violation{
				Row:  occ[i].row,
				Type: "warning",
				Gap:  gap,
				Message: fmt.Sprintf("matchup %s repeats after %d rounds (rounds %d and %d)",
					strings.Join(strings.Split(key, "|"), ", "), gap, occ[i-1].round, occ[i].round),
			})
		}
	}
	// Sort by severity: smallest gap (worst) first
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Gap < violations[j].Gap
	})
	return violations
}

func checkFixedPairs(cfg *config.Config, rounds []parsedRound) []Violation {
	var violations []Violation
	for _, p := range cfg.Pairs.Fixed {
		key := schedule.PairKey(p.A, p.B)
		together := 0
		for _, r := range rounds {
			for _, m := range r.Matches {
				teamed := false
				for _, t := range m.teams() {
					if schedule.PairKey(t[0], t[1]) == key {
						teamed = true
					}
				}
				if teamed {
					together++
					continue
				}
				if !m.Lone && facing(m, p.A, p.B) {
					violations = append(violations, Violation{
						Row:  m.Row,
						Type: "warning",
						Message: fmt.Sprintf("round %d: fixed pair %s and %s face each other on court %d",
							r.Round, p.A, p.B, m.Court),
					})
				}
			}
		}
		if together == 0 && len(rounds) > 0 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("fixed pair %s and %s never play together", p.A, p.B),
			})
		}
	}
	return violations
}

func facing(m parsedMatch, a, b string) bool {
	onTeam := func(t [2]string, name string) bool {
		return t[0] == name || t[1] == name
	}
	if onTeam(m.Team1, a) && onTeam(m.Team2, b) {
		return true
	}
	return onTeam(m.Team1, b) && onTeam(m.Team2, a)
}

func checkFairness(cfg *config.Config, rounds []parsedRound) []Violation {
	games := make(map[string]int)
	for _, name := range cfg.PlayerNames() {
		games[name] = 0
	}
	for _, r := range rounds {
		for _, m := range r.Matches {
			for _, name := range m.players() {
				if _, ok := games[name]; ok {
					games[name]++
				}
			}
		}
	}

	minGames, maxGames := -1, 0
	for _, n := range games {
		if minGames < 0 || n < minGames {
			minGames = n
		}
		if n > maxGames {
			maxGames = n
		}
	}
	if maxGames-minGames > 1 {
		return []Violation{{
			Type:    "warning",
			Message: fmt.Sprintf("game count imbalance: min %d, max %d across players", minGames, maxGames),
		}}
	}
	return nil
}

func checkCoverage(cfg *config.Config, rounds []parsedRound) []Violation {
	var violations []Violation
	for _, r := range rounds {
		present := make(map[string]bool)
		for _, m := range r.Matches {
			for _, name := range m.players() {
				present[name] = true
			}
		}
		for _, name := range r.Resting {
			present[name] = true
		}
		for _, name := range cfg.PlayerNames() {
			if !present[name] {
				violations = append(violations, Violation{
					Row:     r.Row,
					Type:    "warning",
					Message: fmt.Sprintf("round %d: %s is neither playing nor resting", r.Round, name),
				})
			}
		}
	}
	return violations
}
