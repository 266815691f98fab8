package schedule

import "sort"

// searchPairs partitions players into two-person teams by backtracking
// over the supplied order: the first unassigned player is teamed with
// the first acceptable candidate, and the search unwinds when the rest
// of the pool cannot be completed. A team is rejected when its pair
// key is forbidden or was used in the immediately preceding round.
// With an odd pool the final unmatched player is returned as the
// leftover. Failure means no full partition exists for this order, not
// that none exists at all; callers retry with reshuffled orders.
func searchPairs(ordered []Player, prev, forbidden map[string]bool, mode PriorityMode) ([]Team, []Player, bool) {
	return pairStep(ordered, nil, prev, forbidden, mode)
}

func pairStep(remaining []Player, teams []Team, prev, forbidden map[string]bool, mode PriorityMode) ([]Team, []Player, bool) {
	if len(remaining) <= 1 {
		return teams, remaining, true
	}
	p1 := remaining[0]
	for _, p2 := range orderCandidates(p1, remaining[1:], mode) {
		key := PairKey(p1.Name, p2.Name)
		if forbidden[key] || prev[key] {
			continue
		}
		rest := without(remaining[1:], p2.Name)
		if result, leftover, ok := pairStep(rest, append(teams, Team{P1: p1, P2: p2}), prev, forbidden, mode); ok {
			return result, leftover, true
		}
	}
	return nil, nil, false
}

// orderCandidates returns p1's potential partners in preference order.
// Level mode puts the closest skill level first; gender mode puts the
// opposite gender first, closest level within each group. None keeps
// the caller's order untouched.
func orderCandidates(p1 Player, candidates []Player, mode PriorityMode) []Player {
	if mode == PriorityNone {
		return candidates
	}
	ordered := make([]Player, len(candidates))
	copy(ordered, candidates)
	switch mode {
	case PriorityLevel:
		sort.SliceStable(ordered, func(i, j int) bool {
			return levelGap(p1, ordered[i]) < levelGap(p1, ordered[j])
		})
	case PriorityGender:
		sort.SliceStable(ordered, func(i, j int) bool {
			oi := ordered[i].Gender != p1.Gender
			oj := ordered[j].Gender != p1.Gender
			if oi != oj {
				return oi
			}
			return levelGap(p1, ordered[i]) < levelGap(p1, ordered[j])
		})
	}
	return ordered
}

func levelGap(a, b Player) int {
	d := a.Level - b.Level
	if d < 0 {
		return -d
	}
	return d
}

func without(players []Player, name string) []Player {
	out := make([]Player, 0, len(players)-1)
	for _, p := range players {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}
