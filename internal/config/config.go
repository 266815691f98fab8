package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/courtmix/courtmix/internal/schedule"
)

// Gender is a wrapper around schedule.Gender that accepts the roster
// shorthand "m"/"f" as well as the full words, case-insensitive.
type Gender schedule.Gender

func (g *Gender) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "m", "male":
		*g = Gender(schedule.Male)
	case "f", "female":
		*g = Gender(schedule.Female)
	default:
		return fmt.Errorf("invalid gender %q (expected male, female, m, or f)", value.Value)
	}
	return nil
}

// Pair is a partnership constraint, written in YAML as a two-element
// list: [Alice, Ben].
type Pair struct {
	A string
	B string
}

func (p *Pair) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return fmt.Errorf("invalid pair: %w", err)
	}
	if len(names) != 2 {
		return fmt.Errorf("pair must list exactly two players, got %d", len(names))
	}
	p.A, p.B = names[0], names[1]
	return nil
}

type Player struct {
	Name   string `yaml:"name"`
	Level  int    `yaml:"level"`
	Gender Gender `yaml:"gender"`
}

type Session struct {
	Courts   int   `yaml:"courts"`
	Rounds   int   `yaml:"rounds"`
	Seed     int64 `yaml:"seed"`
	Attempts int   `yaml:"attempts"`
	Tries    int   `yaml:"tries"`
}

type Pairs struct {
	Fixed     []Pair `yaml:"fixed"`
	Forbidden []Pair `yaml:"forbidden"`
}

// Weights overrides individual scoring weights. Fields left out of the
// YAML keep their defaults.
type Weights struct {
	ConsecutivePlay    *int `yaml:"consecutive_play"`
	FixedPairBonus     *int `yaml:"fixed_pair_bonus"`
	FixedPairSplit     *int `yaml:"fixed_pair_split"`
	RepeatBase         *int `yaml:"repeat_base"`
	RepeatHorizon      *int `yaml:"repeat_horizon"`
	LevelImbalance     *int `yaml:"level_imbalance"`
	LevelDiffAllowance *int `yaml:"level_diff_allowance"`
	Fairness           *int `yaml:"fairness"`
	BlockQuota         *int `yaml:"block_quota"`
}

func (w *Weights) apply(base schedule.Weights) schedule.Weights {
	if w == nil {
		return base
	}
	if w.ConsecutivePlay != nil {
		base.ConsecutivePlay = *w.ConsecutivePlay
	}
	if w.FixedPairBonus != nil {
		base.FixedPairBonus = *w.FixedPairBonus
	}
	if w.FixedPairSplit != nil {
		base.FixedPairSplit = *w.FixedPairSplit
	}
	if w.RepeatBase != nil {
		base.RepeatBase = *w.RepeatBase
	}
	if w.RepeatHorizon != nil {
		base.RepeatHorizon = *w.RepeatHorizon
	}
	if w.LevelImbalance != nil {
		base.LevelImbalance = *w.LevelImbalance
	}
	if w.LevelDiffAllowance != nil {
		base.LevelDiffAllowance = *w.LevelDiffAllowance
	}
	if w.Fairness != nil {
		base.Fairness = *w.Fairness
	}
	if w.BlockQuota != nil {
		base.BlockQuota = *w.BlockQuota
	}
	return base
}

type Config struct {
	Session  Session  `yaml:"session"`
	Players  []Player `yaml:"players"`
	Pairs    Pairs    `yaml:"pairs"`
	Priority string   `yaml:"priority"`
	Repeats  string   `yaml:"repeats"`
	Weights  *Weights `yaml:"weights"`
}

// PlayerNames returns all roster names in config order.
func (c *Config) PlayerNames() []string {
	var names []string
	for _, p := range c.Players {
		names = append(names, p.Name)
	}
	return names
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if len(c.Players) < 2 {
		return fmt.Errorf("at least 2 players are required, got %d", len(c.Players))
	}
	if c.Session.Courts < 1 {
		return fmt.Errorf("session.courts must be at least 1, got %d", c.Session.Courts)
	}
	if c.Session.Rounds < 1 {
		return fmt.Errorf("session.rounds must be at least 1, got %d", c.Session.Rounds)
	}
	if c.Session.Attempts < 0 {
		return fmt.Errorf("session.attempts must not be negative, got %d", c.Session.Attempts)
	}
	if c.Session.Tries < 0 {
		return fmt.Errorf("session.tries must not be negative, got %d", c.Session.Tries)
	}
	if _, err := schedule.ParsePriorityMode(c.Priority); err != nil {
		return err
	}
	if _, err := schedule.ParseRepeatMode(c.Repeats); err != nil {
		return err
	}
	return nil
}

// ScoringWeights returns the defaults with any configured overrides
// applied.
func (c *Config) ScoringWeights() schedule.Weights {
	return c.Weights.apply(schedule.DefaultWeights)
}

// Request translates the configuration into a generation request.
// Roster-level problems (duplicate names, bad levels, unknown pair
// members) are reported by the scheduler itself.
func (c *Config) Request() (schedule.Request, error) {
	priority, err := schedule.ParsePriorityMode(c.Priority)
	if err != nil {
		return schedule.Request{}, err
	}
	repeats, err := schedule.ParseRepeatMode(c.Repeats)
	if err != nil {
		return schedule.Request{}, err
	}

	players := make([]schedule.Player, len(c.Players))
	for i, p := range c.Players {
		players[i] = schedule.Player{Name: p.Name, Level: p.Level, Gender: schedule.Gender(p.Gender)}
	}

	return schedule.Request{
		Players:    players,
		CourtCount: c.Session.Courts,
		RoundCount: c.Session.Rounds,
		Fixed:      schedulePairs(c.Pairs.Fixed),
		Forbidden:  schedulePairs(c.Pairs.Forbidden),
		Priority:   priority,
		Options: schedule.Options{
			Seed:     c.Session.Seed,
			Attempts: c.Session.Attempts,
			Repeats:  repeats,
			Weights:  c.ScoringWeights(),
		},
	}, nil
}

func schedulePairs(in []Pair) []schedule.Pair {
	if len(in) == 0 {
		return nil
	}
	out := make([]schedule.Pair, len(in))
	for i, p := range in {
		out[i] = schedule.Pair{A: p.A, B: p.B}
	}
	return out
}
