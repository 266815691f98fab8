package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/courtmix/courtmix/internal/config"
	"github.com/courtmix/courtmix/internal/excel"
	"github.com/courtmix/courtmix/internal/logging"
	"github.com/courtmix/courtmix/internal/report"
	"github.com/courtmix/courtmix/internal/schedule"
	"github.com/courtmix/courtmix/internal/store"
	"github.com/courtmix/courtmix/internal/validator"
)

const (
	defaultConfigFile = "config.yaml"
	defaultDBFile     = "courtmix.db"
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	var (
		logLevel   string
		logFormat  string
		dbPath     string
		configFile string
		logger     *logrus.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "courtmix",
		Short: "Round-based doubles session scheduler",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(logLevel, logFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBFile, "Path to the session history database")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	var (
		outputFile     string
		courtsOverride int
		roundsOverride int
		seedOverride   int64
		triesOverride  int
		saveSession    bool
		sessionLabel   string
	)
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a session schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(logger, configPath, generateOptions{
				output: outputFile,
				courts: courtsOverride,
				rounds: roundsOverride,
				seed:   seedOverride,
				tries:  triesOverride,
				save:   saveSession,
				label:  sessionLabel,
				db:     dbPath,
			})
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().IntVar(&courtsOverride, "courts", 0, "Override the court count from the config")
	generateCmd.Flags().IntVar(&roundsOverride, "rounds", 0, "Override the round count from the config")
	generateCmd.Flags().Int64Var(&seedOverride, "seed", 0, "Override the random seed from the config")
	generateCmd.Flags().IntVar(&triesOverride, "tries", 0, "Override the number of generations raced for the best score")
	generateCmd.Flags().BoolVar(&saveSession, "save", false, "Save the generated session to history")
	generateCmd.Flags().StringVar(&sessionLabel, "label", "", "Label for the saved session")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule workbook against config rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved sessions",
	}
	historyListCmd := &cobra.Command{
		Use:          "list",
		Short:        "List saved sessions, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(logger, dbPath)
		},
	}
	historyShowCmd := &cobra.Command{
		Use:          "show <id>",
		Short:        "Print a saved session's rounds",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(logger, dbPath, args[0])
		},
	}
	historyDeleteCmd := &cobra.Command{
		Use:          "delete <id>",
		Short:        "Delete a saved session",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryDelete(logger, dbPath, args[0])
		},
	}
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)

	rootCmd.AddCommand(initCmd, generateCmd, validateCmd, historyCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Courtmix Session Configuration
# ==============================
# This file defines one club session: who is playing, how many courts
# are free, and how the pairing engine should weigh its choices.

# Session shape. Rounds is how many rounds to plan; every round fills
# as many courts as the roster allows and rests the remainder.
session:
  courts: 2
  rounds: 6

  # Optional knobs. Seed makes runs reproducible (0 picks the default),
  # attempts is the per-round search budget, and tries races that many
  # independent generations and keeps the best-scoring schedule.
  # seed: 42
  # attempts: 60
  # tries: 4

# Roster. Levels run 1 (beginner) to 8 (strongest). Gender accepts
# male/female or the shorthands m/f and is only required when priority
# is set to gender.
players:
  - name: Alice
    level: 5
    gender: f
  - name: Ben
    level: 4
    gender: m
  - name: Carol
    level: 6
    gender: f
  - name: Dan
    level: 3
    gender: m
  - name: Eve
    level: 5
    gender: f
  - name: Frank
    level: 2
    gender: m
  - name: Grace
    level: 4
    gender: f
  - name: Henry
    level: 7
    gender: m

# Pairs pin or ban specific partnerships. A fixed pair teams together
# whenever both are on court; a forbidden pair never shares a team.
pairs:
  fixed: []
  forbidden: []
  # forbidden:
  #   - [Carol, Dan]

# Priority selects the pairing emphasis:
#   none    balanced pairing over the whole roster (default)
#   level   partner players of the closest skill level
#   gender  prefer mixed-gender teams
priority: none

# Repeats selects how repeated matchups are treated:
#   penalize  allow repeats but score against them (default)
#   forbid    reject any round that replays an earlier matchup
repeats: penalize

# Weights tune the scoring policy. Unset fields keep the defaults shown.
# weights:
#   consecutive_play: 3
#   fixed_pair_bonus: 5
#   fixed_pair_split: 20
#   repeat_base: 10000
#   repeat_horizon: 8
#   level_imbalance: 10
#   level_diff_allowance: 2
#   fairness: 12
#   block_quota: 5000
`

type generateOptions struct {
	output string
	courts int
	rounds int
	seed   int64
	tries  int
	save   bool
	label  string
	db     string
}

func runGenerate(logger *logrus.Logger, configPath string, opts generateOptions) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flag overrides replace config values for this run only.
	if opts.courts > 0 {
		cfg.Session.Courts = opts.courts
	}
	if opts.rounds > 0 {
		cfg.Session.Rounds = opts.rounds
	}
	if opts.seed != 0 {
		cfg.Session.Seed = opts.seed
	}
	if opts.tries > 0 {
		cfg.Session.Tries = opts.tries
	}

	req, err := cfg.Request()
	if err != nil {
		return err
	}
	req.Options.Logger = logger

	tries := cfg.Session.Tries
	if tries > 1 {
		fmt.Printf("Scheduling %d rounds for %d players on %d courts (best of %d runs)...\n",
			cfg.Session.Rounds, len(cfg.Players), cfg.Session.Courts, tries)
	} else {
		fmt.Printf("Scheduling %d rounds for %d players on %d courts...\n",
			cfg.Session.Rounds, len(cfg.Players), cfg.Session.Courts)
	}

	sched, err := schedule.GenerateBest(req, tries)
	if err != nil {
		return err
	}
	fmt.Printf("✓ All %d rounds planned (seed %d, score %d)\n",
		len(sched.Rounds), sched.Seed, sched.TotalScore())

	sum := report.Summarize(req, sched)

	fmt.Println("\nPer Player:")
	fmt.Printf("  %-12s %3s %6s %6s %9s %10s\n", "Player", "Lvl", "Games", "Rests", "Partners", "Opponents")
	for _, p := range sum.Players {
		fmt.Printf("  %-12s %3d %6d %6d %9d %10d\n", p.Name, p.Level, p.Games, p.Rests, p.Partners, p.Opponents)
	}

	if len(sum.Warnings) > 0 {
		fmt.Printf("\nPreference warnings (%d):\n", len(sum.Warnings))
		for _, w := range sum.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No preference warnings")
	}

	f, err := excel.Generate(cfg, sched, sum)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(opts.output); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", opts.output)

	if opts.save {
		st, err := openStore(logger, opts.db)
		if err != nil {
			return err
		}
		defer st.Close()

		sess := &store.Session{
			Label:    opts.label,
			Players:  len(cfg.Players),
			Courts:   cfg.Session.Courts,
			Rounds:   len(sched.Rounds),
			Seed:     sched.Seed,
			Score:    sched.TotalScore(),
			Schedule: sched,
		}
		if err := st.Save(context.Background(), sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		fmt.Printf("✓ Session saved to history as %s\n", sess.ID)
	}
	return nil
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Preference violation: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d preference violations\n", errors, warnings)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

func openStore(logger *logrus.Logger, dbPath string) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrating history: %w", err)
	}
	return st, nil
}

func runHistoryList(logger *logrus.Logger, dbPath string) error {
	st, err := openStore(logger, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	fmt.Printf("%-36s %-19s %7s %6s %6s %6s  %s\n", "ID", "Created", "Players", "Courts", "Rounds", "Score", "Label")
	for _, sess := range sessions {
		fmt.Printf("%-36s %-19s %7d %6d %6d %6d  %s\n",
			sess.ID, sess.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			sess.Players, sess.Courts, sess.Rounds, sess.Score, sess.Label)
	}
	return nil
}

func runHistoryShow(logger *logrus.Logger, dbPath, id string) error {
	st, err := openStore(logger, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.Get(context.Background(), id)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("session %s not found", id)
	}

	fmt.Printf("Session %s\n", sess.ID)
	if sess.Label != "" {
		fmt.Printf("Label:   %s\n", sess.Label)
	}
	fmt.Printf("Created: %s\n", sess.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Seed:    %d, score %d\n\n", sess.Seed, sess.Score)
	printSchedule(sess.Schedule)
	return nil
}

func runHistoryDelete(logger *logrus.Logger, dbPath, id string) error {
	st, err := openStore(logger, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	fmt.Printf("✓ Deleted session %s\n", id)
	return nil
}

func printSchedule(sched *schedule.Schedule) {
	for _, r := range sched.Rounds {
		fmt.Printf("Round %d\n", r.Index+1)
		for _, c := range r.Courts {
			if c.Team2 == nil {
				fmt.Printf("  Court %d: %s\n", c.Court, c.Team1)
			} else {
				fmt.Printf("  Court %d: %s vs %s\n", c.Court, c.Team1, c.Team2)
			}
		}
		if len(r.Resting) > 0 {
			fmt.Printf("  Resting: %s\n", strings.Join(r.Resting, ", "))
		}
	}
}
