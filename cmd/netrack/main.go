// Package main provides the CLI entrypoint for netrack.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/netrack/internal/clock"
	"github.com/verte-zerg/netrack/internal/config"
	"github.com/verte-zerg/netrack/internal/daily"
	"github.com/verte-zerg/netrack/internal/keys"
	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/ledger"
	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/stats"
	"github.com/verte-zerg/netrack/internal/statsui"
	"github.com/verte-zerg/netrack/internal/store"
	"github.com/verte-zerg/netrack/internal/tui"
)

const (
	defaultSubject      = "Matematik"
	defaultPollInterval = "60s"
	defaultTimezone     = "Local"
	defaultRedisAddr    = "localhost:6379"
	defaultCurveWindow  = 3
	defaultBest         = 5
	plotHeight          = 10
)

var (
	rootBackend   string
	rootDBPath    string
	rootRedisAddr string
	rootVerbose   bool

	subjectName  string
	strictTotals bool

	addQuestions string
	addCorrect   string
	addIncorrect string
	addBlank     string

	deleteIndex int

	statsSubjects []string
	statsLast     int
	statsWindow   int
	statsBest     int
	statsTUI      bool

	subjectsShowKeys bool

	resetAll bool
)

// settings is the merged result of config file values and flags.
type settings struct {
	tracker model.Config
	storage model.StorageConfig
}

// closableStore is a kv.Store owned by one command invocation.
type closableStore interface {
	kv.Store
	Close() error
}

type updatedAter interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

type keyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "netrack",
		Short:         "Terminal study-progress tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrackerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootBackend, "backend", config.BackendSQLite, "storage backend (sqlite, redis, memory)")
	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "SQLite database path (default: $XDG_DATA_HOME/netrack/netrack.db)")
	rootCmd.PersistentFlags().StringVar(&rootRedisAddr, "redis-addr", defaultRedisAddr, "Redis address")
	rootCmd.PersistentFlags().BoolVar(&rootVerbose, "verbose", false, "enable debug logging")

	rootCmd.Flags().StringVar(&subjectName, "subject", defaultSubject, "subject to open first")
	rootCmd.Flags().BoolVar(&strictTotals, "strict-totals", false, "require correct+incorrect+blank to equal the question count")

	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newCounterCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSubjectsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runTrackerCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(rootVerbose)
	ctx := context.Background()
	st, err := openStore(ctx, s.storage)
	if err != nil {
		return err
	}
	defer closeStore(st)

	clk := clock.System{Location: s.tracker.Location}
	m, err := tui.NewModel(ctx, st, s.tracker, clk, logger)
	if err != nil {
		return fmt.Errorf("failed to start tracker: %w", err)
	}
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a practice session",
		Args:  cobra.NoArgs,
		RunE:  runAddCmd,
	}
	addSubjectFlag(cmd)
	cmd.Flags().StringVar(&addQuestions, "questions", "", "question count")
	cmd.Flags().StringVar(&addCorrect, "correct", "", "correct answers")
	cmd.Flags().StringVar(&addIncorrect, "incorrect", "", "incorrect answers")
	cmd.Flags().StringVar(&addBlank, "blank", "", "blank answers")
	cmd.Flags().BoolVar(&strictTotals, "strict-totals", false, "require correct+incorrect+blank to equal the question count")
	return cmd
}

func runAddCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s settings, st kv.Store, logger *slog.Logger) error {
		l := newLedger(st, s, logger)
		raw := ledger.RawInput{
			QuestionCount: addQuestions,
			Correct:       addCorrect,
			Incorrect:     addIncorrect,
			Blank:         addBlank,
		}
		rec, err := l.Submit(ctx, raw, s.tracker.StrictTotals)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: net %.2f (%s)\n",
			s.tracker.Subject.Name, rec.Date, rec.Net, tierText(rec.Tier))
		return err
	})
}

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List recorded sessions of a subject",
		Args:  cobra.NoArgs,
		RunE:  runRecordsCmd,
	}
	addSubjectFlag(cmd)
	return cmd
}

func runRecordsCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s settings, st kv.Store, logger *slog.Logger) error {
		records, err := newLedger(st, s, logger).Load(ctx)
		if err != nil {
			return err
		}
		return stats.RenderRecordsTable(cmd.OutOrStdout(), s.tracker.Subject, records)
	})
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one recorded session by index",
		Args:  cobra.NoArgs,
		RunE:  runDeleteCmd,
	}
	addSubjectFlag(cmd)
	cmd.Flags().IntVar(&deleteIndex, "index", -1, "record index as shown by 'netrack records'")
	return cmd
}

func runDeleteCmd(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("index") {
		return fmt.Errorf("--index is required")
	}
	return withStore(cmd, func(ctx context.Context, s settings, st kv.Store, logger *slog.Logger) error {
		if err := newLedger(st, s, logger).DeleteAt(ctx, deleteIndex); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s record %d\n", s.tracker.Subject.Name, deleteIndex)
		return err
	})
}

func newCounterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Show or change the daily question counter",
	}
	cmd.PersistentFlags().StringVar(&subjectName, "subject", defaultSubject, "subject")
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show remaining and solved-today counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCounter(cmd, func(context.Context, *daily.Counter) error { return nil })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set N",
		Short: "Set today's remaining question target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || n < 0 {
				return fmt.Errorf("invalid target %q (use 0 or positive integer)", args[0])
			}
			return withCounter(cmd, func(ctx context.Context, c *daily.Counter) error {
				if n == 0 {
					// Zero only lives in memory, so the saved countdown is what this run reports.
					_, err := fmt.Fprintln(cmd.ErrOrStderr(), "A zero target is not saved; the stored countdown is unchanged.")
					return err
				}
				return c.SetRemaining(ctx, n)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "solve",
		Short: "Mark one question as solved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCounter(cmd, func(ctx context.Context, c *daily.Counter) error {
				changed, err := c.Decrement(ctx)
				if err != nil {
					return err
				}
				if !changed {
					logErrln("No questions remaining; set a target with: netrack counter set N")
				}
				return nil
			})
		},
	})
	return cmd
}

func withCounter(cmd *cobra.Command, fn func(ctx context.Context, c *daily.Counter) error) error {
	return withStore(cmd, func(ctx context.Context, s settings, st kv.Store, _ *slog.Logger) error {
		clk := clock.System{Location: s.tracker.Location}
		c := daily.New(st, s.tracker.Subject, clk, s.tracker.DateLayout)
		if _, err := c.Load(ctx); err != nil {
			return err
		}
		if err := fn(ctx, c); err != nil {
			return err
		}
		state := c.State()
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s: remaining %d, solved today %d\n",
			s.tracker.Subject.Name, state.LastResetDate, state.Remaining, state.SolvedToday)
		return err
	})
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics across subjects",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringSliceVar(&statsSubjects, "subject", nil, "subject filter (repeatable, default all)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions per subject")
	cmd.Flags().IntVar(&statsWindow, "window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsBest, "best", defaultBest, "number of best sessions to list")
	cmd.Flags().BoolVar(&statsTUI, "tui", false, "open the interactive stats screen")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	subjects := make([]model.Subject, 0, len(statsSubjects))
	for _, name := range statsSubjects {
		subject, err := model.ParseSubject(name)
		if err != nil {
			return err
		}
		subjects = append(subjects, subject)
	}
	cfg := model.StatsConfig{
		Subjects:    subjects,
		Last:        statsLast,
		CurveWindow: statsWindow,
		Best:        statsBest,
	}
	return withStore(cmd, func(ctx context.Context, _ settings, st kv.Store, logger *slog.Logger) error {
		if statsTUI {
			program := tea.NewProgram(statsui.NewModel(st, cfg, logger), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("failed to run stats TUI: %w", err)
			}
			return nil
		}
		report, err := stats.BuildReport(ctx, st, cfg, logger)
		if err != nil {
			return err
		}
		return renderStats(cmd.OutOrStdout(), report, cfg)
	})
}

func renderStats(w io.Writer, report stats.Report, cfg model.StatsConfig) error {
	if len(report.Cross.Subjects) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet. Add one with: netrack add --subject S ...")
		return err
	}
	if err := stats.RenderSummary(w, report.Cross); err != nil {
		return err
	}
	if err := stats.RenderNetCurve(w, report.Cross, cfg.CurveWindow, 0, plotHeight, false); err != nil {
		return err
	}
	if len(report.Cross.Subjects) != 1 {
		return nil
	}
	subject := report.Cross.Subjects[0].Subject
	records := report.Ledgers[subject]
	if err := stats.RenderTierDistribution(w, records); err != nil {
		return err
	}
	if cfg.Best > 0 {
		return stats.RenderBestSessions(w, subject, records, report.Offsets[subject], cfg.Best)
	}
	return nil
}

func newSubjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List subjects and their stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runSubjectsCmd,
	}
	cmd.Flags().BoolVar(&subjectsShowKeys, "keys", false, "also list raw store keys")
	return cmd
}

func runSubjectsCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s settings, st kv.Store, logger *slog.Logger) error {
		out := cmd.OutOrStdout()
		ledgers, err := stats.LoadLedgers(ctx, st, model.Subjects(), logger)
		if err != nil {
			return err
		}
		stamps, hasStamps := st.(updatedAter)
		for _, subject := range model.Subjects() {
			line := fmt.Sprintf("%s %s %3d sessions",
				runewidth.FillRight(subject.Name, 10),
				runewidth.FillRight(subject.Slug, 10),
				len(ledgers[subject]))
			if hasStamps {
				at, ok, err := stamps.UpdatedAt(ctx, keys.Records(subject))
				if err != nil {
					return err
				}
				if ok {
					line += "  updated " + at.In(s.tracker.Location).Format(time.DateTime)
				}
			}
			if _, err := fmt.Fprintln(out, line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if !subjectsShowKeys {
			return nil
		}
		lister, ok := st.(keyLister)
		if !ok {
			return fmt.Errorf("backend %s cannot list keys", s.storage.Backend)
		}
		all, err := lister.Keys(ctx, "")
		if err != nil {
			return err
		}
		for _, key := range all {
			if _, err := fmt.Fprintln(out, "  "+key); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	})
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the daily counter of a subject",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	addSubjectFlag(cmd)
	cmd.Flags().BoolVar(&resetAll, "all", false, "also delete all recorded sessions")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("subject") {
		return fmt.Errorf("--subject is required")
	}
	return withStore(cmd, func(ctx context.Context, s settings, st kv.Store, logger *slog.Logger) error {
		clk := clock.System{Location: s.tracker.Location}
		if err := daily.New(st, s.tracker.Subject, clk, s.tracker.DateLayout).Reset(ctx); err != nil {
			return err
		}
		what := "counter"
		if resetAll {
			if err := newLedger(st, s, logger).Clear(ctx); err != nil {
				return err
			}
			what = "counter and records"
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Reset %s of %s\n", what, s.tracker.Subject.Name)
		return err
	})
}

func addSubjectFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&subjectName, "subject", defaultSubject, "subject")
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, s settings, st kv.Store, logger *slog.Logger) error) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(ctx, s.storage)
	if err != nil {
		return err
	}
	defer closeStore(st)
	return fn(ctx, s, st, newLogger(rootVerbose))
}

func newLedger(st kv.Store, s settings, logger *slog.Logger) *ledger.Store {
	return ledger.New(st, s.tracker.Subject,
		ledger.WithClock(clock.System{Location: s.tracker.Location}),
		ledger.WithDateLayout(s.tracker.DateLayout),
		ledger.WithLogger(logger),
	)
}

// loadSettings merges the config file with flags. Flags win when set.
func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}

	dateLayout := clock.DefaultDateLayout
	pollInterval := defaultPollInterval
	timezone := defaultTimezone
	applyStringConfig(cmd, "subject", &subjectName, fileCfg.Tracker.Subject)
	applyBoolConfig(cmd, "strict-totals", &strictTotals, fileCfg.Tracker.StrictTotals)
	applyStringConfig(cmd, "", &dateLayout, fileCfg.Tracker.DateLayout)
	applyStringConfig(cmd, "", &pollInterval, fileCfg.Tracker.PollInterval)
	applyStringConfig(cmd, "", &timezone, fileCfg.Tracker.Timezone)

	storage := model.StorageConfig{RedisPrefix: store.DefaultRedisPrefix}
	applyStringConfig(cmd, "backend", &rootBackend, fileCfg.Storage.Backend)
	applyStringConfig(cmd, "db", &rootDBPath, fileCfg.Storage.Path)
	applyStringConfig(cmd, "redis-addr", &rootRedisAddr, fileCfg.Storage.RedisAddr)
	applyStringConfig(cmd, "", &storage.RedisPassword, fileCfg.Storage.RedisPassword)
	applyIntConfig(cmd, "", &storage.RedisDB, fileCfg.Storage.RedisDB)
	applyStringConfig(cmd, "", &storage.RedisPrefix, fileCfg.Storage.RedisPrefix)

	subject, err := model.ParseSubject(subjectName)
	if err != nil {
		return settings{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	if err := config.ValidateDateLayout(dateLayout); err != nil {
		return settings{}, err
	}
	interval, err := config.ParsePollInterval(pollInterval)
	if err != nil {
		return settings{}, err
	}
	loc, err := config.ParseLocation(timezone)
	if err != nil {
		return settings{}, err
	}
	backend, err := config.ParseBackend(rootBackend)
	if err != nil {
		return settings{}, err
	}

	storage.Backend = backend
	storage.Path = rootDBPath
	if storage.Path == "" {
		storage.Path = config.DefaultDBPath()
	}
	storage.RedisAddr = rootRedisAddr

	return settings{
		tracker: model.Config{
			Subject:      subject,
			StrictTotals: strictTotals,
			DateLayout:   dateLayout,
			PollInterval: interval,
			Location:     loc,
		},
		storage: storage,
	}, nil
}

func openStore(ctx context.Context, sc model.StorageConfig) (closableStore, error) {
	switch sc.Backend {
	case config.BackendRedis:
		st, err := store.OpenRedis(ctx, store.RedisOptions{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
			Prefix:   sc.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis: %w", err)
		}
		return st, nil
	case config.BackendMemory:
		logErrln("Using the memory backend; nothing will be saved.")
		return kv.NewMemory(), nil
	default:
		st, err := store.Open(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, nil
	}
}

func closeStore(st closableStore) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close store: %v\n", cerr)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func tierText(stored string) string {
	if stored == "" {
		return "no tier"
	}
	return stored
}

// An empty flag name marks a config-only setting.
func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if name == "" {
		return false
	}
	return cmd.Flags().Changed(name)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# netrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[tracker]
# subject = %q        # Subject opened first
# strict-totals = false       # Require correct+incorrect+blank == questions
# date-layout = %q    # Go layout for session and counter dates
# poll-interval = %q         # How often the daily counter checks for a new day
# timezone = %q            # IANA zone name or Local

[storage]
# backend = %q           # sqlite, redis or memory
# path = %q
# redis-addr = %q
# redis-password = ""
# redis-db = 0
# redis-prefix = %q
`,
		defaultSubject,
		clock.DefaultDateLayout,
		defaultPollInterval,
		defaultTimezone,
		config.BackendSQLite,
		config.DefaultDBPath(),
		defaultRedisAddr,
		store.DefaultRedisPrefix,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
