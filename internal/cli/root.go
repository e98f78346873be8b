package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/Enfiniq/loomcal-sub000/internal/compiler"
	"github.com/Enfiniq/loomcal-sub000/internal/config"
	"github.com/Enfiniq/loomcal-sub000/internal/engine"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // settings file
	Database string // overrides settings.database
	DSN      string // overrides settings.dsn
	User     string // overrides settings.default_user
	Now      string // RFC 3339; pins the clock relative times count from

	level *slog.LevelVar
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the loomcal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "loomcal",
		Version: ir.Version,
		Short:   "loomcal - chat commands for an event store",
		Long: `Compile chat commands such as "/get -type gym -rt -60 0" into structured
queries and run them against a SQLite or PostgreSQL event store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "settings file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "PostgreSQL connection string; replaces --db")
	cmd.PersistentFlags().StringVar(&opts.User, "user", "", "sender of the messages")
	cmd.PersistentFlags().StringVar(&opts.Now, "now", "", "fixed current time (RFC 3339)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Settings returns the settings file with flag overrides applied.
func (o *RootOptions) Settings() (config.Settings, error) {
	s, err := config.Load(o.Config)
	if err != nil {
		return s, WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	if o.Database != "" {
		s.Database = o.Database
	}
	if o.DSN != "" {
		s.DSN = o.DSN
	}
	if o.User != "" {
		s.DefaultUser = o.User
	}
	return s, nil
}

// Clock returns the time source relative times are resolved against.
func (o *RootOptions) Clock() (func() time.Time, error) {
	if o.Now == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, o.Now)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --now", err)
	}
	t = t.UTC()
	return func() time.Time { return t }, nil
}

// Logger returns a text logger writing to w. Its level follows the
// settings, or debug under --verbose.
func (o *RootOptions) Logger(w io.Writer, s config.Settings) *slog.Logger {
	if o.level == nil {
		o.level = new(slog.LevelVar)
	}
	config.ApplyLevel(o.level, s)
	if o.Verbose {
		o.level.Set(slog.LevelDebug)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: o.level}))
}

// openStore opens the event store the settings name.
func openStore(ctx context.Context, s config.Settings, now func() time.Time) (*store.Store, error) {
	if s.Postgres() {
		st, err := store.OpenPostgres(ctx, s.DSN, store.WithClock(now))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to connect to database", err)
		}
		return st, nil
	}
	st, err := store.Open(s.Database, store.WithClock(now))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// newEngine wires an engine to st. replier may be nil.
func newEngine(st *store.Store, s config.Settings, now func() time.Time, logger *slog.Logger, replier engine.Replier) *engine.Engine {
	opts := []engine.Option{
		engine.WithCompiler(compiler.New(compiler.WithClock(now))),
		engine.WithExecutor(st),
		engine.WithConfigStore(st),
		engine.WithBotName(s.BotName),
		engine.WithLogger(logger),
	}
	if replier != nil {
		opts = append(opts, engine.WithReplier(replier))
	}
	return engine.New(opts...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
