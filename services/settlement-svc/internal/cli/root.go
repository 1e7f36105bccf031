// Package cli provides the splitit command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"connectrpc.com/connect"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"splitit/pkg/apperror"
	"splitit/pkg/audit"
	"splitit/pkg/cache"
	"splitit/pkg/config"
	"splitit/pkg/database"
	"splitit/pkg/logger"
	"splitit/migrations"
	"splitit/services/settlement-svc/internal/repository"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"
	// Commit is set at build time via ldflags.
	Commit = "none"
	// Date is set at build time via ldflags.
	Date = "unknown"
)

// Exit codes
const (
	ExitFailure    = 1
	ExitInvalidArg = 2
)

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app holds state shared by all subcommands.
type app struct {
	configFile string
	envFile    string
	logLevel   string

	cfg *config.Config
}

// NewRootCmd builds the command tree. Each call returns a fresh tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "splitit",
		Short: "Settle shared expenses with as few questions as possible",
		Long: `splitit works out who pays whom after a shared trip or dinner.

Give it what everybody paid; it computes each person's balance against the
fair share and routes the debts to the people who are owed money using a
max-flow network (Edmonds-Karp).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: splitit.yaml, config/splitit.yaml or $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load before reading the config (default: .env if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(newSettleCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command. Input errors come back as an ExitError
// with ExitInvalidArg.
func Execute() error {
	err := NewRootCmd().Execute()
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: exitCode(err), Err: err}
}

func exitCode(err error) int {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return ExitFailure
	}
	if connect.CodeOf(apperror.ToConnect(err)) == connect.CodeInvalidArgument {
		return ExitInvalidArg
	}
	return ExitFailure
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", a.envFile, err)
		}
	} else {
		// .env is optional
		_ = godotenv.Load()
	}

	var opts []config.LoaderOption
	if a.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.configFile))
	}

	loader := config.NewLoader(opts...)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if Version != "dev" {
		cfg.App.Version = Version
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	for _, w := range loader.Warnings() {
		logger.Debug("Config warning", "warning", w)
	}

	a.cfg = cfg
	return nil
}

// settlementCache opens the configured result cache. The returned close
// function is always safe to call.
func (a *app) settlementCache() (*cache.SettlementCache, func(), error) {
	if !a.cfg.Cache.Enabled {
		return nil, func() {}, nil
	}

	c, err := cache.New(cache.FromConfig(&a.cfg.Cache))
	if err != nil {
		return nil, func() {}, fmt.Errorf("open %s cache: %w", a.cfg.Cache.Driver, err)
	}

	closeFn := func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close cache", "error", err)
		}
	}
	return cache.NewSettlementCache(c, a.cfg.Cache.DefaultTTL), closeFn, nil
}

// auditLogger opens the audit log, or returns nil when auditing is off.
func (a *app) auditLogger() (audit.Logger, error) {
	if !a.cfg.Audit.Enabled {
		return nil, nil
	}

	l, err := audit.New(audit.FromConfig(&a.cfg.Audit))
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	logger.Info("Audit log enabled", "backend", a.cfg.Audit.Backend)
	return l, nil
}

// recordAudit writes a successful command to the audit log if auditing is
// on. Failures are logged and do not fail the command.
func (a *app) recordAudit(cmd *cobra.Command, b *audit.Builder) {
	l, err := a.auditLogger()
	if err != nil {
		logger.Warn("Audit log unavailable", "error", err)
		return
	}
	if l == nil {
		return
	}
	defer l.Close()

	entry := b.Service(a.cfg.App.Name).
		Procedure("cli:" + cmd.CommandPath()).
		Subject(os.Getenv("USER")).
		Outcome(audit.OutcomeSuccess).
		Build()
	if err := l.Log(cmd.Context(), entry); err != nil {
		logger.Warn("Failed to write audit entry", "error", err)
	}
}

// openDatabase connects to PostgreSQL regardless of database.enabled.
func (a *app) openDatabase(ctx context.Context) (*database.PostgresDB, error) {
	db, err := database.NewPostgresDB(ctx, &a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// runRepository opens the settlement history store when database.enabled
// is set and applies migrations if auto_migrate is on. It returns a nil
// repository when history is disabled.
func (a *app) runRepository(ctx context.Context) (repository.RunRepository, func(), error) {
	if !a.cfg.Database.Enabled {
		return nil, func() {}, nil
	}

	db, err := a.openDatabase(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	if err := database.RunMigrations(ctx, db.Pool(), &a.cfg.Database,
		migrations.PostgresMigrations, migrations.PostgresDir); err != nil {
		db.Close()
		return nil, func() {}, err
	}

	return repository.NewPostgresRunRepository(db), db.Close, nil
}
