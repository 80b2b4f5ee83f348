package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/config"
	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/session"
	"github.com/roach88/silo/internal/silo"
)

// app is the per-invocation state shared by commands: configuration, the
// backend session and the output formatter.
type app struct {
	// fileCfg is the config as read from disk; cfg has flag overrides applied.
	fileCfg    *config.Config
	cfg        *config.Config
	configPath string

	handle  *session.Handle
	clock   silo.Clock
	traceID string
	out     *OutputFormatter
}

func newApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	traceIDs := opts.TraceIDs
	if traceIDs == nil {
		traceIDs = UUIDv7Generator{}
	}
	traceID := traceIDs.Generate()

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler).With("trace_id", traceID))

	fileCfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cfg := *fileCfg
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if cmd.Flags().Changed("user") {
		cfg.UserID = opts.UserID
	}
	slog.Debug("config loaded", "path", opts.ConfigPath, "database", cfg.Database, "user_id", cfg.UserID)

	connect := opts.Connector
	if connect == nil {
		connect = session.SQLite(cfg.Database)
	}
	clock := opts.Clock
	if clock == nil {
		clock = silo.NewSystemClock()
	}

	return &app{
		fileCfg:    fileCfg,
		cfg:        &cfg,
		configPath: opts.ConfigPath,
		handle: session.New(connect, session.ReconnectPolicy{
			MaxAttempts: cfg.Reconnect.MaxAttempts,
			BaseDelay:   cfg.Reconnect.BaseDelay,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			Rate:        cfg.Reconnect.Rate,
		}),
		clock:   clock,
		traceID: traceID,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
			Verbose:   opts.Verbose,
			TraceID:   traceID,
		},
	}, nil
}

// withStore connects, retrying while the backend is unavailable, and runs
// fn once. fn is never repeated: it may have committed writes before a
// failure, and replaying it would duplicate them.
func (a *app) withStore(ctx context.Context, op string, fn func(ctx context.Context, st *silo.Store) error) error {
	b, err := a.handle.Connect(ctx, op)
	if err != nil {
		return err
	}
	err = fn(ctx, a.store(b, b))
	if errors.Is(err, grid.ErrUnavailable) {
		a.handle.Reset()
	}
	return err
}

// withCatalog runs a read-only, unaudited fn, retrying it whole with a
// fresh connection while the backend is unavailable.
func (a *app) withCatalog(ctx context.Context, op string, fn func(ctx context.Context, st *silo.Store) error) error {
	return a.handle.Retry(ctx, op, func(ctx context.Context) error {
		ts, err := a.handle.TableService(ctx)
		if err != nil {
			return err
		}
		qs, err := a.handle.QueryService(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a.store(ts, qs))
	})
}

func (a *app) store(ts grid.TableService, qs grid.QueryService) *silo.Store {
	return silo.New(ts, qs, silo.Options{
		UserID: a.cfg.UserID,
		Org:    a.cfg.Namespace,
		Clock:  a.clock,
	})
}

// siloID returns id, or the configured default silo when id is zero.
func (a *app) siloID(id int64) (int64, error) {
	if id != 0 {
		return id, nil
	}
	if a.cfg.DefaultSilo != 0 {
		return a.cfg.DefaultSilo, nil
	}
	return 0, NewExitError(ExitCommandError, "no silo id given and no default silo set (see 'silo default')")
}

func (a *app) close() error {
	if a == nil || a.handle == nil {
		return nil
	}
	return a.handle.Close()
}
