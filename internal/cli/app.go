package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/activity"
	"github.com/mrz1836/testmo/internal/ai"
	"github.com/mrz1836/testmo/internal/auth"
	"github.com/mrz1836/testmo/internal/collection"
	"github.com/mrz1836/testmo/internal/config"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/ctxutil"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/metrics"
	"github.com/mrz1836/testmo/internal/session"
	"github.com/mrz1836/testmo/internal/store"
	"github.com/mrz1836/testmo/internal/tui"
)

// App is everything a command needs, built from configuration for one invocation.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Journal *activity.Journal
	Cases   *collection.Manager
	Users   *auth.Directory
	Session *session.Context
	Metrics *metrics.Prometheus
	Logger  zerolog.Logger
	Out     tui.Output

	// W is where command results go; prompts and spinners use the terminal directly.
	W io.Writer

	theme constants.Theme
	ai    *ai.Service
}

// newApp loads configuration, opens the store and loads every collaborator.
func newApp(ctx context.Context, w io.Writer, flags *GlobalFlags) (*App, error) {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)

	cfg, err := config.LoadWithOverrides(ctx, flags.overrides())
	if err != nil {
		return nil, errors.NewExitCode2Error(err)
	}

	st, err := store.Open(ctx, store.Options{
		Backend:       cfg.Storage.Backend,
		Dir:           cfg.Storage.Dir,
		SQLitePath:    cfg.Storage.SQLitePath,
		RedisURL:      cfg.Storage.RedisURL,
		RedisPrefix:   cfg.Storage.RedisPrefix,
		MaxValueBytes: cfg.Storage.MaxValueBytes,
		LockTimeout:   cfg.Storage.LockTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	app := &App{
		Config:  cfg,
		Store:   st,
		Metrics: metrics.NewPrometheus(),
		Logger:  logger,
		Out:     tui.NewOutput(w, flags.Output),
		W:       w,
	}

	app.Journal = activity.NewJournal(st,
		activity.WithLimit(cfg.Activity.Limit),
		activity.WithLogger(logger),
	)
	app.Cases = collection.NewManager(st, app.Journal,
		collection.WithLogger(logger),
		collection.WithMetrics(app.Metrics),
	)
	app.Users = auth.NewDirectory(st, app.Journal,
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
		auth.WithBootstrapPassword(cfg.Auth.BootstrapPassword),
		auth.WithLogger(logger),
	)

	if err := app.load(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	app.theme = app.Session.Theme()
	if flags.Theme != "" {
		app.theme = constants.Theme(flags.Theme)
	}
	tui.CheckNoColor()
	tui.ApplyTheme(app.theme)
	return app, nil
}

func (a *App) load(ctx context.Context) error {
	if err := a.Journal.Load(ctx); err != nil {
		return err
	}
	if err := a.Cases.Load(ctx); err != nil {
		return err
	}
	if err := a.Users.Load(ctx); err != nil {
		return err
	}
	sess, err := session.Init(ctx, a.Store, a.Users.Get, constants.Theme(a.Config.UI.Theme))
	if err != nil {
		return err
	}
	a.Session = sess
	return nil
}

// Close writes the metrics textfile when configured and closes the store.
func (a *App) Close() error {
	if path := a.Config.Metrics.Textfile; path != "" {
		if err := a.Metrics.WriteTextfile(path); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics textfile")
		}
	}
	return a.Store.Close()
}

// Theme is the theme used for rendering in this invocation.
func (a *App) Theme() constants.Theme { return a.theme }

// Actor returns the logged-in username, or ErrNotLoggedIn.
func (a *App) Actor() (string, error) {
	u, err := a.Session.RequireUser()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// RequireAdmin returns the logged-in user when it has the Admin role.
func (a *App) RequireAdmin() (domain.User, error) {
	u, err := a.Session.RequireUser()
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != constants.RoleAdmin {
		return domain.User{}, fmt.Errorf("%w: %s is not an administrator", errors.ErrPermissionDenied, u.Username)
	}
	return u, nil
}

// Settings loads the project settings passed to AI calls.
func (a *App) Settings(ctx context.Context) (domain.ProjectSettings, error) {
	return a.Store.LoadSettings(ctx)
}

// AI returns the AI service, built on first use.
func (a *App) AI() *ai.Service {
	if a.ai != nil {
		return a.ai
	}
	c := a.Config.AI
	model := ai.NewGeminiModel(c.Model, c.APIKey(),
		ai.WithEndpoint(c.Endpoint),
		ai.WithHTTPClient(&http.Client{Timeout: c.Timeout}),
	)
	a.ai = ai.NewService(model,
		ai.WithRetryPolicy(ai.RetryPolicy{
			MaxAttempts:  c.Retry.MaxAttempts,
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Multiplier:   c.Retry.Multiplier,
			Jitter:       c.Retry.Jitter,
		}),
		ai.WithImportBatching(c.ImportBatchSize, c.ImportConcurrency),
		ai.WithLogger(a.Logger),
		ai.WithMetrics(a.Metrics),
	)
	return a.ai
}

// withApp builds an App for cmd, runs fn and closes the App afterwards.
func withApp(cmd *cobra.Command, flags *GlobalFlags, fn func(ctx context.Context, app *App) error) error {
	ctx := ctxutil.OrBackground(cmd.Context())
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	app, err := newApp(ctx, cmd.OutOrStdout(), flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Logger.Warn().Err(cerr).Msg("failed to close storage")
		}
	}()
	return fn(app.Logger.WithContext(ctx), app)
}

// spin runs fn behind a spinner on text output.
func spin[T any](ctx context.Context, app *App, msg string, fn func(context.Context) (T, error)) (T, error) {
	s := app.Out.Spinner(ctx, msg)
	start := time.Now()
	v, err := fn(ctx)
	s.Stop()
	app.Logger.Debug().Str("task", msg).Dur("elapsed", time.Since(start)).Err(err).Msg("finished")
	return v, err
}
