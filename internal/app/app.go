package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leaddesk/crm-backend/internal/adapter/postgres"
	auditrepo "github.com/leaddesk/crm-backend/internal/adapter/postgres/audit"
	leadrepo "github.com/leaddesk/crm-backend/internal/adapter/postgres/lead"
	staterepo "github.com/leaddesk/crm-backend/internal/adapter/postgres/state"
	transitionrepo "github.com/leaddesk/crm-backend/internal/adapter/postgres/transition"
	"github.com/leaddesk/crm-backend/internal/config"
	"github.com/leaddesk/crm-backend/internal/service/bootstrap"
	"github.com/leaddesk/crm-backend/internal/service/state"
	"github.com/leaddesk/crm-backend/internal/service/transition"
)

// App holds the wired application graph: config, logger, database pool
// and the workflow services. Transports and CLIs build on top of it.
type App struct {
	Cfg  *config.Config
	Log  *slog.Logger
	Pool *pgxpool.Pool

	States      *state.Service
	Transitions *transition.Service
	Bootstrap   *bootstrap.Service
}

// New loads configuration, connects to the database and wires the
// services. The caller owns the returned App and must Close it.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	states := staterepo.New(pool)
	transitions := transitionrepo.New(pool)
	leads := leadrepo.New(pool)
	audit := auditrepo.New(pool)
	txm := postgres.NewTxManager(pool)

	return &App{
		Cfg:         cfg,
		Log:         logger,
		Pool:        pool,
		States:      state.NewService(logger, states, leads, audit, txm, cfg.Workflow),
		Transitions: transition.NewService(logger, transitions, states, audit, txm, cfg.Workflow),
		Bootstrap:   bootstrap.NewService(logger, states, transitions, leads, audit, txm),
	}, nil
}

// Close releases the App's resources.
func (a *App) Close() {
	a.Pool.Close()
}

// Run is the server entry point. It wires the application and blocks
// until the context is canceled.
func Run(ctx context.Context) error {
	a, err := New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Log.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", a.Cfg.Log.Level),
	)

	<-ctx.Done()
	a.Log.Info("shutting down")
	return nil
}
