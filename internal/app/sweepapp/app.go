package sweepapp

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tedex09/portalvd/internal/config"
	"github.com/tedex09/portalvd/internal/infra/whatsapp"
	"github.com/tedex09/portalvd/internal/jobs/lowdemand"
	pgrepo "github.com/tedex09/portalvd/internal/repo/postgres"
	requestssvc "github.com/tedex09/portalvd/internal/services/requests"
)

// App runs the scheduled low demand sweep as a standalone process, sharing
// the request service wiring with the api server.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	job      *lowdemand.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for sweep app: %w", err)
	}

	requestRepo := pgrepo.NewRequestRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)

	var notifier requestssvc.Notifier
	if cfg.Notify.WhatsappAPIURL != "" {
		n, err := whatsapp.New(cfg.Notify.WhatsappAPIURL, cfg.Notify.WhatsappToken, cfg.Notify.Timeout)
		if err != nil {
			logger.Warn("whatsapp init failed, notifications disabled", zap.Error(err))
		} else {
			notifier = n
		}
	}

	requestService := requestssvc.NewService(requestRepo, userRepo, notifier, nil, requestssvc.Config{
		FanoutWorkers: cfg.Notify.FanoutWorkers,
	}, logger)

	job := lowdemand.New(
		requestService,
		cfg.Requests.LowDemandHours,
		cfg.Requests.DemandThreshold,
		cfg.Requests.LowDemandReason,
		logger,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		job:      job,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("sweep app started",
		zap.Duration("interval", a.cfg.Requests.SweepInterval),
		zap.Int("low_demand_hours", a.cfg.Requests.LowDemandHours),
		zap.Int("demand_threshold", a.cfg.Requests.DemandThreshold),
	)
	return a.job.RunLoop(ctx, a.cfg.Requests.SweepInterval)
}

func (a *App) Shutdown() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
