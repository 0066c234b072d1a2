package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tedex09/portalvd/internal/cache"
	"github.com/tedex09/portalvd/internal/config"
	"github.com/tedex09/portalvd/internal/infra/whatsapp"
	pgrepo "github.com/tedex09/portalvd/internal/repo/postgres"
	redrepo "github.com/tedex09/portalvd/internal/repo/redis"
	authsvc "github.com/tedex09/portalvd/internal/services/auth"
	ratesvc "github.com/tedex09/portalvd/internal/services/rate"
	requestssvc "github.com/tedex09/portalvd/internal/services/requests"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
	cancelBG   context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	requestRepo := pgrepo.NewRequestRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)

	var notifier requestssvc.Notifier
	if cfg.Notify.WhatsappAPIURL != "" {
		n, err := whatsapp.New(cfg.Notify.WhatsappAPIURL, cfg.Notify.WhatsappToken, cfg.Notify.Timeout)
		if err != nil {
			log.Warn("whatsapp init failed, notifications disabled", zap.Error(err))
		} else {
			notifier = n
		}
	}

	bgCtx, cancelBG := context.WithCancel(context.Background())
	listingCache := cache.NewMemory(log)
	listingCache.StartReaper(bgCtx, cfg.Cache.ReaperInterval)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Requests.SubmitPerHour, cfg.Requests.SubmitPerDay)
	requestService := requestssvc.NewService(requestRepo, userRepo, notifier, listingCache, requestssvc.Config{
		ListingTTL:    cfg.Cache.ListingTTL,
		FanoutWorkers: cfg.Notify.FanoutWorkers,
	}, log)

	RegisterRoutes(r, Dependencies{
		RequestService: requestService,
		RateLimiter:    rateLimiter,
		JWTManager:     jwtManager,
		Logger:         log,
		Config:         cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
		cancelBG:   cancelBG,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.cancelBG != nil {
		a.cancelBG()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
