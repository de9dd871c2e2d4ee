package qatracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/cache"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/config"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/llm"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/migrations"
	activityservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/activity"
	authservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/auth"
	dashboardservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/dashboard"
	summaryservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/summary"
	usersservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/users"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP API вместе с его зависимостями.
type App struct {
	server  *http.Server
	health  *healthServer
	logger  *slog.Logger
	db      *repository.Storage
	closers []io.Closer
}

// New подключает базу, применяет миграции и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, err
	}

	var userCache authservice.Cache
	if cfg.RedisConnection.Enabled {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, err
		}
		userCache = redisCache
		app.closers = append(app.closers, redisCache)
	}

	var activityOpts []activityservice.Option
	publisher, publisherCloser, err := newPublisher(cfg)
	if err != nil {
		app.close()
		return nil, err
	}
	if publisher != nil {
		activityOpts = append(activityOpts, activityservice.WithPublisher(publisher, cfg.Events.Broker))
		app.closers = append(app.closers, publisherCloser)
	}

	var completer summaryservice.Completer
	if cfg.SummaryConfigured() {
		completer = llm.NewClient(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Timeout)
	} else {
		logger.Warn("summary service is not configured, POST /api/ai/summary will fail")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(logger, db, jwtMaker, userCache, cfg.RedisConnection.UserTTL)
	activityService := activityservice.NewActivityService(logger, db, activityOpts...)
	summaryService := summaryservice.NewSummaryService(logger, activityService, completer, summaryservice.Settings{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:       authService,
		Activities: activityService,
		Dashboard:  dashboardservice.NewDashboardService(activityService),
		Summary:    summaryService,
		Users:      usersservice.NewUserService(logger, db),
	}, middlewarectx.NewRateLimiter(cfg.RateLimit.SummaryRPS, cfg.RateLimit.SummaryBurst))

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.LLM.Timeout + cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.GRPCHealthAddress != "" {
		app.health, err = newHealthServer(cfg.GRPCHealthAddress, logger)
		if err != nil {
			app.close()
			return nil, err
		}
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	if a.health != nil {
		go func() {
			if err := a.health.run(healthCtx); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close dependency", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
