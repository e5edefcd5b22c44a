package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rolegate/rolegate/internal/app"
	"github.com/rolegate/rolegate/internal/auth"
	"github.com/rolegate/rolegate/internal/observability"
	"github.com/rolegate/rolegate/internal/platform/cache"
	"github.com/rolegate/rolegate/internal/platform/db"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/token"
	"github.com/rolegate/rolegate/internal/users"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rolegate exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec, err := token.NewCodec(cfg.TokenConfig())
	if err != nil {
		return err
	}
	cfg.ClearSecrets()

	policy, err := auth.PolicyFromName(cfg.AuthVerificationPolicy)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	guard := rbac.Middleware{Logger: logger}

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, rolesService)

	reconciler := auth.NewReconciler(usersRepo, rolesRepo, cfg.AuthExternalScopes, logger)
	authenticator := auth.NewAuthenticator(codec, reconciler)
	pipeline := auth.NewPipeline(authenticator, policy, logger, metrics)

	refreshStore := auth.NewRefreshStore(redisClient)
	authHandler := auth.NewHandler(logger, usersService, codec, refreshStore, guard,
		auth.WithLoginRateLimit(cfg.AuthLoginRateLimit),
		auth.WithMetrics(metrics),
	)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Pipeline:           pipeline,
		AuthHandler:        authHandler,
		UsersHandler:       users.NewHandler(logger, usersService, guard),
		RolesHandler:       roles.NewHandler(logger, rolesService, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(guard),
		Metrics:            metrics,
		Readiness: map[string]app.ReadinessCheck{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("verification_policy", cfg.AuthVerificationPolicy),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
