package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/api"
	"github.com/lalith-99/nextup/internal/cache"
	"github.com/lalith-99/nextup/internal/config"
	"github.com/lalith-99/nextup/internal/db"
	"github.com/lalith-99/nextup/internal/events"
	"github.com/lalith-99/nextup/internal/ident"
	"github.com/lalith-99/nextup/internal/middleware"
	"github.com/lalith-99/nextup/internal/observ"
	"github.com/lalith-99/nextup/internal/repository"
	"github.com/lalith-99/nextup/internal/repository/memory"
	"github.com/lalith-99/nextup/internal/repository/postgres"
	"github.com/lalith-99/nextup/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Storage
	//
	// postgres in every real deployment; memory for demos and local
	// poking around without a database.
	// ---------------------------------------------------------------
	var store repository.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.New()
	default:
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = postgres.NewStore(database.Pool())
	}

	// ---------------------------------------------------------------
	// 4. Redis (optional): config cache + cross-instance event bus.
	// Without it every instance serves its own tablets from memory.
	// ---------------------------------------------------------------
	var (
		configCache cache.ConfigCache = cache.Noop{}
		bus         events.Bus        = events.NewHub()
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		configCache = cache.NewRedisConfigCache(rdb, cfg.ConfigCacheTTL, logger)
		bus = events.NewRedisBus(rdb, logger)
		logger.Info("redis connected", zap.String("addr", opts.Addr))
	}

	// ---------------------------------------------------------------
	// 5. Broker (optional): durable copy of every booking event.
	// ---------------------------------------------------------------
	publisher := events.Fanout{bus}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer amqpPub.Close()
		publisher = append(publisher, amqpPub)
	}

	// ---------------------------------------------------------------
	// 6. Services
	// ---------------------------------------------------------------
	ids := ident.NewRandom()
	registry := service.NewRegistry(store, ids, cfg.BcryptCost, logger)
	catalog := service.NewCatalog(store, ids, configCache, logger)
	ledger := service.NewLedger(store, ids, publisher, cfg.Location(),
		service.ParseTimePolicy(cfg.BookingTimePolicy), logger)

	// ---------------------------------------------------------------
	// 7. HTTP
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(time.Minute, ctx.Done())

	router, err := api.NewRouter(api.Deps{
		Registry:      registry,
		Catalog:       catalog,
		Ledger:        ledger,
		Events:        bus,
		Store:         store,
		Limiter:       limiter,
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    cfg.SessionTTL,
		OperatorToken: cfg.OperatorToken,
		PublicBaseURL: cfg.PublicBaseURL,
		Location:      cfg.Location(),
		SecureCookies: cfg.Env == "production",
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.HeaderAdminSecret, middleware.HeaderOperatorToken},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting NextUp",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("redis", cfg.RedisURL != ""),
			zap.Bool("broker", cfg.AMQPURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
