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
	_ "time/tzdata"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"reservas-backend/config"
	"reservas-backend/internal/api"
	"reservas-backend/internal/db"
	"reservas-backend/internal/logging"
	"reservas-backend/internal/metrics"
	"reservas-backend/internal/notification"
	"reservas-backend/internal/realtime"
	"reservas-backend/internal/reconcile"
	"reservas-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		boot := logging.New(config.LogConfig{})
		boot.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Log)
	logger.Info().Str("path", configPath).Msg("configuration loaded")
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := db.Init(&cfg.Database, logger.GetLevel(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	reservations := store.NewGormStore(gormDB,
		store.WithEncodings(store.NewShiftEncodings(cfg.Store.ShiftEncodings)),
		store.WithLogger(logger),
	)
	subscriptions := store.NewSubscriptionStore(gormDB)

	opts := []reconcile.Option{reconcile.WithLogger(logger), reconcile.WithPublishWrites(cfg.Realtime.PublishWrites)}

	var rdb *redis.Client
	if cfg.Realtime.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		opts = append(opts, reconcile.WithFeed(realtime.NewRedisFeed(rdb, cfg.Redis.ChannelPrefix, logger)))
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, subscriptions, webpushOptions, logger)
		pool.Start(ctx)
		opts = append(opts, reconcile.WithAlerts(pool))
	} else {
		logger.Warn().Msg("VAPID keys not configured; staff alerts disabled")
	}

	ctrl := reconcile.NewController(reservations, opts...)
	defer ctrl.Close()

	startDate, err := cfg.Reconcile.StartDate(time.Now())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid reconcile configuration")
	}
	if err := ctrl.SetActiveDate(ctx, startDate); err != nil {
		// The resync loop retries; the API is still useful for switching dates.
		logger.Error().Err(err).Str("date", startDate).Msg("initial fetch failed")
	}
	go ctrl.Run(ctx, cfg.Reconcile.ResyncInterval)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, gormDB, rdb, &logger)

	handler := api.NewHandler(ctrl, subscriptions, webpushOptions, cfg.Restaurant.Name, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateBurst:       cfg.Server.RateBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown")
	}
	logger.Info().Msg("server gracefully stopped")
}

func startHealthServer(ctx context.Context, port int, gormDB *gorm.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		sqlDB, err := gormDB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctxPing)
		}
		if err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
