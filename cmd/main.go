package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/petanque-system/config"
	"github.com/Dosada05/petanque-system/db"
	"github.com/Dosada05/petanque-system/handlers"
	"github.com/Dosada05/petanque-system/realtime"
	"github.com/Dosada05/petanque-system/repositories"
	api "github.com/Dosada05/petanque-system/routes"
	"github.com/Dosada05/petanque-system/services"
	"github.com/Dosada05/petanque-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	var archiver services.DrawArchiver
	r2Config := storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		store, err := storage.NewCloudflareR2Store(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = services.NewStorageDrawArchiver(store)
		logger.Info("draw archive enabled", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("draw archive disabled, R2 settings missing")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run(ctx)

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	terrainRepo := repositories.NewPostgresTerrainRepository(dbConn)
	drawLogRepo := repositories.NewPostgresDrawLogRepository(dbConn)
	drawLockRepo := repositories.NewPostgresDrawLockRepository(dbConn)

	drawService := services.NewDrawService(
		repositories.NewSQLTransactor(dbConn),
		tournamentRepo,
		playerRepo,
		teamRepo,
		matchRepo,
		terrainRepo,
		drawLogRepo,
		drawLockRepo,
		services.NewMatchStandingsProvider(matchRepo),
		archiver,
		wsHub,
		logger,
		services.DrawOptions{
			LockTTL:        cfg.DrawLockTTL,
			MaxSearchSteps: cfg.DrawMaxSearchSteps,
		},
	)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		handlers.NewDrawHandler(drawService),
		handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		api.Options{
			JWTSecret:      cfg.JWTSecretKey,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:         logger,
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
