package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/config"
	"github.com/Dosada05/royale-tournaments/db"
	"github.com/Dosada05/royale-tournaments/handlers"
	"github.com/Dosada05/royale-tournaments/repositories"
	api "github.com/Dosada05/royale-tournaments/routes"
	"github.com/Dosada05/royale-tournaments/services"
	"github.com/Dosada05/royale-tournaments/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("store", cfg.StoreDriver))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tournamentRepo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open tournament store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	// The scoreboard archive (Cloudflare R2) is optional.
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 is not configured, scoreboard snapshots will not be archived")
	}

	// WebSocket hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	tournamentService := services.NewTournamentService(tournamentRepo, wsHub, uploader, logger)

	publishScheduler, err := services.NewPublishScheduler(tournamentService, cfg.PublishSchedulerInterval, logger)
	if err != nil {
		logger.Error("failed to create publish scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	publishScheduler.Start()
	logger.Info("publish scheduler started", slog.Duration("interval", cfg.PublishSchedulerInterval))

	// HTTP handlers
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, originChecker(cfg.CORSAllowedOrigins), logger)

	router := chi.NewRouter()
	api.SetupRoutes(router,
		api.Options{JWTSecret: []byte(cfg.JWTSecretKey), AllowedOrigins: cfg.CORSAllowedOrigins},
		tournamentHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}
	}

	if err := publishScheduler.Shutdown(); err != nil {
		logger.Error("failed to stop publish scheduler", slog.Any("error", err))
	}
	stop()
	closeStore()
	logger.Info("application exited")
	os.Exit(exitCode)
}

// openStore connects the configured tournament store and returns a func that releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.TournamentRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
		logger.Info("database connection established")
		return repositories.NewPostgresTournamentRepository(dbConn), onceFunc(func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			}
		}), nil

	case config.StoreDriverMongo:
		client, database, err := db.ConnectMongo(cfg.MongoURI, cfg.MongoDatabase, 10*time.Second)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("mongo connection established", slog.String("database", cfg.MongoDatabase))
		return repositories.NewMongoTournamentRepository(database), onceFunc(func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Error("failed to disconnect from mongo", slog.Any("error", err))
			}
		}), nil

	default:
		logger.Warn("using in-memory tournament store, data is lost on restart")
		return repositories.NewMemoryTournamentRepository(), func() {}, nil
	}
}

func onceFunc(f func()) func() {
	done := false
	return func() {
		if !done {
			done = true
			f()
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
