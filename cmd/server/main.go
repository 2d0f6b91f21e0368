package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexvogt/chesscoach/internal/api"
	"github.com/alexvogt/chesscoach/internal/chesscom"
	"github.com/alexvogt/chesscoach/internal/config"
	"github.com/alexvogt/chesscoach/internal/db"
	"github.com/alexvogt/chesscoach/internal/engine"
	"github.com/alexvogt/chesscoach/internal/jobs"
	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/repository/sqlite"
	"github.com/alexvogt/chesscoach/internal/services"
	"github.com/alexvogt/chesscoach/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("ChessCoach Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("stockfish_path=%s", cfg.StockfishPath)
	log.Debug("stockfish_depth=%d", cfg.StockfishDepth)
	log.Debug("engine_pool_size=%d", cfg.EnginePoolSize)
	log.Debug("blunder_threshold_cp=%.0f", cfg.BlunderThresholdCP)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("analysis_worker_count=%d", cfg.AnalysisWorkerCount)
	log.Debug("import_worker_count=%d", cfg.ImportWorkerCount)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	enginePool, err := engine.NewPool(cfg.StockfishPath, cfg.EnginePoolSize)
	if err != nil {
		log.Error("failed to initialize engine pool: %v", err)
		os.Exit(1)
	}
	defer enginePool.Close()

	analysisPool := worker.NewPool(cfg.AnalysisWorkerCount, cfg.AnalysisQueueSize)
	importPool := worker.NewPool(cfg.ImportWorkerCount, cfg.ImportQueueSize)

	gameRepo := sqlite.NewGameRepository(database.DB)
	errorRepo := sqlite.NewErrorRepository(database.DB)
	profileRepo := sqlite.NewProfileRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)

	analysisService := services.NewAnalysisService(
		gameRepo,
		errorRepo,
		services.NewEnginePoolAdapter(enginePool),
		services.AnalysisConfig{
			Depth:           cfg.StockfishDepth,
			MoveTime:        time.Duration(cfg.StockfishMoveTimeMs) * time.Millisecond,
			FlagThresholdCP: cfg.BlunderThresholdCP,
			EvalMaxRetries:  cfg.EvalMaxRetries,
			MaxSkippedPlies: cfg.MaxSkippedPlies,
		},
	)
	profileService := services.NewProfileService(profileRepo)
	gameService := services.NewGameService(gameRepo, errorRepo)

	chessClient := chesscom.New()
	queue := jobs.NewWorkerQueue(
		analysisPool,
		importPool,
		gameRepo,
		profileRepo,
		analysisService,
		chessClient,
		cfg.ArchiveLimit,
		cfg.MaxConcurrentArchive,
	)

	srv := &api.Server{
		DB:              database,
		ProfileService:  profileService,
		GameService:     gameService,
		AnalysisService: analysisService,
		GameRepo:        gameRepo,
		ErrorRepo:       errorRepo,
		StatsRepo:       statsRepo,
		Queue:           queue,
		EnginePool:      enginePool,
	}

	ctx, cancel := context.WithCancel(context.Background())
	analysisPool.Start(ctx)
	importPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping worker pools")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping analysis pool")
	analysisPool.Stop()
	log.Debug("stopping import pool")
	importPool.Stop()

	log.Info("===========================================")
	log.Info("ChessCoach Server Stopped")
	log.Info("===========================================")
}
