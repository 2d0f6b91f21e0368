package config

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                 string
	DBPath               string
	StockfishPath        string
	StockfishDepth       int
	StockfishMoveTimeMs  int
	EnginePoolSize       int
	BlunderThresholdCP   float64
	EvalMaxRetries       int
	MaxSkippedPlies      int
	LogLevel             string
	AnalysisWorkerCount  int
	AnalysisQueueSize    int
	ImportWorkerCount    int
	ImportQueueSize      int
	ArchiveLimit         int
	MaxConcurrentArchive int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		DBPath:               envOr("DB_PATH", "file:chesscoach.db"),
		StockfishPath:        envOr("STOCKFISH_PATH", "stockfish"),
		StockfishDepth:       envIntOr("STOCKFISH_DEPTH", 15),
		StockfishMoveTimeMs:  envIntOr("STOCKFISH_MOVETIME_MS", 0),
		EnginePoolSize:       envIntOr("ENGINE_POOL_SIZE", 2),
		BlunderThresholdCP:   envFloatOr("BLUNDER_THRESHOLD_CP", 200),
		EvalMaxRetries:       envIntOr("EVAL_MAX_RETRIES", 2),
		MaxSkippedPlies:      envIntOr("MAX_SKIPPED_PLIES", 5),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		AnalysisWorkerCount:  envIntOr("ANALYSIS_WORKER_COUNT", 2),
		AnalysisQueueSize:    envIntOr("ANALYSIS_QUEUE_SIZE", 64),
		ImportWorkerCount:    envIntOr("IMPORT_WORKER_COUNT", 2),
		ImportQueueSize:      envIntOr("IMPORT_QUEUE_SIZE", 32),
		ArchiveLimit:         envIntOr("ARCHIVE_LIMIT", 0),
		MaxConcurrentArchive: envIntOr("MAX_CONCURRENT_ARCHIVE", 10),
	}
}

// Validate checks the configuration for values that would only fail later,
// at analysis time. It collects every problem instead of stopping at the
// first one.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if c.StockfishDepth < 1 || c.StockfishDepth > 30 {
		problems = append(problems, fmt.Sprintf("STOCKFISH_DEPTH must be between 1 and 30, got %d", c.StockfishDepth))
	}
	if c.StockfishPath != "" && c.StockfishPath != "stockfish" {
		if _, err := exec.LookPath(c.StockfishPath); err != nil {
			problems = append(problems, fmt.Sprintf("STOCKFISH_PATH not found: %s", c.StockfishPath))
		}
	}
	if c.EnginePoolSize < 1 {
		problems = append(problems, "ENGINE_POOL_SIZE must be at least 1")
	}
	if c.BlunderThresholdCP <= 0 {
		problems = append(problems, "BLUNDER_THRESHOLD_CP must be positive")
	}
	if c.EvalMaxRetries < 0 {
		problems = append(problems, "EVAL_MAX_RETRIES cannot be negative")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be DEBUG, INFO, WARN, or ERROR, got %q", c.LogLevel))
	}
	if c.AnalysisWorkerCount < 1 {
		problems = append(problems, "ANALYSIS_WORKER_COUNT must be at least 1")
	}
	if c.AnalysisQueueSize < 1 {
		problems = append(problems, "ANALYSIS_QUEUE_SIZE must be at least 1")
	}
	if c.ImportWorkerCount < 1 {
		problems = append(problems, "IMPORT_WORKER_COUNT must be at least 1")
	}
	if c.ImportQueueSize < 1 {
		problems = append(problems, "IMPORT_QUEUE_SIZE must be at least 1")
	}
	if c.MaxConcurrentArchive < 1 {
		problems = append(problems, "MAX_CONCURRENT_ARCHIVE must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
