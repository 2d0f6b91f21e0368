package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Addr:                 ":8080",
		DBPath:               "file:test.db",
		StockfishPath:        "stockfish",
		StockfishDepth:       15,
		EnginePoolSize:       2,
		BlunderThresholdCP:   200,
		EvalMaxRetries:       2,
		MaxSkippedPlies:      5,
		LogLevel:             "INFO",
		AnalysisWorkerCount:  2,
		AnalysisQueueSize:    64,
		ImportWorkerCount:    2,
		ImportQueueSize:      32,
		MaxConcurrentArchive: 10,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH")
}

func TestValidate_DepthOutOfRange(t *testing.T) {
	for _, depth := range []int{0, -1, 31, 100} {
		cfg := validConfig()
		cfg.StockfishDepth = depth
		err := cfg.Validate()
		require.Error(t, err, "depth %d should be rejected", depth)
		assert.Contains(t, err.Error(), "STOCKFISH_DEPTH")
	}
}

func TestValidate_NonPositiveThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.BlunderThresholdCP = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BLUNDER_THRESHOLD_CP")
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := validConfig()
	cfg.EvalMaxRetries = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVAL_MAX_RETRIES")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "VERBOSE"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "debug"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_WorkerCounts(t *testing.T) {
	cfg := validConfig()
	cfg.AnalysisWorkerCount = 0
	cfg.ImportQueueSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_WORKER_COUNT")
	assert.Contains(t, err.Error(), "IMPORT_QUEUE_SIZE")
}

func TestValidate_CollectsMultipleProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""
	cfg.StockfishDepth = 0
	cfg.EnginePoolSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR")
	assert.Contains(t, err.Error(), "STOCKFISH_DEPTH")
	assert.Contains(t, err.Error(), "ENGINE_POOL_SIZE")
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15, cfg.StockfishDepth)
	assert.Equal(t, 2, cfg.EnginePoolSize)
	assert.Equal(t, float64(200), cfg.BlunderThresholdCP)
	assert.Equal(t, 2, cfg.EvalMaxRetries)
	assert.Equal(t, 5, cfg.MaxSkippedPlies)
	assert.Equal(t, 10, cfg.MaxConcurrentArchive)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("STOCKFISH_DEPTH", "12")
	t.Setenv("BLUNDER_THRESHOLD_CP", "150")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 12, cfg.StockfishDepth)
	assert.Equal(t, float64(150), cfg.BlunderThresholdCP)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("STOCKFISH_DEPTH", "not-a-number")

	cfg := Load()
	assert.Equal(t, 15, cfg.StockfishDepth)
}
