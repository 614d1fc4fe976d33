// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/transfermetrics/pipeline/internal/platform/logging"
	"github.com/transfermetrics/pipeline/internal/usecase"
)

// Config stores runtime configuration for one pipeline run.
type Config struct {
	PerformancePath string
	TransfersDir    string
	OutputDir       string

	MinFee            float64
	PositionFragments []string

	SimilarityThreshold int
	MatchWorkers        int

	SplitMode       string
	HoldoutFraction float64
	SplitSeed       int64
	CutoffYear      int

	LogLevel  logging.Level
	LogFormat string

	DBURL string

	CollectDelaySeconds int
	CollectSeasons      []string
	CollectLeagues      []string
}

func Load() (Config, error) {
	cfg := Config{
		PerformancePath: getEnv("PERFORMANCE_PATH", "data/performance.csv"),
		TransfersDir:    getEnv("TRANSFERS_DIR", "data/transfers"),
		OutputDir:       getEnv("OUTPUT_DIR", "data/output"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "console")),
		DBURL:           strings.TrimSpace(getEnv("DB_URL", "")),
		SplitMode:       strings.ToLower(getEnv("SPLIT_MODE", usecase.SplitHoldout)),
	}

	minFee, err := getEnvAsFloat("MIN_FEE", 5_000_000)
	if err != nil {
		return Config{}, fmt.Errorf("parse MIN_FEE: %w", err)
	}
	cfg.MinFee = minFee

	fragments := splitCSV(getEnv("POSITION_FRAGMENTS", ""))
	if len(fragments) == 0 {
		fragments = []string{"midfield", "attack", "forward", "winger", "striker"}
	}
	cfg.PositionFragments = fragments

	threshold, err := getEnvAsInt("SIMILARITY_THRESHOLD", usecase.DefaultSimilarityThreshold)
	if err != nil {
		return Config{}, fmt.Errorf("parse SIMILARITY_THRESHOLD: %w", err)
	}
	if threshold < 0 || threshold > 100 {
		return Config{}, fmt.Errorf("SIMILARITY_THRESHOLD %d out of [0,100]", threshold)
	}
	cfg.SimilarityThreshold = threshold

	workers, err := getEnvAsInt("MATCH_WORKERS", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_WORKERS: %w", err)
	}
	if workers < 0 {
		return Config{}, fmt.Errorf("MATCH_WORKERS must be >= 0")
	}
	cfg.MatchWorkers = workers

	if cfg.SplitMode != usecase.SplitHoldout && cfg.SplitMode != usecase.SplitTemporal {
		return Config{}, fmt.Errorf("SPLIT_MODE %q is not holdout or temporal", cfg.SplitMode)
	}

	fraction, err := getEnvAsFloat("HOLDOUT_FRACTION", 0.20)
	if err != nil {
		return Config{}, fmt.Errorf("parse HOLDOUT_FRACTION: %w", err)
	}
	if fraction <= 0 || fraction >= 1 {
		return Config{}, fmt.Errorf("HOLDOUT_FRACTION %v out of (0,1)", fraction)
	}
	cfg.HoldoutFraction = fraction

	seed, err := getEnvAsInt("SPLIT_SEED", 42)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPLIT_SEED: %w", err)
	}
	cfg.SplitSeed = int64(seed)

	cutoff, err := getEnvAsInt("CUTOFF_YEAR", 2023)
	if err != nil {
		return Config{}, fmt.Errorf("parse CUTOFF_YEAR: %w", err)
	}
	cfg.CutoffYear = cutoff

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	delay, err := getEnvAsInt("COLLECT_DELAY_SECONDS", 6)
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_DELAY_SECONDS: %w", err)
	}
	if delay < 0 {
		return Config{}, fmt.Errorf("COLLECT_DELAY_SECONDS must be >= 0")
	}
	cfg.CollectDelaySeconds = delay
	cfg.CollectSeasons = splitCSV(getEnv("COLLECT_SEASONS", ""))
	cfg.CollectLeagues = splitCSV(getEnv("COLLECT_LEAGUES", ""))

	return cfg, nil
}

// SplitConfig maps the split settings onto the trainer's configuration.
func (c Config) SplitConfig() usecase.SplitConfig {
	return usecase.SplitConfig{
		Mode:            c.SplitMode,
		HoldoutFraction: c.HoldoutFraction,
		Seed:            c.SplitSeed,
		CutoffYear:      c.CutoffYear,
	}
}

func parseLogLevel(raw string) (logging.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn", "warning":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return logging.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", raw)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
