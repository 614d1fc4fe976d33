package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/transfermetrics/pipeline/internal/config"
	"github.com/transfermetrics/pipeline/internal/domain/normalize"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/infrastructure/csvstore"
	"github.com/transfermetrics/pipeline/internal/infrastructure/fbref"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var logger *logging.Logger
	if cfg.LogFormat == "json" {
		logger = logging.NewJSON(cfg.LogLevel)
	} else {
		logger = logging.NewConsole(cfg.LogLevel)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("collection failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
	leagues := cfg.CollectLeagues
	if len(leagues) == 0 {
		leagues = []string{
			normalize.LeaguePremierLeague,
			normalize.LeagueLaLiga,
			normalize.LeagueSerieA,
			normalize.LeagueBundesliga,
			normalize.LeagueLigue1,
		}
	}
	seasons, err := resolveSeasons(cfg.CollectSeasons)
	if err != nil {
		return err
	}

	client := fbref.NewClient(fbref.ClientConfig{
		Delay:      time.Duration(cfg.CollectDelaySeconds) * time.Second,
		MaxRetries: 2,
		Logger:     logger,
	})

	type page struct {
		league string
		season string
	}
	pages := make([]page, 0, len(leagues)*len(seasons))
	for _, league := range leagues {
		canonical := normalize.League(league)
		for _, season := range seasons {
			pages = append(pages, page{league: canonical, season: season})
		}
	}

	// Fetchers fan out here but serialize on the client's polite delay;
	// the pool mainly overlaps parsing with the next download.
	results := make([][]performance.Record, len(pages))
	fetchers := pool.New().WithErrors().WithContext(ctx)
	for i, p := range pages {
		fetchers.Go(func(ctx context.Context) error {
			rows, err := client.FetchStats(ctx, p.league, p.season)
			if err != nil {
				return fmt.Errorf("collect league=%s season=%s: %w", p.league, p.season, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := fetchers.Wait(); err != nil {
		return err
	}

	var records []performance.Record
	for _, rows := range results {
		records = append(records, rows...)
	}
	if len(records) == 0 {
		return fmt.Errorf("no player rows collected")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.PerformancePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store := csvstore.NewPerformanceStore(cfg.PerformancePath, logger)
	if err := store.SaveAll(ctx, records); err != nil {
		return err
	}

	logger.Info("collection finished",
		"pages", len(pages),
		"players", len(records),
		"path", cfg.PerformancePath,
	)
	return nil
}

// resolveSeasons turns COLLECT_SEASONS entries (bare start years or
// canonical labels) into season labels. Empty input collects the two
// seasons around the previous calendar year.
func resolveSeasons(raw []string) ([]string, error) {
	if len(raw) == 0 {
		year := time.Now().Year() - 1
		return []string{
			normalize.SeasonLabel(year - 1),
			normalize.SeasonLabel(year),
		}, nil
	}

	seasons := make([]string, 0, len(raw))
	for _, entry := range raw {
		if year, err := strconv.Atoi(entry); err == nil {
			seasons = append(seasons, normalize.SeasonLabel(year))
			continue
		}
		season := normalize.Season(entry)
		if season == "" {
			return nil, fmt.Errorf("unusable season entry %q", entry)
		}
		seasons = append(seasons, season)
	}
	return seasons, nil
}
