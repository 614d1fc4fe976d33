package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/transfermetrics/pipeline/internal/config"
	"github.com/transfermetrics/pipeline/internal/domain/matched"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/domain/similarity"
	"github.com/transfermetrics/pipeline/internal/domain/transfer"
	"github.com/transfermetrics/pipeline/internal/estimator"
	"github.com/transfermetrics/pipeline/internal/infrastructure/csvstore"
	"github.com/transfermetrics/pipeline/internal/infrastructure/repository/postgres"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
	"github.com/transfermetrics/pipeline/internal/usecase"
)

// cleanedFile is the cleaned statistics artifact consumed by the match
// stage.
const cleanedFile = "performance_clean.csv"

func main() {
	stage := "all"
	if len(os.Args) > 1 {
		stage = os.Args[1]
	}

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

	runner := newRunner(cfg, logger)
	if err := runner.run(ctx, stage); err != nil {
		logger.Error("pipeline failed", "stage", stage, "error", err)
		os.Exit(1)
	}
}

// runner wires the stores and services of one pipeline run.
type runner struct {
	cfg    config.Config
	logger *logging.Logger

	rawStore     performance.Repository
	cleanStore   performance.Repository
	transferSt   transfer.Repository
	matchedStore matched.Repository
	featureStore *csvstore.FeatureStore
	reportStore  *csvstore.ReportStore

	clean    *usecase.CleanService
	prepare  *usecase.TransferService
	match    *usecase.MatchService
	features *usecase.FeatureService
	train    *usecase.TrainingService

	report usecase.RunReport
}

func newRunner(cfg config.Config, logger *logging.Logger) *runner {
	rules := transfer.AdmissionRules{
		MinFee:            cfg.MinFee,
		PositionFragments: cfg.PositionFragments,
	}

	return &runner{
		cfg:    cfg,
		logger: logger,

		rawStore:     csvstore.NewPerformanceStore(cfg.PerformancePath, logger),
		cleanStore:   csvstore.NewPerformanceStore(filepath.Join(cfg.OutputDir, cleanedFile), logger),
		transferSt:   csvstore.NewTransferStore(cfg.TransfersDir, cfg.OutputDir, logger),
		matchedStore: csvstore.NewMatchedStore(cfg.OutputDir, logger),
		featureStore: csvstore.NewFeatureStore(cfg.OutputDir, logger),
		reportStore:  csvstore.NewReportStore(cfg.OutputDir, logger),

		clean:    usecase.NewCleanService(logger),
		prepare:  usecase.NewTransferService(rules, logger),
		match:    usecase.NewMatchService(similarity.LevenshteinScorer{}, cfg.SimilarityThreshold, cfg.MatchWorkers, logger),
		features: usecase.NewFeatureService(logger),
		train:    usecase.NewTrainingService(cfg.SplitConfig(), logger),

		report: usecase.RunReport{
			RunID:     time.Now().UTC().Format("20060102T150405Z"),
			StartedAt: time.Now().UTC(),
		},
	}
}

func (r *runner) run(ctx context.Context, stage string) error {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var loaded *usecase.JoinResult
	var err error
	switch stage {
	case "clean":
		err = r.runClean(ctx)
	case "match":
		loaded, err = r.runMatch(ctx)
	case "features":
		err = r.runFeatures(ctx)
	case "train":
		err = r.runTrain(ctx)
	case "all":
		if err = r.runClean(ctx); err != nil {
			break
		}
		if loaded, err = r.runMatch(ctx); err != nil {
			break
		}
		if err = r.runTrain(ctx); err != nil {
			break
		}
	default:
		return fmt.Errorf("unknown stage %q (clean|match|features|train|all)", stage)
	}
	if err != nil {
		return err
	}

	r.report.FinishedAt = time.Now().UTC()
	if err := r.reportStore.Save(ctx, r.report); err != nil {
		return err
	}

	if r.cfg.DBURL != "" && loaded != nil {
		if err := r.loadWarehouse(ctx, loaded.All); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) runClean(ctx context.Context) error {
	raw, err := r.rawStore.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrMissingInput, err)
	}

	cleaned, stats, err := r.clean.Clean(ctx, raw)
	if err != nil {
		return err
	}
	r.report.Clean = stats
	return r.cleanStore.SaveAll(ctx, cleaned)
}

func (r *runner) runMatch(ctx context.Context) (*usecase.JoinResult, error) {
	records, err := r.cleanStore.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: run the clean stage first: %v", usecase.ErrMissingInput, err)
	}

	rawEvents, err := r.transferSt.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrMissingInput, err)
	}
	events, transferStats, err := r.prepare.Prepare(ctx, rawEvents)
	if err != nil {
		return nil, err
	}
	r.report.Transfers = transferStats
	if err := r.transferSt.SaveAll(ctx, events); err != nil {
		return nil, err
	}

	result, err := r.match.Join(ctx, events, records)
	if err != nil {
		return nil, err
	}
	r.report.Join = result.Stats

	if err := r.matchedStore.SaveAll(ctx, result.All); err != nil {
		return nil, err
	}
	if err := r.matchedStore.SaveComplete(ctx, result.Complete); err != nil {
		return nil, err
	}
	if err := r.matchedStore.SaveUnmatched(ctx, result.Unmatched); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *runner) runFeatures(ctx context.Context) error {
	dataset, _, err := r.assemble(ctx)
	if err != nil {
		return err
	}
	return r.featureStore.Save(ctx, dataset)
}

func (r *runner) runTrain(ctx context.Context) error {
	dataset, _, err := r.assemble(ctx)
	if err != nil {
		return err
	}
	if err := r.featureStore.Save(ctx, dataset); err != nil {
		return err
	}

	reports, err := r.train.TrainAll(ctx, dataset,
		estimator.NewLinearRegression(),
		estimator.NewRandomForest(),
		estimator.NewGradientBoosting(),
	)
	if err != nil {
		return err
	}
	r.report.Models = reports
	return nil
}

func (r *runner) assemble(ctx context.Context) (usecase.Dataset, usecase.FeatureStats, error) {
	complete, err := r.matchedStore.LoadComplete(ctx)
	if err != nil {
		return usecase.Dataset{}, usecase.FeatureStats{}, fmt.Errorf("%w: run the match stage first: %v", usecase.ErrMissingInput, err)
	}

	dataset, stats, err := r.features.Assemble(ctx, complete)
	if err != nil {
		return usecase.Dataset{}, usecase.FeatureStats{}, err
	}
	r.report.Features = stats
	return dataset, stats, nil
}

func (r *runner) loadWarehouse(ctx context.Context, rows []matched.Transfer) error {
	db, err := postgres.Open(r.cfg.DBURL)
	if err != nil {
		return err
	}
	defer db.Close()

	warehouse := postgres.NewWarehouseRepository(db, r.logger)
	return warehouse.SaveRun(ctx, r.report, rows)
}
