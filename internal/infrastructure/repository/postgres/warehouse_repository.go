// Package postgres is the optional analytics warehouse sink. It is only
// wired when a database URL is configured; the CSV artifacts remain the
// canonical pipeline output.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/transfermetrics/pipeline/internal/domain/matched"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
	"github.com/transfermetrics/pipeline/internal/usecase"
)

type WarehouseRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
}

func Open(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	return db, nil
}

func NewWarehouseRepository(db *sqlx.DB, logger *logging.Logger) *WarehouseRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &WarehouseRepository{db: db, logger: logger}
}

const insertRunQuery = `INSERT INTO pipeline_runs (run_id, started_at, finished_at, report)
VALUES (:run_id, :started_at, :finished_at, :report)`

const insertMatchedQuery = `INSERT INTO matched_transfers (
	run_id, player, normalized_name, age, position, fee, market_value,
	previous_club, league, source_file, transfer_year, season_before,
	season_after, has_before, has_after, before_score, after_score,
	before_squad, before_nineties, before_gls, before_ast, before_ga_per90,
	after_squad, after_nineties, after_gls, after_ast, after_ga_per90
) VALUES (
	:run_id, :player, :normalized_name, :age, :position, :fee, :market_value,
	:previous_club, :league, :source_file, :transfer_year, :season_before,
	:season_after, :has_before, :has_after, :before_score, :after_score,
	:before_squad, :before_nineties, :before_gls, :before_ast, :before_ga_per90,
	:after_squad, :after_nineties, :after_gls, :after_ast, :after_ga_per90
)`

// SaveRun stores one run's report and matched rows atomically.
func (r *WarehouseRepository) SaveRun(ctx context.Context, report usecase.RunReport, rows []matched.Transfer) error {
	encoded, err := sonic.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save run: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runModel := pipelineRunInsertModel{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Report:     encoded,
	}
	if _, err := tx.NamedExecContext(ctx, insertRunQuery, runModel); err != nil {
		return fmt.Errorf("insert pipeline run %s: %w", report.RunID, err)
	}

	for _, row := range rows {
		model := buildMatchedModel(report.RunID, row)
		if _, err := tx.NamedExecContext(ctx, insertMatchedQuery, model); err != nil {
			return fmt.Errorf("insert matched transfer player=%s: %w", row.Event.Player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run tx: %w", err)
	}
	r.logger.Info("run loaded into warehouse", "run_id", report.RunID, "rows", len(rows))
	return nil
}

func buildMatchedModel(runID string, row matched.Transfer) matchedTransferInsertModel {
	model := matchedTransferInsertModel{
		RunID:          runID,
		Player:         row.Event.Player,
		NormalizedName: row.Event.NormalizedName,
		Age:            nullableFloat(row.Event.Age),
		Position:       row.Event.Position,
		Fee:            nullableFloat(row.Event.Fee),
		MarketValue:    nullableFloat(row.Event.MarketValue),
		PreviousClub:   row.Event.PreviousClub,
		League:         row.Event.League,
		SourceFile:     row.Event.SourceFile,
		TransferYear:   row.Event.TransferYear,
		SeasonBefore:   row.Event.SeasonBefore,
		SeasonAfter:    row.Event.SeasonAfter,
		HasBefore:      row.HasBefore(),
		HasAfter:       row.HasAfter(),
		BeforeScore:    row.BeforeScore,
		AfterScore:     row.AfterScore,
	}
	fillSide(row.Before, &model.BeforeSquad, &model.BeforeNineties, &model.BeforeGoals, &model.BeforeAssists, &model.BeforeGAPer90)
	fillSide(row.After, &model.AfterSquad, &model.AfterNineties, &model.AfterGoals, &model.AfterAssists, &model.AfterGAPer90)
	return model
}

func fillSide(record *performance.Record, squad *sql.NullString, nineties, goals, assists, gaPer90 *sql.NullFloat64) {
	if record == nil {
		return
	}
	*squad = nullableString(record.Squad)
	*nineties = nullableFloat(record.Nineties)
	*goals = nullableFloat(record.Goals)
	*assists = nullableFloat(record.Assists)
	*gaPer90 = nullableFloat(record.GAPer90)
}
