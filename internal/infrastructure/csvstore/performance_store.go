package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/transfermetrics/pipeline/internal/domain/normalize"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// performanceRow is the decode model for one player-season line. The
// validate tags are the single schema check at this input boundary.
type performanceRow struct {
	Player string `validate:"required"`
	Squad  string
	League string `validate:"required"`
	Season string `validate:"required"`
	Age    float64
}

// PerformanceStore reads and writes player-season statistics files.
type PerformanceStore struct {
	path     string
	validate *validator.Validate
	logger   *logging.Logger
}

func NewPerformanceStore(path string, logger *logging.Logger) *PerformanceStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &PerformanceStore{
		path:     path,
		validate: validator.New(),
		logger:   logger,
	}
}

// LoadAll decodes every row of the statistics file. Rows failing schema
// validation or missing a parseable age are dropped and counted; stat
// cells that cannot be read coerce to zero.
func (s *PerformanceStore) LoadAll(ctx context.Context) ([]performance.Record, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open performance file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read performance file %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("performance file %s has no header", s.path)
	}

	header := newHeaderIndex(rows[0])
	records := make([]performance.Record, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		decoded := performanceRow{
			Player: header.cell(row, "player"),
			Squad:  header.cell(row, "squad"),
			League: header.cell(row, "league"),
			Season: header.cell(row, "season"),
			Age:    parseFloat(header.cell(row, "age")),
		}
		if err := s.validate.Struct(decoded); err != nil || math.IsNaN(decoded.Age) {
			dropped++
			continue
		}

		record := performance.Record{
			Player:         decoded.Player,
			NormalizedName: header.cell(row, "normalized_name"),
			Nation:         header.cell(row, "nation"),
			Position:       header.cell(row, "pos"),
			Squad:          decoded.Squad,
			Age:            int(decoded.Age),
			League:         decoded.League,
			Season:         decoded.Season,
		}
		// Raw collected files predate the cleaned-file column.
		if record.NormalizedName == "" {
			record.NormalizedName = normalize.Name(record.Player)
		}
		applyStats(&record, header, row)
		records = append(records, record)
	}

	s.logger.Info("performance file loaded",
		"path", s.path,
		"rows", len(records),
		"dropped_invalid", dropped,
	)
	return records, nil
}

// SaveAll writes records in the fixed stat-column order, per-90 rates
// included.
func (s *PerformanceStore) SaveAll(ctx context.Context, records []performance.Record) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create performance file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"player", "normalized_name", "nation", "pos", "squad", "age", "league", "season"}
	header = append(header, performance.StatNames()...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write performance header: %w", err)
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			record.Player,
			record.NormalizedName,
			record.Nation,
			record.Position,
			record.Squad,
			strconv.Itoa(record.Age),
			record.League,
			record.Season,
		}
		for _, stat := range record.StatColumns() {
			row = append(row, formatFloat(stat.Value))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write performance row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush performance file: %w", err)
	}
	s.logger.Info("performance file written", "path", s.path, "rows", len(records))
	return nil
}

// applyStats fills the numeric stat fields from the named columns.
func applyStats(record *performance.Record, header headerIndex, row []string) {
	record.Matches = parseStat(header.cell(row, "mp"))
	record.Starts = parseStat(header.cell(row, "starts"))
	record.Minutes = parseStat(header.cell(row, "min"))
	record.Nineties = parseStat(header.cell(row, "nineties"))
	record.Goals = parseStat(header.cell(row, "gls"))
	record.Assists = parseStat(header.cell(row, "ast"))
	record.GoalsPlusAssists = parseStat(header.cell(row, "g_plus_a"))
	record.NonPenaltyGoals = parseStat(header.cell(row, "g_minus_pk"))
	record.Penalties = parseStat(header.cell(row, "pk"))
	record.PenaltyAttempts = parseStat(header.cell(row, "pkatt"))
	record.YellowCards = parseStat(header.cell(row, "crdy"))
	record.RedCards = parseStat(header.cell(row, "crdr"))
	record.XG = parseStat(header.cell(row, "xg"))
	record.NonPenaltyXG = parseStat(header.cell(row, "npxg"))
	record.XAG = parseStat(header.cell(row, "xag"))
	record.NonPenaltyXGXAG = parseStat(header.cell(row, "npxg_xag"))
	record.ProgressiveCarries = parseStat(header.cell(row, "prgc"))
	record.ProgressivePasses = parseStat(header.cell(row, "prgp"))
	record.ProgressiveReceptions = parseStat(header.cell(row, "prgr"))
	record.GoalsPer90 = parseStat(header.cell(row, "gls_per90"))
	record.AssistsPer90 = parseStat(header.cell(row, "ast_per90"))
	record.GAPer90 = parseStat(header.cell(row, "ga_per90"))
}
