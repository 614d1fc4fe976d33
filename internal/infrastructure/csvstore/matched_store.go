package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/transfermetrics/pipeline/internal/domain/matched"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/domain/transfer"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// Output file names of the matching stage.
const (
	AllFile       = "transfers_matched_all.csv"
	CompleteFile  = "transfers_matched_complete.csv"
	UnmatchedFile = "transfers_unmatched.csv"
)

// MatchedStore writes the three disjoint partitions of a matching run and
// reads the complete partition back for the feature stage.
type MatchedStore struct {
	dir    string
	logger *logging.Logger
}

func NewMatchedStore(dir string, logger *logging.Logger) *MatchedStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchedStore{dir: dir, logger: logger}
}

var eventColumns = []string{
	"player", "normalized_name", "age", "position", "nationality", "fee",
	"market_value", "previous_club", "league", "source_file",
	"transfer_year", "season_before", "season_after",
}

func matchedHeader(withChanges bool) []string {
	header := append([]string{}, eventColumns...)
	header = append(header, "before_score", "after_score", "has_before", "has_after", "has_both")
	header = append(header, "before_squad", "before_position", "before_season")
	for _, name := range performance.StatNames() {
		header = append(header, "before_"+name)
	}
	header = append(header, "after_squad", "after_season")
	for _, name := range performance.StatNames() {
		header = append(header, "after_"+name)
	}
	if withChanges {
		for _, name := range performance.StatNames() {
			header = append(header, "change_"+name)
		}
	}
	return header
}

func eventCells(e transfer.Event) []string {
	return []string{
		e.Player,
		e.NormalizedName,
		formatFloat(e.Age),
		e.Position,
		e.Nationality,
		formatFloat(e.Fee),
		formatFloat(e.MarketValue),
		e.PreviousClub,
		e.League,
		e.SourceFile,
		strconv.Itoa(e.TransferYear),
		e.SeasonBefore,
		e.SeasonAfter,
	}
}

// recordCells renders one side of a match. A nil record yields empty
// cells for every column of that side.
func recordCells(record *performance.Record, withPosition bool) []string {
	width := 2 + len(performance.StatNames())
	if withPosition {
		width++
	}
	if record == nil {
		return make([]string, width)
	}

	cells := []string{record.Squad}
	if withPosition {
		cells = append(cells, record.Position)
	}
	cells = append(cells, record.Season)
	for _, stat := range record.StatColumns() {
		cells = append(cells, formatFloat(stat.Value))
	}
	return cells
}

func matchedRow(t matched.Transfer, withChanges bool) []string {
	row := eventCells(t.Event)
	row = append(row,
		strconv.Itoa(t.BeforeScore),
		strconv.Itoa(t.AfterScore),
		strconv.FormatBool(t.HasBefore()),
		strconv.FormatBool(t.HasAfter()),
		strconv.FormatBool(t.HasBoth()),
	)
	row = append(row, recordCells(t.Before, true)...)
	row = append(row, recordCells(t.After, false)...)
	if withChanges {
		for _, change := range t.Changes() {
			row = append(row, formatFloat(change.Delta))
		}
	}
	return row
}

func (s *MatchedStore) save(ctx context.Context, name string, rows []matched.Transfer, withChanges bool) error {
	path := filepath.Join(s.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(matchedHeader(withChanges)); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(matchedRow(row, withChanges)); err != nil {
			return fmt.Errorf("write %s row: %w", name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	s.logger.Info("matched partition written", "path", path, "rows", len(rows))
	return nil
}

func (s *MatchedStore) SaveAll(ctx context.Context, rows []matched.Transfer) error {
	return s.save(ctx, AllFile, rows, false)
}

// SaveComplete adds the after-minus-before change columns; they exist
// only on this partition.
func (s *MatchedStore) SaveComplete(ctx context.Context, rows []matched.Transfer) error {
	return s.save(ctx, CompleteFile, rows, true)
}

func (s *MatchedStore) SaveUnmatched(ctx context.Context, rows []matched.Transfer) error {
	return s.save(ctx, UnmatchedFile, rows, false)
}

// LoadComplete reads the complete partition back for the feature stage.
func (s *MatchedStore) LoadComplete(ctx context.Context) ([]matched.Transfer, error) {
	path := filepath.Join(s.dir, CompleteFile)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open complete partition: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read complete partition %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("complete partition %s has no header", path)
	}

	header := newHeaderIndex(rows[0])
	out := make([]matched.Transfer, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		year, _ := strconv.Atoi(header.cell(row, "transfer_year"))
		event := transfer.Event{
			Player:         header.cell(row, "player"),
			NormalizedName: header.cell(row, "normalized_name"),
			Age:            parseFloat(header.cell(row, "age")),
			Position:       header.cell(row, "position"),
			Nationality:    header.cell(row, "nationality"),
			Fee:            parseFloat(header.cell(row, "fee")),
			MarketValue:    parseFloat(header.cell(row, "market_value")),
			PreviousClub:   header.cell(row, "previous_club"),
			League:         header.cell(row, "league"),
			SourceFile:     header.cell(row, "source_file"),
			TransferYear:   year,
			SeasonBefore:   header.cell(row, "season_before"),
			SeasonAfter:    header.cell(row, "season_after"),
		}

		before := loadSide(header, row, "before_", event)
		before.Position = header.cell(row, "before_position")
		after := loadSide(header, row, "after_", event)

		beforeScore, _ := strconv.Atoi(header.cell(row, "before_score"))
		afterScore, _ := strconv.Atoi(header.cell(row, "after_score"))
		out = append(out, matched.Transfer{
			Event:       event,
			Before:      before,
			After:       after,
			BeforeScore: beforeScore,
			AfterScore:  afterScore,
		})
	}

	s.logger.Info("complete partition loaded", "path", path, "rows", len(out))
	return out, nil
}

// loadSide rebuilds a performance record from its prefixed columns.
func loadSide(header headerIndex, row []string, prefix string, event transfer.Event) *performance.Record {
	record := performance.Record{
		Player:         event.Player,
		NormalizedName: event.NormalizedName,
		League:         event.League,
		Squad:          header.cell(row, prefix+"squad"),
		Season:         header.cell(row, prefix+"season"),
	}
	record.Matches = parseStat(header.cell(row, prefix+"mp"))
	record.Starts = parseStat(header.cell(row, prefix+"starts"))
	record.Minutes = parseStat(header.cell(row, prefix+"min"))
	record.Nineties = parseStat(header.cell(row, prefix+"nineties"))
	record.Goals = parseStat(header.cell(row, prefix+"gls"))
	record.Assists = parseStat(header.cell(row, prefix+"ast"))
	record.GoalsPlusAssists = parseStat(header.cell(row, prefix+"g_plus_a"))
	record.NonPenaltyGoals = parseStat(header.cell(row, prefix+"g_minus_pk"))
	record.Penalties = parseStat(header.cell(row, prefix+"pk"))
	record.PenaltyAttempts = parseStat(header.cell(row, prefix+"pkatt"))
	record.YellowCards = parseStat(header.cell(row, prefix+"crdy"))
	record.RedCards = parseStat(header.cell(row, prefix+"crdr"))
	record.XG = parseStat(header.cell(row, prefix+"xg"))
	record.NonPenaltyXG = parseStat(header.cell(row, prefix+"npxg"))
	record.XAG = parseStat(header.cell(row, prefix+"xag"))
	record.NonPenaltyXGXAG = parseStat(header.cell(row, prefix+"npxg_xag"))
	record.ProgressiveCarries = parseStat(header.cell(row, prefix+"prgc"))
	record.ProgressivePasses = parseStat(header.cell(row, prefix+"prgp"))
	record.ProgressiveReceptions = parseStat(header.cell(row, prefix+"prgr"))
	record.GoalsPer90 = parseStat(header.cell(row, prefix+"gls_per90"))
	record.AssistsPer90 = parseStat(header.cell(row, prefix+"ast_per90"))
	record.GAPer90 = parseStat(header.cell(row, prefix+"ga_per90"))
	return &record
}
