package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/transfermetrics/pipeline/internal/domain/transfer"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// transferRow is the decode model for one transfer-market line.
type transferRow struct {
	Player       string `validate:"required"`
	Position     string `validate:"required"`
	Age          float64
	Fee          float64
	MarketValue  float64
	Nationality  string
	PreviousClub string
}

// PreparedFile is the combined admitted-transfers artifact name.
const PreparedFile = "transfers_prepared.csv"

// TransferStore reads one transfer file per league-year from an input
// directory and writes the prepared combined file to the output
// directory. The directories must differ or a rerun would re-ingest the
// prepared artifact as raw input.
type TransferStore struct {
	dir      string
	outDir   string
	validate *validator.Validate
	logger   *logging.Logger
}

func NewTransferStore(dir, outDir string, logger *logging.Logger) *TransferStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &TransferStore{
		dir:      dir,
		outDir:   outDir,
		validate: validator.New(),
		logger:   logger,
	}
}

var yearToken = regexp.MustCompile(`\d{4}`)

// leagueFromFilename recovers the raw league name from a source file like
// "premier_league_2023.csv". The year token and separators are stripped;
// canonicalization happens later in Event.Normalize.
func leagueFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = yearToken.ReplaceAllString(base, "")
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

// LoadAll combines every *.csv under the directory into one event slice.
// Files are visited in sorted name order so the output is deterministic.
func (s *TransferStore) LoadAll(ctx context.Context) ([]transfer.Event, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read transfers dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("transfers dir %s contains no csv files", s.dir)
	}

	var events []transfer.Event
	dropped := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileEvents, fileDropped, err := s.loadFile(filepath.Join(s.dir, name), name)
		if err != nil {
			return nil, err
		}
		events = append(events, fileEvents...)
		dropped += fileDropped
	}

	s.logger.Info("transfer files loaded",
		"dir", s.dir,
		"files", len(names),
		"events", len(events),
		"dropped_invalid", dropped,
	)
	return events, nil
}

func (s *TransferStore) loadFile(path, sourceFile string) ([]transfer.Event, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open transfer file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read transfer file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("transfer file %s has no header", path)
	}

	header := newHeaderIndex(rows[0])
	league := leagueFromFilename(sourceFile)
	events := make([]transfer.Event, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		decoded := transferRow{
			Player:       header.cell(row, "player"),
			Position:     header.cell(row, "position"),
			Age:          parseFloat(header.cell(row, "age")),
			Fee:          parseFloat(header.cell(row, "fee")),
			MarketValue:  parseFloat(header.cell(row, "market_value")),
			Nationality:  header.cell(row, "nationality"),
			PreviousClub: header.cell(row, "previous_club"),
		}
		if err := s.validate.Struct(decoded); err != nil {
			dropped++
			continue
		}

		events = append(events, transfer.Event{
			Player:       decoded.Player,
			Age:          decoded.Age,
			Position:     decoded.Position,
			Nationality:  decoded.Nationality,
			Fee:          decoded.Fee,
			MarketValue:  decoded.MarketValue,
			PreviousClub: decoded.PreviousClub,
			League:       league,
			SourceFile:   sourceFile,
		})
	}
	return events, dropped, nil
}

// SaveAll writes the prepared events to one combined file in the output
// directory.
func (s *TransferStore) SaveAll(ctx context.Context, events []transfer.Event) error {
	path := filepath.Join(s.outDir, PreparedFile)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create prepared transfers file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{
		"player", "age", "position", "nationality", "fee", "market_value",
		"previous_club", "league", "source_file", "transfer_year",
		"season_before", "season_after",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write prepared transfers header: %w", err)
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			event.Player,
			formatFloat(event.Age),
			event.Position,
			event.Nationality,
			formatFloat(event.Fee),
			formatFloat(event.MarketValue),
			event.PreviousClub,
			event.League,
			event.SourceFile,
			strconv.Itoa(event.TransferYear),
			event.SeasonBefore,
			event.SeasonAfter,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write prepared transfer row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush prepared transfers file: %w", err)
	}
	s.logger.Info("prepared transfers written", "path", path, "rows", len(events))
	return nil
}
